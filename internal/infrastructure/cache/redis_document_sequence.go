package cache

import (
	"context"
	"fmt"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/invoicing"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultSequenceKeyPrefix = "invoicing:seq:"

// RedisDocumentSequence implements DocumentSequence with INCR.
// Keys carry no TTL; the Redis instance must persist them.
type RedisDocumentSequence struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDocumentSequence creates a sequence on an existing Redis client
func NewRedisDocumentSequence(client *redis.Client, keyPrefix string) *RedisDocumentSequence {
	if keyPrefix == "" {
		keyPrefix = defaultSequenceKeyPrefix
	}
	return &RedisDocumentSequence{client: client, keyPrefix: keyPrefix}
}

// Next increments the user's counter for docType and year, starting at 1
func (s *RedisDocumentSequence) Next(ctx context.Context, userID uuid.UUID, docType invoicing.DocumentType, year int) (int64, error) {
	if !docType.IsValid() {
		return 0, shared.NewValidationError("unknown document type: " + string(docType))
	}

	value, err := s.client.Incr(ctx, s.key(userID, docType, year)).Result()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, shared.NewTransientStoreError("next document sequence", err)
	}
	return value, nil
}

func (s *RedisDocumentSequence) key(userID uuid.UUID, docType invoicing.DocumentType, year int) string {
	return fmt.Sprintf("%s%s:%s:%d", s.keyPrefix, userID, docType, year)
}

// Ensure RedisDocumentSequence implements DocumentSequence
var _ invoicing.DocumentSequence = (*RedisDocumentSequence)(nil)
