package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/domain/shared"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/logger"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "Idempotency-Replayed"
	maxIdempotencyKeyLength   = 128
)

// Idempotency replays the stored response of a request whose Idempotency-Key was seen before,
// so a retried payment or conversion is applied once. Requests without the header pass through.
// The key is scoped to the authenticated user, so Auth must run first.
// Responses with status 5xx are not stored and the key is released for a retry, as is the key of a handler that panics.
func Idempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if !cfg.Enabled || store == nil || key == "" {
			c.Next()
			return
		}
		requestID := c.GetString(logger.RequestIDContextKey)
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest,
				"Idempotency-Key cannot exceed 128 characters", requestID))
			return
		}
		userID, ok := GetUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized,
				"Authentication required", requestID))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(dto.ErrCodeRequestTooLarge,
					"Request body exceeds maximum allowed size", requestID))
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest,
				"Failed to read request body", requestID))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		log := logger.For(ctx, log)
		storeKey := "idem:" + userID.String() + ":" + key
		hash := requestHash(c.Request.Method, c.Request.URL.RequestURI(), body)

		existing, reserved, err := store.Reserve(ctx, storeKey, hash, cfg.TTL)
		if err != nil {
			// the store being down must not block payments
			log.Warn("Idempotency store unavailable, processing without key", zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			switch {
			case existing.RequestHash != hash:
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(dto.ErrCodeIdempotencyMismatch,
					"Idempotency-Key was already used with a different request", requestID))
			case !existing.Completed:
				c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponse(dto.ErrCodeIdempotencyInProgress,
					"A request with this Idempotency-Key is still being processed", requestID))
			default:
				log.Debug("Replaying idempotent response", zap.String("idempotency_key", key))
				c.Header(IdempotencyReplayedHeader, "true")
				c.Data(existing.StatusCode, "application/json; charset=utf-8", existing.Body)
				c.Abort()
			}
			return
		}

		stored := false
		defer func() {
			// 5xx, a failed Complete or a handler panic
			if stored {
				return
			}
			if err := store.Release(ctx, storeKey); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
		}()

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		record := shared.IdempotencyRecord{RequestHash: hash, StatusCode: status, Body: rec.body.Bytes()}
		if err := store.Complete(ctx, storeKey, record, cfg.TTL); err != nil {
			log.Warn("Failed to store idempotent response", zap.Error(err))
			return
		}
		stored = true
	}
}

// requestHash fingerprints method, path with query, and body
func requestHash(method, uri string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(uri))
	h.Write([]byte{'\n'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// recordingWriter copies the response body while writing it through
type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
