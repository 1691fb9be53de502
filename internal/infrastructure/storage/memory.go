package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	appinvoicing "github.com/RACCHUS/BookkeepingApp-sub007/internal/application/invoicing"
)

// StoredObject is a document held by MemoryArchive
type StoredObject struct {
	Data        []byte
	ContentType string
}

// MemoryArchive keeps documents in process memory.
// Download URLs point at BaseURL and are not signed.
type MemoryArchive struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
}

// NewMemoryArchive creates an empty archive
func NewMemoryArchive(baseURL string) *MemoryArchive {
	if baseURL == "" {
		baseURL = "http://localhost/documents"
	}
	return &MemoryArchive{BaseURL: baseURL, objects: make(map[string]StoredObject)}
}

// Upload stores a copy of data under storageKey
func (m *MemoryArchive) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return ErrStorageKeyRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = StoredObject{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

// GenerateDownloadURL returns a link to storageKey with its expiry in the query string
func (m *MemoryArchive) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrStorageKeyRequired
	}
	expiresAt := time.Now().Add(expiresIn)
	link := m.BaseURL + "/" + storageKey + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}

// Get returns the object stored under storageKey
func (m *MemoryArchive) Get(storageKey string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[storageKey]
	return obj, ok
}

// Len returns the number of stored objects
func (m *MemoryArchive) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Ensure MemoryArchive implements DocumentArchive
var _ appinvoicing.DocumentArchive = (*MemoryArchive)(nil)
