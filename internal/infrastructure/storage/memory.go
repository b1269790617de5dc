package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	settlementapp "github.com/agencyops/backend/internal/application/settlement"
)

var _ settlementapp.ReceiptStorage = (*MemoryReceiptStorage)(nil)

// MemoryReceiptStorage is a development stand-in. URLs point at BaseURL and
// an object exists once Put has been called for its key.
type MemoryReceiptStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]string
	now     func() time.Time
}

func NewMemoryReceiptStorage(baseURL string) *MemoryReceiptStorage {
	if baseURL == "" {
		baseURL = "http://localhost:9000/receipts"
	}
	return &MemoryReceiptStorage{BaseURL: baseURL, objects: map[string]string{}, now: time.Now}
}

// Put records key as uploaded.
func (s *MemoryReceiptStorage) Put(key, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = contentType
}

func (s *MemoryReceiptStorage) GenerateUploadURL(_ context.Context, key, _ string, expiresIn time.Duration) (string, time.Time, error) {
	return s.presign("upload", key, expiresIn)
}

func (s *MemoryReceiptStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return s.presign("download", key, expiresIn)
}

func (s *MemoryReceiptStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errKeyRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *MemoryReceiptStorage) presign(op, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	expiresAt := s.now().Add(expiresIn)
	u := s.BaseURL + "/" + op + "/" + key + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return u, expiresAt, nil
}
