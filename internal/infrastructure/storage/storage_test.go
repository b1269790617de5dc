package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/backend/internal/infrastructure/config"
)

func createTestConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Endpoint:          endpoint,
		Bucket:            "receipts",
		AccessKey:         "test-key",
		SecretKey:         "test-secret",
		UsePathStyle:      true,
		PresignExpiration: 10 * time.Minute,
	}
}

func TestNewS3ReceiptStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, "bucket is required"},
		{"missing credentials", &config.StorageConfig{Bucket: "b"}, "secret key are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3ReceiptStorage(tt.cfg)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	t.Run("valid config", func(t *testing.T) {
		s, err := NewS3ReceiptStorage(createTestConfig("http://localhost:9000"))
		require.NoError(t, err)
		assert.Equal(t, "receipts", s.Bucket())
		assert.Equal(t, 10*time.Minute, s.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	got, err := normalizeEndpoint("", false)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", got)

	got, err = normalizeEndpoint("minio:9000", true)
	require.NoError(t, err)
	assert.Equal(t, "https://minio:9000", got)

	got, err = normalizeEndpoint("http://minio:9000", true)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", got)
}

func TestS3ReceiptStorage_Presign(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3ReceiptStorage(createTestConfig("http://localhost:9000"))
	require.NoError(t, err)
	key := "receipts/payer/payment/slip.pdf"

	t.Run("upload", func(t *testing.T) {
		before := time.Now()
		u, expiresAt, err := s.GenerateUploadURL(ctx, key, "application/pdf", 0)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(u, "http://localhost:9000/receipts/"+key), u)
		assert.Contains(t, u, "X-Amz-Signature=")
		assert.WithinDuration(t, before.Add(10*time.Minute), expiresAt, 5*time.Second)
	})

	t.Run("download with explicit expiry", func(t *testing.T) {
		u, _, err := s.GenerateDownloadURL(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Contains(t, u, "X-Amz-Expires=60")
	})

	t.Run("empty key", func(t *testing.T) {
		_, _, err := s.GenerateUploadURL(ctx, "", "application/pdf", 0)
		assert.ErrorIs(t, err, errKeyRequired)
		_, _, err = s.GenerateDownloadURL(ctx, "", 0)
		assert.ErrorIs(t, err, errKeyRequired)
	})
}

func TestS3ReceiptStorage_ObjectExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/receipts/present.pdf" {
			w.Header().Set("Content-Length", "3")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	s, err := NewS3ReceiptStorage(createTestConfig(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := s.ObjectExists(ctx, "present.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ObjectExists(ctx, "missing.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, errKeyRequired)
}

func TestMemoryReceiptStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryReceiptStorage("https://files.test")
	s.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	u, expiresAt, err := s.GenerateUploadURL(ctx, "receipts/a/b/c.pdf", "application/pdf", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/upload/receipts/a/b/c.pdf?expires=2026-05-01T13%3A00%3A00Z", u)
	assert.Equal(t, time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC), expiresAt)

	ok, err := s.ObjectExists(ctx, "receipts/a/b/c.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	s.Put("receipts/a/b/c.pdf", "application/pdf")
	ok, err = s.ObjectExists(ctx, "receipts/a/b/c.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = s.GenerateDownloadURL(ctx, "", 0)
	assert.ErrorIs(t, err, errKeyRequired)
}
