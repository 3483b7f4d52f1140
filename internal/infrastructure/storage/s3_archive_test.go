package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/atency/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewS3ReportArchive_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("missing bucket", func(t *testing.T) {
		_, err := NewS3ReportArchive(ctx, config.ExportConfig{}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half of a key pair", func(t *testing.T) {
		_, err := NewS3ReportArchive(ctx, config.ExportConfig{S3Bucket: "b", S3AccessKeyID: "id"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "set together")
	})

	t.Run("bad endpoint", func(t *testing.T) {
		_, err := NewS3ReportArchive(ctx, config.ExportConfig{S3Bucket: "b", S3Endpoint: "http://"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid storage endpoint")
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"":                       "",
		"minio:9000":             "https://minio:9000",
		"http://localhost:9000":  "http://localhost:9000",
		"https://s3.example.com": "https://s3.example.com",
	}
	for in, want := range tests {
		got, err := normalizeEndpoint(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestS3ReportArchive_ObjectKey(t *testing.T) {
	a := &S3ReportArchive{prefix: "attendance-reports"}
	assert.Equal(t, "attendance-reports/attendance/2025/03/a.xlsx", a.ObjectKey("/attendance/2025/03/a.xlsx"))

	a.prefix = ""
	assert.Equal(t, "a.xlsx", a.ObjectKey("a.xlsx"))
}

func TestS3ReportArchive_Put(t *testing.T) {
	var (
		mu          sync.Mutex
		method      string
		requestPath string
		contentType string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, requestPath, contentType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	archive, err := NewS3ReportArchive(context.Background(), config.ExportConfig{
		S3Endpoint:        server.URL,
		S3Region:          "us-east-1",
		S3Bucket:          "reports",
		S3AccessKeyID:     "test-key",
		S3SecretAccessKey: "test-secret",
		S3UsePathStyle:    true,
		S3Prefix:          "/attendance-reports/",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "reports", archive.Bucket())

	err = archive.Put(context.Background(), "attendance/2025/03/day.xlsx", []byte("xlsx-bytes"),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/reports/attendance-reports/attendance/2025/03/day.xlsx", requestPath)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", contentType)
}

func TestS3ReportArchive_PutRejectsEmptyKey(t *testing.T) {
	archive := &S3ReportArchive{bucket: "reports"}
	assert.Error(t, archive.Put(context.Background(), "", nil, "text/plain"))
}
