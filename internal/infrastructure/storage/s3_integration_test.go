//go:build integration

package storage

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startMinio(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "minioadmin",
				"MINIO_ROOT_PASSWORD": "minioadmin",
			},
			Cmd:        []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "http")
	require.NoError(t, err)
	return endpoint
}

func TestS3DocumentArchive_Integration(t *testing.T) {
	endpoint := startMinio(t)
	ctx := context.Background()

	archive, err := NewS3DocumentArchive(ctx, config.StorageConfig{
		Enabled:      true,
		Endpoint:     endpoint,
		Bucket:       "invoicing-test",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	require.NoError(t, archive.EnsureBucket(ctx))
	require.NoError(t, archive.EnsureBucket(ctx), "ensuring twice is a no-op")

	key := "documents/user/invoice/INV-2025-0001.pdf"
	exists, err := archive.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, archive.Upload(ctx, key, []byte("%PDF-1.7 test"), "application/pdf"))

	exists, err = archive.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	link, _, err := archive.GenerateDownloadURL(ctx, key, time.Minute)
	require.NoError(t, err)
	resp, err := http.Get(link)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "%PDF-1.7 test", string(body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "INV-2025-0001.pdf")

	require.NoError(t, archive.Delete(ctx, key))
	exists, err = archive.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
