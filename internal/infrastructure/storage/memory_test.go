package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryArchive(t *testing.T) {
	archive := NewMemoryArchive("https://files.test")
	ctx := context.Background()
	data := []byte("%PDF-1.7")

	require.NoError(t, archive.Upload(ctx, "documents/u/invoice/INV-1.pdf", data, "application/pdf"))
	data[0] = 'X'

	obj, ok := archive.Get("documents/u/invoice/INV-1.pdf")
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.7"), obj.Data, "upload keeps its own copy")
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, 1, archive.Len())

	link, expiresAt, err := archive.GenerateDownloadURL(ctx, "documents/u/invoice/INV-1.pdf", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://files.test/documents/u/invoice/INV-1.pdf?expires="))
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	assert.ErrorIs(t, archive.Upload(ctx, "", data, "application/pdf"), ErrStorageKeyRequired)
}
