package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_PutDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l, err := NewLocal(dir, "/uploads")
	require.NoError(t, err)
	ctx := context.Background()

	loc, err := l.Put(ctx, "abc.pdf", []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/abc.pdf", loc)

	got, err := os.ReadFile(filepath.Join(dir, "abc.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, l.Delete(ctx, "abc.pdf"))
	_, err = os.Stat(filepath.Join(dir, "abc.pdf"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, l.Delete(ctx, "abc.pdf"))
}

func TestLocal_RejectsTraversal(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = l.Put(context.Background(), "../escape.txt", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.ErrorIs(t, l.Delete(context.Background(), "../escape.txt"), ErrInvalidName)
}

func TestLocal_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Put(ctx, "a.txt", []byte("x"), "text/plain")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
