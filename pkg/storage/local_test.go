package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "/uploads")
	ctx := context.Background()

	url, err := s.UploadFile(ctx, strings.NewReader("png-bytes"), "Cover.PNG", "featured")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/featured/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	onDisk := filepath.Join(dir, strings.TrimPrefix(url, "/uploads/"))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.DeleteFile(ctx, url))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// 再删一次不报错
	assert.NoError(t, s.DeleteFile(ctx, url))
}

func TestLocalStorage_RejectsNonImages(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "/uploads")
	_, err := s.UploadFile(context.Background(), strings.NewReader("x"), "run.sh", "")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLocalStorage_FolderCannotEscape(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "/uploads/")
	url, err := s.UploadFile(context.Background(), strings.NewReader("x"), "a.jpg", "../../etc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/etc/"))
	_, err = os.Stat(filepath.Join(dir, "etc"))
	assert.NoError(t, err)
}

func TestLocalStorage_GetFileURL(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "https://cdn.example.com/static/")
	assert.Equal(t, "https://cdn.example.com/static/a/b.png", s.GetFileURL("/a/b.png"))
}
