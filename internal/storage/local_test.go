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

func TestSaveWritesFileAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/uploads/")
	require.NoError(t, err)

	url, err := s.Save(context.Background(), "photo.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/"), "url %q", url)
	assert.True(t, strings.HasSuffix(url, "_photo.jpg"), "url %q", url)

	stored := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, stored))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestSaveUniqueNames(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	first, err := s.Save(context.Background(), "photo.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := s.Save(context.Background(), "photo.jpg", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "photo.jpg", sanitizeFilename("photo.jpg"))
	assert.Equal(t, "passwd", sanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "evil.exe", sanitizeFilename(`C:\temp\evil.exe`))
	assert.Equal(t, "file", sanitizeFilename(""))
	assert.Equal(t, "file", sanitizeFilename(".."))
	// Кириллица и пробелы заменяются подчеркиваниями
	assert.NotContains(t, sanitizeFilename("фото процедуры.jpg"), " ")
}
