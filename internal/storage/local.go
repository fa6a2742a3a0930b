package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage сохраняет загруженные файлы на диск и отдает их
// по публичному префиксу URL.
type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save записывает файл под уникальным именем и возвращает публичный URL.
func (s *LocalStorage) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := sanitizeFilename(filename)
	// UUID-префикс исключает коллизии и перезапись чужих файлов
	stored := uuid.NewString() + "_" + name

	dst, err := os.Create(filepath.Join(s.basePath, stored))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}

	return s.baseURL + "/" + stored, nil
}

// Dir возвращает каталог хранения для монтирования файлового сервера.
func (s *LocalStorage) Dir() string {
	return s.basePath
}

// BaseURL возвращает публичный префикс, по которому отдаются файлы.
func (s *LocalStorage) BaseURL() string {
	return s.baseURL
}

func sanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return name
}
