package storage

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PhotoArchive keeps a copy of every uploaded passport photo on disk.
type PhotoArchive struct {
	dir string
	now func() time.Time
}

// NewPhotoArchive creates the archive directory if needed.
func NewPhotoArchive(dir string) (*PhotoArchive, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &PhotoArchive{dir: dir, now: time.Now}, nil
}

// Save writes data as <userID>_<unix>.<ext> and returns the path.
func (a *PhotoArchive) Save(userID string, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%d%s", sanitize(userID), a.now().Unix(), extension(data))
	path := filepath.Join(a.dir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return path, nil
}

func extension(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	default:
		return ".bin"
	}
}

func sanitize(s string) string {
	if s == "" {
		return "anonymous"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
