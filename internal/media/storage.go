// Package media stores uploaded profile pictures and CVs and resolves them to URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("invalid media key")

// File is an upload waiting to be stored.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Storage persists files under opaque keys. URL may return a path relative to the
// server root; callers make it absolute.
type Storage interface {
	Save(ctx context.Context, folder string, file File) (string, error)
	URL(ctx context.Context, key string) (string, error)
}

// NewKey builds folder/yyyy/m/d/<uuid><ext>.
func NewKey(folder, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("%s/%d/%d/%d/%s%s", strings.Trim(folder, "/"), now.Year(), now.Month(), now.Day(), uuid.NewString(), ext)
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	clean := path.Clean(key)
	return clean == key && clean != "." && !strings.HasPrefix(clean, "../") && clean != ".."
}
