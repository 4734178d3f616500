package media

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage writes files below root and serves them under urlPrefix.
type LocalStorage struct {
	root      string
	urlPrefix string
	now       func() time.Time
}

func NewLocalStorage(root, urlPrefix string) (*LocalStorage, error) {
	if root == "" {
		root = "./media"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStorage{
		root:      root,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		now:       time.Now,
	}, nil
}

// Root is the directory the HTTP file server should expose.
func (s *LocalStorage) Root() string { return s.root }

func (s *LocalStorage) Save(ctx context.Context, folder string, file File) (string, error) {
	if file.Body == nil {
		return "", ErrInvalidKey
	}
	key := NewKey(folder, file.Filename, s.now())
	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, file.Body); err != nil {
		out.Close()
		_ = os.Remove(target)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return key, nil
}

func (s *LocalStorage) URL(_ context.Context, key string) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	return s.urlPrefix + "/" + key, nil
}
