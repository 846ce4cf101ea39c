package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes files under Root. They are served by the HTTP server
// at /uploads.
type LocalStore struct {
	Root    string
	BaseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, folder, filename string, r io.Reader) (Object, error) {
	name := CleanName(filename)
	rel := filepath.ToSlash(filepath.Join(folder, name))
	dir := filepath.Join(s.Root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Object{}, fmt.Errorf("create folder: %w", err)
	}

	out, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return Object{}, fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return Object{}, fmt.Errorf("write file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return Object{}, fmt.Errorf("sync file: %w", err)
	}
	return Object{Path: rel, URL: s.BaseURL + "/uploads/" + rel}, nil
}

// Delete removes a stored file. Missing files are ignored.
func (s *LocalStore) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	full := filepath.Join(s.Root, filepath.FromSlash(path))
	if !strings.HasPrefix(full, filepath.Clean(s.Root)+string(os.PathSeparator)) {
		return fmt.Errorf("path %q escapes upload dir", path)
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
