// Package storage keeps uploaded images, on local disk or on Cloudinary.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Object is a stored file. Path is what Delete takes; URL is public.
type Object struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

type Store interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (Object, error)
	Delete(ctx context.Context, path string) error
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// CleanName builds a unique file name from an uploaded one: repeated image
// extensions and spaces are dropped and a timestamp is prepended.
func CleanName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))

	for {
		e := strings.ToLower(filepath.Ext(base))
		if e == "" || !imageExts[e] {
			break
		}
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = strings.ReplaceAll(strings.TrimSpace(base), " ", "_")
	if base == "" || base == "." {
		base = "image"
	}
	return fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), base, ext)
}

// IsImage reports whether a file name has an image extension.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}
