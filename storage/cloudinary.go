package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore uploads images to Cloudinary. Path is the public id.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudinaryURL string) (*CloudinaryStore, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("cloudinary URL is required")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, folder, filename string, r io.Reader) (Object, error) {
	name := CleanName(filename)
	publicID := strings.TrimSuffix(name, filepath.Ext(name))

	overwrite := false
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       folder,
		Overwrite:    &overwrite,
		ResourceType: "image",
	})
	if err != nil {
		return Object{}, fmt.Errorf("failed to upload image: %w", err)
	}
	if result.Error.Message != "" {
		return Object{}, fmt.Errorf("cloudinary: %s", result.Error.Message)
	}

	url := result.SecureURL
	if url == "" {
		url = result.URL
	}
	return Object{Path: result.PublicID, URL: forceHTTPS(url)}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     path,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func forceHTTPS(in string) string {
	return strings.Replace(strings.TrimSpace(in), "http://", "https://", 1)
}
