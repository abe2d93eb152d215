package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dkurbatov/catalogkeeper/internal/client/models"
	"github.com/dkurbatov/catalogkeeper/internal/gateway"
	"github.com/dkurbatov/catalogkeeper/internal/logging"
	"github.com/dkurbatov/catalogkeeper/internal/validate"
)

var (
	// ErrUploadFailed is the operator-facing fallback when the blob store
	// rejects an otherwise valid upload.
	ErrUploadFailed = errors.New("Failed to upload thumbnail.")
	// ErrInvalidThumbnailURL rejects deletion of URLs that do not point
	// into the thumbnail bucket.
	ErrInvalidThumbnailURL = errors.New("Invalid thumbnail URL.")
)

// Bucket is the slice of the gateway's bucket handle the service needs.
type Bucket interface {
	Name() string
	Upload(ctx context.Context, path string, body io.Reader, opts gateway.UploadOptions) error
	PublicURL(path string) string
	Remove(ctx context.Context, paths ...string) error
}

// ThumbnailService owns the blob half of a product's thumbnail.
type ThumbnailService interface {
	// Upload validates the file, stores it under a fresh random name, and
	// returns the public URL.
	Upload(ctx context.Context, f *models.FileUpload) (string, error)
	// Delete removes the blob behind a public URL. An empty URL is a
	// successful no-op.
	Delete(ctx context.Context, url string) error
}

type thumbnailService struct {
	bucket Bucket
	log    logging.Logger

	// newID generates object names; replaced in tests.
	newID func() string
}

// NewThumbnailService constructs a ThumbnailService over the given bucket.
func NewThumbnailService(bucket Bucket, log logging.Logger) ThumbnailService {
	return &thumbnailService{bucket: bucket, log: log, newID: uuid.NewString}
}

func (s *thumbnailService) Upload(ctx context.Context, f *models.FileUpload) (string, error) {
	if err := validate.FileUpload(f); err != nil {
		return "", err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
	if ext == "" {
		ext = "jpg"
	}
	path := fmt.Sprintf("products/%s.%s", s.newID(), ext)

	err := s.bucket.Upload(ctx, path, bytes.NewReader(f.Data), gateway.UploadOptions{
		Upsert:      true,
		ContentType: f.ContentType,
	})
	if err != nil {
		s.log.Error(ctx, "thumbnail upload failed", "path", path, "error", err)
		return "", ErrUploadFailed
	}

	return s.bucket.PublicURL(path), nil
}

func (s *thumbnailService) Delete(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}

	path := gateway.StoragePathFromPublicURL(url, s.bucket.Name())
	if path == "" {
		return ErrInvalidThumbnailURL
	}

	if err := s.bucket.Remove(ctx, path); err != nil {
		return fmt.Errorf("failed to delete thumbnail: %w", err)
	}
	return nil
}
