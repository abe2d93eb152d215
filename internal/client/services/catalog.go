package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkurbatov/catalogkeeper/internal/client/models"
	"github.com/dkurbatov/catalogkeeper/internal/client/repositories/products"
	"github.com/dkurbatov/catalogkeeper/internal/logging"
)

// CleanupWarning reports a leftover after an otherwise successful save:
// the authoritative write landed, but a best-effort blob cleanup did not.
type CleanupWarning struct {
	Op  string
	Err error
}

func (w *CleanupWarning) String() string {
	return fmt.Sprintf("%s: %v", w.Op, w.Err)
}

// SaveResult is the outcome of a save pipeline. Warning is non-nil when the
// operation succeeded but left an orphaned blob behind.
type SaveResult struct {
	Product *models.Product
	Warning *CleanupWarning
}

// CatalogService composes product rows and thumbnail blobs into save
// pipelines. There is no rollback: each pipeline orders its steps so that a
// mid-way failure leaves at worst an orphaned blob, never a product row
// pointing at a missing image.
type CatalogService interface {
	CreateWithThumbnail(ctx context.Context, in *models.ProductInput, file *models.FileUpload) (*SaveResult, error)
	UpdateWithThumbnail(ctx context.Context, id string, in *models.ProductInput, file *models.FileUpload) (*SaveResult, error)
	ReplaceThumbnail(ctx context.Context, id string, file *models.FileUpload) (*SaveResult, error)
	RemoveThumbnail(ctx context.Context, id string) (*SaveResult, error)
	DeleteWithCleanup(ctx context.Context, id string) (*SaveResult, error)
}

type catalogService struct {
	products   ProductService
	thumbnails ThumbnailService
	log        logging.Logger
}

// NewCatalogService wires the two services into one save surface.
func NewCatalogService(products ProductService, thumbnails ThumbnailService, log logging.Logger) CatalogService {
	return &catalogService{products: products, thumbnails: thumbnails, log: log}
}

// CreateWithThumbnail uploads first so a broken file never creates a row.
// If the insert then fails, the uploaded blob stays orphaned and the insert
// error is surfaced.
func (s *catalogService) CreateWithThumbnail(ctx context.Context, in *models.ProductInput, file *models.FileUpload) (*SaveResult, error) {
	var thumbnailURL string
	if file != nil {
		url, err := s.thumbnails.Upload(ctx, file)
		if err != nil {
			return nil, err
		}
		thumbnailURL = url
	}

	item, err := s.products.Create(ctx, in, thumbnailURL)
	if err != nil {
		if thumbnailURL != "" {
			s.log.Warn(ctx, "insert failed after upload, blob orphaned", "url", thumbnailURL)
		}
		return nil, err
	}
	return &SaveResult{Product: item}, nil
}

// UpdateWithThumbnail uploads the replacement, points the row at it, then
// removes the previous blob. A cleanup failure is reported as a warning; the
// row keeps the new URL either way.
func (s *catalogService) UpdateWithThumbnail(ctx context.Context, id string, in *models.ProductInput, file *models.FileUpload) (*SaveResult, error) {
	existing, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	thumbnailURL := existing.ThumbnailURL
	if file != nil {
		url, err := s.thumbnails.Upload(ctx, file)
		if err != nil {
			return nil, err
		}
		thumbnailURL = url
	}

	item, err := s.products.Update(ctx, id, in, thumbnailURL)
	if err != nil {
		if file != nil {
			s.log.Warn(ctx, "update failed after upload, blob orphaned", "url", thumbnailURL)
		}
		return nil, err
	}

	result := &SaveResult{Product: item}
	if file != nil && existing.ThumbnailURL != "" {
		if err := s.thumbnails.Delete(ctx, existing.ThumbnailURL); err != nil {
			s.log.Warn(ctx, "previous thumbnail not removed", "url", existing.ThumbnailURL, "error", err)
			result.Warning = &CleanupWarning{Op: "delete previous thumbnail", Err: err}
		}
	}
	return result, nil
}

// ReplaceThumbnail uploads a new image and points the row at it without
// touching the other fields, then removes the previous blob best-effort.
func (s *catalogService) ReplaceThumbnail(ctx context.Context, id string, file *models.FileUpload) (*SaveResult, error) {
	existing, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.thumbnails.Upload(ctx, file)
	if err != nil {
		return nil, err
	}

	if err := s.products.SetThumbnail(ctx, id, url); err != nil {
		s.log.Warn(ctx, "thumbnail swap failed after upload, blob orphaned", "url", url)
		return nil, err
	}

	oldURL := existing.ThumbnailURL
	existing.ThumbnailURL = url

	result := &SaveResult{Product: existing}
	if oldURL != "" {
		if err := s.thumbnails.Delete(ctx, oldURL); err != nil {
			s.log.Warn(ctx, "previous thumbnail not removed", "url", oldURL, "error", err)
			result.Warning = &CleanupWarning{Op: "delete previous thumbnail", Err: err}
		}
	}
	return result, nil
}

// RemoveThumbnail clears the row first, then removes the blob best-effort.
func (s *catalogService) RemoveThumbnail(ctx context.Context, id string) (*SaveResult, error) {
	existing, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.ThumbnailURL == "" {
		return &SaveResult{Product: existing}, nil
	}

	oldURL, err := s.products.ClearThumbnail(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.ThumbnailURL = ""

	result := &SaveResult{Product: existing}
	if err := s.thumbnails.Delete(ctx, oldURL); err != nil {
		s.log.Warn(ctx, "thumbnail not removed", "url", oldURL, "error", err)
		result.Warning = &CleanupWarning{Op: "delete thumbnail", Err: err}
	}
	return result, nil
}

// DeleteWithCleanup deletes the row (authoritative) and then the blob
// best-effort. Deleting an id that is already gone succeeds quietly.
func (s *catalogService) DeleteWithCleanup(ctx context.Context, id string) (*SaveResult, error) {
	existing, err := s.products.Get(ctx, id)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			return &SaveResult{}, nil
		}
		return nil, err
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return nil, err
	}

	result := &SaveResult{}
	if existing.ThumbnailURL != "" {
		if err := s.thumbnails.Delete(ctx, existing.ThumbnailURL); err != nil {
			s.log.Warn(ctx, "thumbnail not removed after delete", "url", existing.ThumbnailURL, "error", err)
			result.Warning = &CleanupWarning{Op: "delete thumbnail", Err: err}
		}
	}
	return result, nil
}
