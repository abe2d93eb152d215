// Package services contains the application services of the catalog admin
// client: product CRUD, thumbnail lifecycle, and the save pipelines that
// compose the two against the remote gateway.
package services

import (
	"context"
	"errors"

	"github.com/dkurbatov/catalogkeeper/internal/client/models"
	"github.com/dkurbatov/catalogkeeper/internal/client/repositories/products"
	"github.com/dkurbatov/catalogkeeper/internal/logging"
	"github.com/dkurbatov/catalogkeeper/internal/validate"
)

// ErrInvalidProductID rejects ids that are not UUID v4 before any remote
// call is made. The text is shown to the operator as-is.
var ErrInvalidProductID = errors.New("Invalid product ID format")

// ProductService exposes catalog reads and writes to the CLI.
//
// Contract:
//   - List: all products, newest first; on a gateway error the returned
//     slice is empty but never nil.
//   - Get: id must look like a UUID v4, otherwise fails locally.
//   - Create/Update: validated input plus an already-resolved thumbnail URL.
//   - SetThumbnail: updates only the thumbnail URL; "" clears it.
//   - Delete: removes the row only; blobs are the save pipeline's business.
type ProductService interface {
	List(ctx context.Context) ([]*models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, in *models.ProductInput, thumbnailURL string) (*models.Product, error)
	Update(ctx context.Context, id string, in *models.ProductInput, thumbnailURL string) (*models.Product, error)
	SetThumbnail(ctx context.Context, id string, url string) error
	ClearThumbnail(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

type productService struct {
	repo products.Repository
	log  logging.Logger
}

// NewProductService constructs a ProductService over the given repository.
func NewProductService(repo products.Repository, log logging.Logger) ProductService {
	return &productService{repo: repo, log: log}
}

func (s *productService) List(ctx context.Context) ([]*models.Product, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error(ctx, "product list failed", "error", err)
		return []*models.Product{}, err
	}
	if items == nil {
		items = []*models.Product{}
	}
	return items, nil
}

func (s *productService) Get(ctx context.Context, id string) (*models.Product, error) {
	if !validate.IsValidUUID(id) {
		return nil, ErrInvalidProductID
	}
	return s.repo.Get(ctx, id)
}

func (s *productService) Create(ctx context.Context, in *models.ProductInput, thumbnailURL string) (*models.Product, error) {
	item, err := s.repo.Create(ctx, in, thumbnailURL)
	if err != nil {
		s.log.Error(ctx, "product create failed", "error", err)
		return nil, err
	}
	s.log.Info(ctx, "product created", "id", item.ID)
	return item, nil
}

func (s *productService) Update(ctx context.Context, id string, in *models.ProductInput, thumbnailURL string) (*models.Product, error) {
	item, err := s.repo.Update(ctx, id, in, thumbnailURL)
	if err != nil {
		s.log.Error(ctx, "product update failed", "id", id, "error", err)
		return nil, err
	}
	return item, nil
}

func (s *productService) SetThumbnail(ctx context.Context, id string, url string) error {
	return s.repo.SetThumbnail(ctx, id, url)
}

func (s *productService) ClearThumbnail(ctx context.Context, id string) (string, error) {
	return s.repo.ClearThumbnail(ctx, id)
}

func (s *productService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error(ctx, "product delete failed", "id", id, "error", err)
		return err
	}
	return nil
}
