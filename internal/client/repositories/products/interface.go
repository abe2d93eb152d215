package products

import (
	"context"
	"errors"

	"github.com/dkurbatov/catalogkeeper/internal/client/models"
)

// ErrNotFound is returned when no product row matches the given id.
var ErrNotFound = errors.New("product not found")

type Repository interface {
	// List returns all products, newest first.
	List(ctx context.Context) ([]*models.Product, error)
	// Get returns a single product by id or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Product, error)
	// Create inserts a product and returns it with the generated id and
	// creation time. An empty thumbnailURL stores no thumbnail.
	Create(ctx context.Context, in *models.ProductInput, thumbnailURL string) (*models.Product, error)
	// Update replaces all mutable fields of the row with the given id and
	// returns the updated product, or ErrNotFound.
	Update(ctx context.Context, id string, in *models.ProductInput, thumbnailURL string) (*models.Product, error)
	// SetThumbnail updates only the thumbnail URL; "" clears it.
	SetThumbnail(ctx context.Context, id string, url string) error
	// ClearThumbnail empties the thumbnail URL inside one transaction and
	// returns the URL that was unlinked, or ErrNotFound.
	ClearThumbnail(ctx context.Context, id string) (string, error)
	// Delete removes the row. Deleting an id that no longer exists is not
	// an error.
	Delete(ctx context.Context, id string) error
}
