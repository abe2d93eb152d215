package services

import (
	"context"
	"io"

	"github.com/dkurbatov/catalogkeeper/internal/client/models"
	"github.com/dkurbatov/catalogkeeper/internal/gateway"
)

const validID = "0b9fab2c-9f16-4a2f-8f5e-63d6a5ecf1a0"

// fakeRepo implements products.Repository for service tests.
type fakeRepo struct {
	listItems []*models.Product
	listErr   error

	getItem  *models.Product
	getErr   error
	getCalls int

	created   *models.Product
	createErr error

	updated    *models.Product
	updateErr  error
	updateURLs []string

	setThumbURLs []string
	setThumbErr  error

	clearCalls int
	clearErr   error

	deletedIDs []string
	deleteErr  error
}

func (f *fakeRepo) List(ctx context.Context) ([]*models.Product, error) {
	return f.listItems, f.listErr
}

func (f *fakeRepo) Get(ctx context.Context, id string) (*models.Product, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getItem, nil
}

func (f *fakeRepo) Create(ctx context.Context, in *models.ProductInput, thumbnailURL string) (*models.Product, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created != nil {
		return f.created, nil
	}
	return &models.Product{
		ID:             validID,
		Name:           in.Name,
		Description:    in.Description,
		Price:          in.Price,
		MarketplaceURL: in.MarketplaceURL,
		ThumbnailURL:   thumbnailURL,
	}, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, in *models.ProductInput, thumbnailURL string) (*models.Product, error) {
	f.updateURLs = append(f.updateURLs, thumbnailURL)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updated != nil {
		return f.updated, nil
	}
	return &models.Product{
		ID:             id,
		Name:           in.Name,
		Description:    in.Description,
		Price:          in.Price,
		MarketplaceURL: in.MarketplaceURL,
		ThumbnailURL:   thumbnailURL,
	}, nil
}

func (f *fakeRepo) SetThumbnail(ctx context.Context, id string, url string) error {
	f.setThumbURLs = append(f.setThumbURLs, url)
	return f.setThumbErr
}

func (f *fakeRepo) ClearThumbnail(ctx context.Context, id string) (string, error) {
	f.clearCalls++
	if f.clearErr != nil {
		return "", f.clearErr
	}
	old := ""
	if f.getItem != nil {
		old = f.getItem.ThumbnailURL
	}
	return old, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

type uploadCall struct {
	path string
	opts gateway.UploadOptions
	data []byte
}

// fakeBucket implements Bucket for service tests.
type fakeBucket struct {
	uploads   []uploadCall
	uploadErr error

	removed   []string
	removeErr error
}

func (f *fakeBucket) Name() string { return "product-thumbnails" }

func (f *fakeBucket) Upload(ctx context.Context, path string, body io.Reader, opts gateway.UploadOptions) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.uploads = append(f.uploads, uploadCall{path: path, opts: opts, data: data})
	return f.uploadErr
}

func (f *fakeBucket) PublicURL(path string) string {
	return "https://p.example/storage/v1/object/public/product-thumbnails/" + path
}

func (f *fakeBucket) Remove(ctx context.Context, paths ...string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, paths...)
	return nil
}
