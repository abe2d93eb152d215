// Package products provides the PostgreSQL-backed product catalog
// repository used by the admin client.
package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkurbatov/catalogkeeper/internal/client/models"
	"github.com/dkurbatov/catalogkeeper/internal/dbx"
)

// PostgresRepository implements product storage over the gateway's
// database handle.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository constructs a repository bound to the given handle.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// nullableURL maps the empty string to NULL so "no thumbnail" is stored
// the same way the public site reads it.
func nullableURL(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT id, name, description, price, marketplace_url, thumbnail_url, created_at
		FROM products
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}
	defer rows.Close()

	var result []*models.Product
	for rows.Next() {
		var item models.Product
		var thumb sql.NullString
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Description, &item.Price,
			&item.MarketplaceURL, &thumb, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.ThumbnailURL = thumb.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	query := `
		SELECT id, name, description, price, marketplace_url, thumbnail_url, created_at
		FROM products
		WHERE id = $1
	`
	var item models.Product
	var thumb sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.Price,
		&item.MarketplaceURL, &thumb, &item.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select product: %w", err)
	}
	item.ThumbnailURL = thumb.String
	return &item, nil
}

func (r *PostgresRepository) Create(ctx context.Context, in *models.ProductInput, thumbnailURL string) (*models.Product, error) {
	query := `
		INSERT INTO products (name, description, price, marketplace_url, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	item := models.Product{
		Name:           in.Name,
		Description:    in.Description,
		Price:          in.Price,
		MarketplaceURL: in.MarketplaceURL,
		ThumbnailURL:   thumbnailURL,
	}
	err := r.db.QueryRowContext(ctx, query,
		in.Name, in.Description, in.Price, in.MarketplaceURL, nullableURL(thumbnailURL),
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return &item, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, in *models.ProductInput, thumbnailURL string) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, marketplace_url = $4, thumbnail_url = $5
		WHERE id = $6
		RETURNING id, name, description, price, marketplace_url, thumbnail_url, created_at
	`
	var item models.Product
	var thumb sql.NullString
	err := r.db.QueryRowContext(ctx, query,
		in.Name, in.Description, in.Price, in.MarketplaceURL, nullableURL(thumbnailURL), id,
	).Scan(
		&item.ID, &item.Name, &item.Description, &item.Price,
		&item.MarketplaceURL, &thumb, &item.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	item.ThumbnailURL = thumb.String
	return &item, nil
}

func (r *PostgresRepository) SetThumbnail(ctx context.Context, id string, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET thumbnail_url = $1 WHERE id = $2`,
		nullableURL(url), id)
	if err != nil {
		return fmt.Errorf("failed to update thumbnail: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearThumbnail reads and empties the thumbnail URL in one transaction, so
// the returned value is exactly the URL the row pointed at when it was
// cleared and the caller can delete that blob without racing a save.
func (r *PostgresRepository) ClearThumbnail(ctx context.Context, id string) (string, error) {
	var old string
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var thumb sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT thumbnail_url FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&thumb)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to select thumbnail: %w", err)
		}
		old = thumb.String

		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET thumbnail_url = NULL WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear thumbnail: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return old, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
