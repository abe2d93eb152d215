// Package models defines catalog types shared by repositories, services and
// the CLI.
package models

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Validation errors surfaced to the operator verbatim, so they keep the
// wording of the admin form messages.
var (
	ErrNameRequired  = errors.New("Name is required")
	ErrPriceNegative = errors.New("Price must be zero or more")
	ErrInvalidURL    = errors.New("Must be a valid URL")
)

// Product is one row of the hosted catalog table.
//
// ID and CreatedAt are generated by the database. ThumbnailURL is empty when
// the product has no image; when set it is a public URL into blob storage and
// must point at an object that actually exists (the saga layer in
// services.CatalogService keeps that invariant across create/update/delete).
type Product struct {
	ID             string
	Name           string
	Description    string
	Price          float64
	MarketplaceURL string
	ThumbnailURL   string
	CreatedAt      time.Time
}

// ProductInput carries the operator-editable fields of a product. Construct
// it through NewProductInput / NewProductUpdateInput so the field rules are
// always enforced.
type ProductInput struct {
	Name           string
	Description    string
	Price          float64
	MarketplaceURL string
}

// NewProductInput validates fields for product creation: non-empty name,
// non-negative price, absolute marketplace URL. Description is optional and
// defaults to the empty string.
func NewProductInput(name, description string, price float64, marketplaceURL string) (*ProductInput, error) {
	return newInput(name, description, price, marketplaceURL, false)
}

// NewProductUpdateInput applies the same rules as NewProductInput except that
// the marketplace URL may be left empty to keep the field unset.
func NewProductUpdateInput(name, description string, price float64, marketplaceURL string) (*ProductInput, error) {
	return newInput(name, description, price, marketplaceURL, true)
}

func newInput(name, description string, price float64, marketplaceURL string, allowEmptyURL bool) (*ProductInput, error) {
	in := &ProductInput{
		Name:           strings.TrimSpace(name),
		Description:    description,
		Price:          price,
		MarketplaceURL: marketplaceURL,
	}
	if in.Name == "" {
		return nil, ErrNameRequired
	}
	if in.Price < 0 {
		return nil, ErrPriceNegative
	}
	if in.MarketplaceURL == "" && allowEmptyURL {
		return in, nil
	}
	if !isAbsoluteURL(in.MarketplaceURL) {
		return nil, ErrInvalidURL
	}
	return in, nil
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
