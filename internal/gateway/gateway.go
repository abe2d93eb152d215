// Package gateway is the client of the hosted backend project. It bundles the
// three capabilities the admin tool needs: the auth REST API, the project's
// Postgres database and the S3-compatible blob storage endpoint. Nothing in
// this package implements backend behavior; it only reaches it.
package gateway

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/dkurbatov/catalogkeeper/internal/logging"
)

// Config carries everything needed to reach the hosted project.
type Config struct {
	// ProjectURL is the project base URL, e.g. https://abc.supabase.example.
	// Public blob URLs are derived from it.
	ProjectURL string
	// APIKey is the project API key sent with every auth request.
	APIKey string

	// DatabaseDSN is the direct Postgres connection string of the project.
	DatabaseDSN string

	// Storage settings for the S3-compatible endpoint of the blob service.
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageRegion    string

	// RefreshMargin is how long before token expiry a refresh is attempted.
	RefreshMargin time.Duration
}

// Client is the configured gateway handle. Construct it once at process
// start and share it; all methods are safe for concurrent use.
type Client struct {
	cfg  Config
	log  logging.Logger
	auth *AuthClient
	db   *sql.DB
	s3   s3API
}

// New builds the gateway client. Missing credentials are reported with a
// warning but never fail construction; calls made without them fail
// naturally when they reach the backend.
func New(ctx context.Context, cfg Config, log logging.Logger, cache SessionCache) (*Client, error) {
	if cfg.ProjectURL == "" || cfg.APIKey == "" {
		log.Warn(ctx, "gateway credentials are missing; set the project URL and API key in the config file or via flags")
	}
	if cfg.RefreshMargin <= 0 {
		cfg.RefreshMargin = 30 * time.Second
	}

	db, err := openDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	s3c, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg: cfg,
		log: log,
		db:  db,
		s3:  s3c,
	}
	c.auth = newAuthClient(cfg, &http.Client{Timeout: 30 * time.Second}, log, cache)
	return c, nil
}

// Auth returns the authentication capability.
func (c *Client) Auth() *AuthClient { return c.auth }

// DB returns the tabular capability: a database handle on the project's
// Postgres, with the catalog migrations already applied.
func (c *Client) DB() *sql.DB { return c.db }

// Bucket returns a handle on one blob-storage bucket.
func (c *Client) Bucket(name string) *BucketClient {
	return &BucketClient{name: name, api: c.s3, projectURL: c.cfg.ProjectURL}
}

// Close releases the database handle and stops the auth refresher.
func (c *Client) Close() error {
	c.auth.Close()
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
