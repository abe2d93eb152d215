// Package config loads runtime settings for the catalogkeeper CLI.
// Sources are applied in order: defaults, then a JSON file, then
// command-line flags; later sources take precedence.
package config

import "time"

// Config holds runtime settings for the catalogkeeper CLI.
//
// Fields:
//   - ProjectURL/APIKey: base URL and anon key of the hosted backend's
//     auth service; ProjectURL also anchors public storage URLs.
//   - DatabaseDSN: Postgres DSN of the project database.
//   - ThumbnailBucket: blob store bucket holding product thumbnails.
//   - StorageEndpoint/AccessKey/SecretKey/Region: the blob store's
//     S3-compatible endpoint and credentials.
//   - SessionCachePath: local SQLite file persisting the auth session.
//   - RefreshMargin: how long before expiry the access token is renewed.
type Config struct {
	ProjectURL       string
	APIKey           string
	DatabaseDSN      string
	ThumbnailBucket  string
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageRegion    string
	SessionCachePath string
	RefreshMargin    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ThumbnailBucket = "product-thumbnails"
	c.StorageRegion = "us-east-1"
	c.SessionCachePath = "catalogkeeper.db"
	c.RefreshMargin = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
