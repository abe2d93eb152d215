package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dkurbatov/catalogkeeper/internal/flagx"
	"github.com/dkurbatov/catalogkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds.
type JsonConfig struct {
	ProjectURL       string         `json:"project_url"`
	APIKey           string         `json:"api_key"`
	DatabaseDSN      string         `json:"database_dsn"`
	ThumbnailBucket  string         `json:"thumbnail_bucket"`
	StorageEndpoint  string         `json:"storage_endpoint"`
	StorageAccessKey string         `json:"storage_access_key"`
	StorageSecretKey string         `json:"storage_secret_key"`
	StorageRegion    string         `json:"storage_region"`
	SessionCachePath string         `json:"session_cache_path"`
	RefreshMargin    timex.Duration `json:"refresh_margin"`
}

// parseJson overlays cfg with values from the JSON file named by the
// -c/-config flags or the CATALOG_CONFIG environment variable. Without a
// path it is a no-op. Empty JSON fields leave the current value in place so
// a partial file only overrides what it names.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigPath()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setIfNotEmpty(&cfg.ProjectURL, jc.ProjectURL)
	setIfNotEmpty(&cfg.APIKey, jc.APIKey)
	setIfNotEmpty(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setIfNotEmpty(&cfg.ThumbnailBucket, jc.ThumbnailBucket)
	setIfNotEmpty(&cfg.StorageEndpoint, jc.StorageEndpoint)
	setIfNotEmpty(&cfg.StorageAccessKey, jc.StorageAccessKey)
	setIfNotEmpty(&cfg.StorageSecretKey, jc.StorageSecretKey)
	setIfNotEmpty(&cfg.StorageRegion, jc.StorageRegion)
	setIfNotEmpty(&cfg.SessionCachePath, jc.SessionCachePath)
	if jc.RefreshMargin.Duration != 0 {
		cfg.RefreshMargin = time.Duration(jc.RefreshMargin.Duration)
	}
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
