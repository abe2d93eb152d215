package config

import (
	"flag"
	"os"
	"time"

	"github.com/dkurbatov/catalogkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-u string   project base URL of the hosted backend
//	-k string   anon API key of the auth service
//	-d string   Postgres DSN of the project database
//	-b string   thumbnail bucket name
//	-e string   S3-compatible endpoint of the blob store
//	-p string   path to the local session cache database
//	-m int      token refresh margin in seconds
//
// Note: the function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-k", "-d", "-b", "-e", "-p", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ProjectURL, "u", cfg.ProjectURL, "project base URL")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "anon API key")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.ThumbnailBucket, "b", cfg.ThumbnailBucket, "thumbnail bucket")
	fs.StringVar(&cfg.StorageEndpoint, "e", cfg.StorageEndpoint, "blob store endpoint")
	fs.StringVar(&cfg.SessionCachePath, "p", cfg.SessionCachePath, "session cache path")
	refreshMargin := fs.Int("m", int(cfg.RefreshMargin.Seconds()), "token refresh margin (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RefreshMargin = time.Duration(*refreshMargin) * time.Second
}
