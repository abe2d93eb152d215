// Package cli is the interactive admin console of catalogkeeper: a small
// REPL over the catalog services, gated by the auth session.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"

	"github.com/dkurbatov/catalogkeeper/internal/client/config"
	"github.com/dkurbatov/catalogkeeper/internal/client/guard"
	"github.com/dkurbatov/catalogkeeper/internal/client/repositories/authcache"
	"github.com/dkurbatov/catalogkeeper/internal/client/repositories/products"
	"github.com/dkurbatov/catalogkeeper/internal/client/services"
	"github.com/dkurbatov/catalogkeeper/internal/client/session"
	"github.com/dkurbatov/catalogkeeper/internal/gateway"
	"github.com/dkurbatov/catalogkeeper/internal/logging"
)

type App struct {
	config   *config.Config
	log      logging.Logger
	cacheDB  *sql.DB
	gw       *gateway.Client
	sessions *session.Store
	guard    *guard.Guard
	products services.ProductService
	catalog  services.CatalogService
	reader   *bufio.Reader
}

// NewApp wires the whole client: local session cache, remote gateway,
// session store, guard, and the catalog services.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	cacheDB, err := authcache.Open(ctx, cfg.SessionCachePath)
	if err != nil {
		return nil, err
	}
	cache := authcache.NewSQLiteRepository(cacheDB)

	gw, err := gateway.New(ctx, gateway.Config{
		ProjectURL:       cfg.ProjectURL,
		APIKey:           cfg.APIKey,
		DatabaseDSN:      cfg.DatabaseDSN,
		StorageEndpoint:  cfg.StorageEndpoint,
		StorageAccessKey: cfg.StorageAccessKey,
		StorageSecretKey: cfg.StorageSecretKey,
		StorageRegion:    cfg.StorageRegion,
		RefreshMargin:    cfg.RefreshMargin,
	}, log, cache)
	if err != nil {
		_ = cacheDB.Close()
		return nil, err
	}

	sessions := session.NewStore(gw.Auth(), log)
	sessions.Start(ctx)

	productRepo := products.NewPostgresRepository(gw.DB())
	productSvc := services.NewProductService(productRepo, log)
	thumbSvc := services.NewThumbnailService(gw.Bucket(cfg.ThumbnailBucket), log)

	return &App{
		config:   cfg,
		log:      log,
		cacheDB:  cacheDB,
		gw:       gw,
		sessions: sessions,
		guard:    guard.New(sessions),
		products: productSvc,
		catalog:  services.NewCatalogService(productSvc, thumbSvc, log),
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the REPL and blocks until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printlnFn("catalogkeeper CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) Close() {
	a.sessions.Close()
	a.gw.Close()
	_ = a.cacheDB.Close()
}

// Authorize runs the guard for a protected command, waiting out the initial
// session check if it is still in flight.
func (a *App) Authorize(ctx context.Context, destination string) (guard.State, error) {
	d, err := a.guard.Authorize(ctx, destination)
	return d.State, err
}

// status labels the prompt with the current session owner.
func (a *App) status() string {
	if a.sessions.Checking() {
		return "checking"
	}
	if sess := a.sessions.Current(); sess != nil {
		return sess.User.Email
	}
	return "guest"
}
