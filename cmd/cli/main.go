package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dkurbatov/catalogkeeper/internal/buildinfo"
	"github.com/dkurbatov/catalogkeeper/internal/client/cli"
	"github.com/dkurbatov/catalogkeeper/internal/client/config"
	"github.com/dkurbatov/catalogkeeper/internal/logging"
)

func main() {
	buildinfo.Print(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
