package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/appauth/internal/logging"
	"github.com/dmitrijs2005/appauth/internal/server"
	"github.com/dmitrijs2005/appauth/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New(os.Stderr, "error").Error(ctx, "config error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, err.Error())
		os.Exit(1)
	}

	app.Run(ctx)

}
