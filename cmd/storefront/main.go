package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/query"
	"storefront/internal/remote"
	"storefront/internal/repos"
	"storefront/internal/session"
)

func main() {
	cfg := config.Load()

	applog.SetLevel(cfg.LogLevel)
	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			l := applog.Logger()
			l.Warn().Err(err).Str("file", cfg.LogFile).Msg("could not open log file")
		} else {
			defer f.Close()
			applog.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}
	logger := applog.Logger()

	// Sellers and their sessions always live in the local database.
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data := query.NewClient(logger, query.WithMaxAge(cfg.QueryMaxAge))
	unsubscribe := data.Subscribe(func(inv query.Invalidation) {
		logger.Debug().
			Str("mutation", inv.Mutation).
			Int("dropped", len(inv.Dropped)).
			Msg("query cache invalidated")
	})
	defer unsubscribe()

	switch cfg.Backend {
	case config.BackendRemote:
		rc := remote.New(cfg.RemoteURL, cfg.APIToken, cfg.RemoteTimeout)
		go rc.Watch(ctx, data, cfg.ConnectInterval, logger)
	default:
		if cfg.SeedDemo {
			if err := repos.SeedDemo(db); err != nil {
				logger.Fatal().Err(err).Msg("seed demo catalog")
			}
		}
		data.Bind(repos.NewStore(db))
	}

	deps := handlers.NewDeps(data, repos.NewUserRepo(db), session.NewStore())
	app := handlers.NewApp(deps, handlers.AppOptions{
		CookieSecure: cfg.CookieSecure,
		RateLimit:    60,
		LoginLimit:   5,
		AccessLog:    true,
		APIToken:     cfg.APIToken,
	})
	if cfg.APIToken == "" {
		logger.Warn().Msg("API_TOKEN not set; /api/v1 rejects every call")
	}

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	logger.Info().Str("port", cfg.Port).Str("backend", cfg.Backend).Msg("storefront listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("listen")
	}
}
