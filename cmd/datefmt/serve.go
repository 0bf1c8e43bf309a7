package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/datefmt/internal/config"
	"github.com/dmitrymomot/datefmt/internal/server"
	"github.com/dmitrymomot/datefmt/pkg/cache"
	"github.com/dmitrymomot/datefmt/pkg/datefmt"
	"github.com/dmitrymomot/datefmt/pkg/locale"
	"github.com/dmitrymomot/datefmt/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the formatting API over HTTP",
		Long: `Serves the formatting API. Configuration is read from DATEFMT_* environment
variables; see internal/config for the full list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.NewWithSentry(cfg.Log, cfg.Sentry, server.RequestIDExtractor())

	dbOpts := []locale.Option{locale.WithDefaultLocale(cfg.DefaultLocale)}
	if cfg.LocaleDir != "" {
		dbOpts = append(dbOpts, locale.WithDir(os.DirFS(cfg.LocaleDir)))
	}
	db, err := locale.New(dbOpts...)
	if err != nil {
		return err
	}

	engine, err := datefmt.NewCLDREngine(db,
		datefmt.WithDefaultTimeZone(cfg.DefaultTimeZone),
		datefmt.WithEngineLogger(log),
	)
	if err != nil {
		return err
	}
	formatter, err := datefmt.New(datefmt.WithEngine(engine), datefmt.WithLogger(log))
	if err != nil {
		return err
	}
	log.Info("formatter ready",
		slog.Int("locales", len(db.Locales())),
		slog.String("default_locale", db.DefaultLocale()),
		slog.Bool("hour_cycle_supported", formatter.HourCycleSupported()),
	)

	opts := []server.Option{
		server.WithAddress(cfg.Address),
		server.WithLocales(db),
		server.WithLogger(log),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
		server.WithRequestTimeout(cfg.RequestTimeout),
		server.WithCORS(cfg.CORSOrigins...),
	}

	if cfg.RedisURL != "" {
		client, err := cache.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		output := cache.NewRedis[string](client, nil, cache.WithPrefix("datefmt:out"))
		opts = append(opts,
			server.WithOutputCache(output, cfg.OutputCacheTTL),
			server.WithCheck("redis", cache.RedisHealthcheck(client)),
			server.WithShutdownHook(func(context.Context) error { return client.Close() }),
		)
		log.Info("output cache", slog.String("backend", "redis"))
	} else {
		output := cache.NewMemory[string](
			cache.WithMaxEntries(cfg.OutputCacheMaxEntries),
			cache.WithCleanupInterval(cfg.OutputCacheCleanup),
		)
		opts = append(opts,
			server.WithOutputCache(output, cfg.OutputCacheTTL),
			server.WithShutdownHook(func(context.Context) error { return output.Close() }),
		)
		log.Info("output cache", slog.String("backend", "memory"))
	}

	srv, err := server.New(formatter, opts...)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
