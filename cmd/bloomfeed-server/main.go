package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/bloomscroll/bloomfeed/config"
	"github.com/bloomscroll/bloomfeed/curation"
	"github.com/bloomscroll/bloomfeed/embed"
	"github.com/bloomscroll/bloomfeed/ingest"
	"github.com/bloomscroll/bloomfeed/logging"
	"github.com/bloomscroll/bloomfeed/monitor"
	"github.com/bloomscroll/bloomfeed/server"
	"github.com/bloomscroll/bloomfeed/store"
	"github.com/bloomscroll/bloomfeed/vector"
)

func main() {
	app := &cli.App{
		Name:  "bloomfeed-server",
		Usage: "serendipity-based feed curation service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				EnvVars: []string{"BLOOMFEED_CONFIG"},
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log := logging.With("main")

	quotas, err := store.NewQuotaStore(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("initialize quota store: %w", err)
	}
	defer quotas.Close()
	log.Info().Msg("quota store initialized")

	cards, err := newCardStore(cfg)
	if err != nil {
		return fmt.Errorf("initialize card store: %w", err)
	}
	defer cards.Close()

	provider := newProvider(cfg)
	log.Info().Str("provider", cfg.Embedding.Provider).Int("dimension", provider.Dimension()).Msg("embedding provider ready")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine, err := curation.NewEngine(cards, quotas, curation.Options{
		Zone:                curation.Zone{Min: cfg.Curation.MinDistance, Max: cfg.Curation.MaxDistance},
		QualityFloor:        cfg.Curation.QualityFloor,
		DailyLimit:          cfg.Curation.DailyLimit,
		MaxPageSize:         cfg.Curation.MaxPageSize,
		CandidateMultiplier: cfg.Curation.CandidateMultiplier,
		SourcePriority:      cfg.SourcePriority(),
		Location:            cfg.Location(),
		QuotaFailMode:       curation.FailMode(cfg.Curation.QuotaFailMode),
		Collector:           monitor.NewPrometheusCollector(registry),
	})
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	srv := server.New(server.Config{
		Engine:      engine,
		Ingestor:    ingest.New(provider, cards),
		Cards:       cards,
		Quotas:      quotas,
		Location:    cfg.Location(),
		CORSOrigins: cfg.Server.CORSOrigins,
		Registry:    registry,
	})

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("bloomfeed server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

func newCardStore(cfg *config.Config) (vector.Store, error) {
	dsn := cfg.Vector.DSN
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return vector.NewPgVectorStore(dsn, cfg.Vector.Dimension)
	}
	logging.Info().Msg("using in-memory card store")
	return vector.NewMemoryStore(), nil
}

func newProvider(cfg *config.Config) embed.Provider {
	ec := embed.Config{
		APIKey:    cfg.Embedding.APIKey,
		BaseURL:   cfg.Embedding.BaseURL,
		Model:     cfg.Embedding.Model,
		Timeout:   cfg.Embedding.Timeout,
		Dimension: cfg.Vector.Dimension,
	}

	switch cfg.Embedding.Provider {
	case "openai":
		return embed.NewOpenAIProvider(ec)
	case "ollama":
		return embed.NewOllamaProvider(ec)
	default:
		return embed.NewHashProvider(cfg.Vector.Dimension)
	}
}
