package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	sankeyapi "financial_sankey/pkg/api/sankey"
	"financial_sankey/pkg/config"
	"financial_sankey/pkg/core/report"
	"financial_sankey/pkg/core/source"
	"financial_sankey/pkg/logging"
)

func main() {
	// Load environment variables
	godotenv.Load()

	path := os.Getenv("SANKEY_CONFIG")
	if path == "" {
		path = "config/sankey.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fetcher report.Fetcher
	if cfg.Source.DatabaseURL != "" {
		pool, err := source.Connect(ctx, cfg.Source.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		defer pool.Close()
		fetcher = source.NewPostgresSource(pool, cfg.Scale(), log)
		log.Info("serving statements from postgres")
	} else {
		fetcher = source.NewDirSource(cfg.Source.Dir, cfg.Scale(), log)
		log.WithField("dir", cfg.Source.Dir).Info("serving statements from directory")
	}

	gen := report.NewGenerator(cfg.Settings(), log)
	handler := sankeyapi.NewHandler(gen, fetcher, cfg.Server.CORSOrigin, log)

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.Server.Addr).Info("API server starting")
	log.Info("  - POST /api/generate-sankey")
	log.Info("  - POST /api/generate-all-reports")
	log.Info("  - POST /api/generate-from-table")
	log.Info("  - GET  /api/health")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server failed to start")
	}
}
