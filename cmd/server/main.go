package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	gemini "fieldwork/internal/adapters/gemini"
	geocode "fieldwork/internal/adapters/geocode"
	httpadapter "fieldwork/internal/adapters/http"
	pg "fieldwork/internal/adapters/postgres"
	"fieldwork/internal/config"
	"fieldwork/internal/logger"
	"fieldwork/internal/ports"
	matchsvc "fieldwork/internal/services/matching"
	policysvc "fieldwork/internal/services/policies"
	wosvc "fieldwork/internal/services/workorders"
	parseworker "fieldwork/internal/workers/parserunner"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("warning: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required for Postgres adapters")
	}

	zlog, err := logger.New(cfg.LogJSON, cfg.Debug)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("db connect error", zap.Error(err))
	}
	defer db.Close()

	var parser ports.WorkOrderParser
	if cfg.GeminiAPIKey != "" {
		generator, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			zlog.Fatal("gemini client error", zap.Error(err))
		}
		parser = gemini.NewParser(generator, zlog)
	} else {
		zlog.Warn("GEMINI_API_KEY not set, work-order parsing disabled")
	}

	geocoder := geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderAPIKey, zlog)

	policies := policysvc.New(db, db, zlog)
	matching := matchsvc.New(db, db, db, db, zlog)
	workOrders := wosvc.New(db, db, parser, geocoder, matching, zlog)

	srv := httpadapter.New(policies, matching, workOrders, db, db, zlog)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	if cfg.ParseWorkers > 0 {
		go parseworker.Run(ctx, db, workOrders, cfg.ParseWorkers, cfg.PollInterval, zlog)
		zlog.Info("parse workers started", zap.Int("workers", cfg.ParseWorkers))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
	zlog.Info("listening", zap.String("addr", cfg.ListenAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
		time.Sleep(300 * time.Millisecond)
	case err := <-errCh:
		zlog.Fatal("server error", zap.Error(err))
	}
}
