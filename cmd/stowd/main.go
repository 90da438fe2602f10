// stowd — the cargo stowage service.
//
// Serves the placement, retrieval, lifecycle and import/export operations
// over HTTP, persisting state to JSON snapshots in the data directory.
//
// Build:
//
//	go build -o stowd ./cmd/stowd
//
// Run:
//
//	stowd                        # defaults: :8000, ./data
//	stowd -config stowage.yaml
//	STOWAGE_LISTEN_ADDR=:9000 stowd
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orbitlogix/stowage/internal/audit"
	"github.com/orbitlogix/stowage/internal/config"
	"github.com/orbitlogix/stowage/internal/server"
	"github.com/orbitlogix/stowage/internal/service"
	"github.com/orbitlogix/stowage/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(cfg.SnapshotPath())
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	al, err := audit.Open(cfg.AuditLogPath())
	if err != nil {
		logger.Fatal("failed to open audit log", zap.Error(err))
	}

	svc := service.New(st, al, logger)
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.New(svc, logger).Router(cfg.CORSOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
