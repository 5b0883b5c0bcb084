package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"triedb/pkg/api"
	"triedb/pkg/config"
	"triedb/pkg/core"
	"triedb/pkg/logger"
	"triedb/pkg/network"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		slog.Warn("falling back to info level", "error", err)
		level = slog.LevelInfo
	}
	logger.Configure(logger.Options{
		JSON:        cfg.Log.JSON,
		MinLevel:    level,
		LegacyLevel: slog.LevelInfo,
	})

	store, err := core.NewStore(cfg)
	if err != nil {
		slog.Error("open store", "path", cfg.Storage.Path, "error", err)
		os.Exit(1)
	}

	slog.Info("triedb starting",
		"http", cfg.Server.Addr,
		"tcp", cfg.Server.TCPAddr,
		"data", cfg.Storage.Path,
		"precision_step", cfg.Index.PrecisionStep)

	tcp := network.NewTCPServer(store)
	go func() {
		if err := tcp.Start(cfg.Server.TCPAddr); err != nil {
			slog.Error("TCP server stopped", "error", err)
			os.Exit(1)
		}
	}()

	httpServer := api.NewServer(store)
	go func() {
		if err := httpServer.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	tcp.Close()
	if err := store.Close(); err != nil {
		slog.Error("close store", "error", err)
		os.Exit(1)
	}
}
