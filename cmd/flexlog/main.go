package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/flexlog/internal/config"
	"github.com/meltforce/flexlog/internal/food"
	flexmcp "github.com/meltforce/flexlog/internal/mcp"
	"github.com/meltforce/flexlog/internal/metrics"
	"github.com/meltforce/flexlog/internal/server"
	"github.com/meltforce/flexlog/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const (
	janitorInterval  = time.Hour
	syncLogRetention = 90 * 24 * time.Hour
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("flexlog", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("FlexLog starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Database is optional: without it snapshot sync reports not_configured
	// and food lookups use the in-memory cache only.
	var db *storage.DB
	if cfg.Database.Enabled() {
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err = storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")

		go runJanitor(ctx, db, log)
	} else {
		if *migrateOnly {
			log.Error("migrate-only requires a database")
			os.Exit(1)
		}
		log.Warn("no database configured, snapshot sync disabled")
	}

	// Metrics
	reg := metrics.NewRegistry()
	m := metrics.NewManager("flexlog", "", reg)

	// Food lookups
	var foodStore food.Store
	if db != nil {
		foodStore = db
	}
	cache := food.NewCache(cfg.Food.CacheSizeMB<<20, foodStore, nil, log)
	foods := food.NewService(food.Config{
		FDCBaseURL: cfg.Food.FDCBaseURL,
		FDCAPIKey:  cfg.Food.FDCAPIKey,
		OFFBaseURL: cfg.Food.OFFBaseURL,
		UserAgent:  cfg.Food.UserAgent,
		SearchTTL:  cfg.Food.SearchTTL,
		BarcodeTTL: cfg.Food.BarcodeTTL,
	}, cache, nil, m, log)
	if cfg.Food.FDCAPIKey == "" {
		log.Warn("no FoodData Central API key configured, food search disabled")
	}

	// MCP over streamable HTTP. Clients select the device with X-Device-Id.
	var snapshots server.SnapshotStore
	var states flexmcp.DataSource
	if db != nil {
		snapshots = db
		states = db
	}
	mcpSrv := flexmcp.New(states, foods, flexmcp.Options{
		MinDistinctDays: cfg.Strength.MinDistinctDays,
		MinTotalEntries: cfg.Strength.MinTotalEntries,
	}, Version, log)
	var mcpHandler http.Handler = mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return flexmcp.WithDeviceID(ctx, r.Header.Get("X-Device-Id"))
		}),
	)
	if cfg.Auth.APIKey != "" {
		mcpHandler = server.APIKeyAuth(cfg.Auth.APIKey)(mcpHandler)
	}

	// Create server
	srv := server.New(snapshots, foods, m, server.Options{
		APIKey:          cfg.Auth.APIKey,
		MinDistinctDays: cfg.Strength.MinDistinctDays,
		MinTotalEntries: cfg.Strength.MinTotalEntries,
		Gatherer:        reg,
		MCP:             mcpHandler,
	}, log)

	// Start server, tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr)
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// runJanitor purges expired food cache rows and old sync logs until ctx is
// cancelled.
func runJanitor(ctx context.Context, db *storage.DB, log *slog.Logger) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n, err := db.PurgeExpiredFoodCache(ctx, now); err != nil {
				log.Warn("food cache purge failed", "error", err)
			} else if n > 0 {
				log.Info("purged expired food cache rows", "count", n)
			}
			if n, err := db.DeleteOldSyncLogs(ctx, now.Add(-syncLogRetention)); err != nil {
				log.Warn("sync log cleanup failed", "error", err)
			} else if n > 0 {
				log.Info("deleted old sync logs", "count", n)
			}
		}
	}
}
