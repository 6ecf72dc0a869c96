package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/flexlog/internal/food"
	"github.com/meltforce/flexlog/internal/localstore"
	flexmcp "github.com/meltforce/flexlog/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "FlexLog server URL; reads synced snapshots instead of the local store")
	apiKey := flag.String("api-key", os.Getenv("FLEXLOG_API_KEY"), "API key for -server")
	dir := flag.String("dir", "", "local state directory (default ~/.flexlog)")
	device := flag.String("device", "", "device id (default: the local store's device)")
	fdcKey := flag.String("fdc-api-key", os.Getenv("USDA_FDC_API_KEY"), "FoodData Central API key for local food search")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("flexlog-mcp", Version)
		return
	}

	// stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	stateDir := *dir
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Error("cannot determine home directory", "error", err)
			os.Exit(1)
		}
		stateDir = filepath.Join(home, ".flexlog")
	}

	ctx := context.Background()
	deviceID := *device

	var ds flexmcp.DataSource
	var foods flexmcp.FoodSource

	if *serverURL != "" {
		client := flexmcp.NewHTTPClient(*serverURL, *apiKey)
		ds, foods = client, client
		if deviceID == "" {
			id, err := localDeviceID(ctx, stateDir, log)
			if err != nil {
				log.Error("no -device given and local device id unavailable", "error", err)
				os.Exit(1)
			}
			deviceID = id
		}
		log.Info("using remote snapshots", "server", *serverURL, "device_id", deviceID)
	} else {
		store, err := localstore.Open(stateDir, log)
		if err != nil {
			log.Error("failed to open local store", "dir", stateDir, "error", err)
			os.Exit(1)
		}
		defer store.Close()
		if deviceID == "" {
			if deviceID, err = store.DeviceID(ctx); err != nil {
				log.Error("failed to read device id", "error", err)
				os.Exit(1)
			}
		}
		ds = store

		foods = food.NewService(food.Config{
			FDCAPIKey: *fdcKey,
			UserAgent: os.Getenv("OFF_USER_AGENT"),
		}, nil, nil, nil, log)
		log.Info("using local store", "dir", stateDir, "device_id", deviceID)
	}

	s := flexmcp.New(ds, foods, flexmcp.Options{DeviceID: deviceID}, Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func localDeviceID(ctx context.Context, dir string, log *slog.Logger) (string, error) {
	store, err := localstore.Open(dir, log)
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.DeviceID(ctx)
}
