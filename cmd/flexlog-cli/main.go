package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/meltforce/flexlog/internal/localstore"
	"github.com/meltforce/flexlog/internal/syncclient"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const usage = `Usage: flexlog-cli [flags] <command> [command flags]

Commands:
  device-id   print this device's id
  log-lift    record the working weight for an exercise
  weigh-in    record a bodyweight weigh-in
  strength    show the strength index trend
  classify    show the movement profile for an exercise name
  targets     compute calorie and macro targets
  push        upload the local state to the server
  pull        replace the local state with the server snapshot

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// env carries what every command needs.
type env struct {
	ctx    context.Context
	store  *localstore.Store
	client *syncclient.Client
	out    io.Writer
	log    *slog.Logger
	// autoSync pushes every save in the background when a server is set.
	autoSync bool
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("flexlog-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", "", "local state directory (default ~/.flexlog)")
	serverURL := fs.String("server", os.Getenv("FLEXLOG_SERVER"), "FlexLog server URL for push, pull and auto-sync")
	apiKey := fs.String("api-key", os.Getenv("FLEXLOG_API_KEY"), "API key for -server")
	autoSync := fs.Bool("sync", true, "push changes to -server after each save")
	verbose := fs.Bool("v", false, "debug logging")
	version := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *version {
		fmt.Fprintln(stdout, "flexlog-cli", Version)
		return 0
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	stateDir := *dir
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(stderr, "Error: cannot determine home directory: %v\n", err)
			return 1
		}
		stateDir = filepath.Join(home, ".flexlog")
	}

	store, err := localstore.Open(stateDir, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	e := &env{
		ctx:      context.Background(),
		store:    store,
		out:      stdout,
		log:      log,
		autoSync: *autoSync,
	}
	if *serverURL != "" {
		e.client = syncclient.NewClient(*serverURL, *apiKey)
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	var cmdErr error
	switch cmd {
	case "device-id":
		cmdErr = e.deviceID()
	case "log-lift":
		cmdErr = e.mutating(func() error { return e.logLift(cmdArgs) })
	case "weigh-in":
		cmdErr = e.mutating(func() error { return e.weighIn(cmdArgs) })
	case "strength":
		cmdErr = e.strength(cmdArgs)
	case "classify":
		cmdErr = e.classify(cmdArgs)
	case "targets":
		cmdErr = e.mutating(func() error { return e.targets(cmdArgs) })
	case "push":
		cmdErr = e.push()
	case "pull":
		cmdErr = e.pull()
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}
	if cmdErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", cmdErr)
		return 1
	}
	return 0
}

// mutating runs fn with auto-sync armed, then flushes the pending push.
func (e *env) mutating(fn func() error) error {
	if e.client == nil || !e.autoSync {
		return fn()
	}
	deviceID, err := e.store.DeviceID(e.ctx)
	if err != nil {
		return err
	}
	sched := syncclient.NewScheduler(e.client, deviceID, 0, e.log)
	e.store.OnSave(sched.Schedule)
	defer func() {
		ctx, cancel := context.WithTimeout(e.ctx, 30*time.Second)
		defer cancel()
		sched.Flush(ctx)
	}()
	return fn()
}
