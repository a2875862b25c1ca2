package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/storydrop/internal/config"
	"github.com/hpungsan/storydrop/internal/db"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := os.Getenv("STORYDROP_HOME")
	if baseDir == "" {
		baseDir = filepath.Join(homeDir, ".storydrop")
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The database file itself is opened lazily by the first operation
	// that needs it; only that first open can fail fatally.
	store := db.NewStore(baseDir, cfg)
	defer store.Close()

	app := newCLIApp(store, cfg)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
