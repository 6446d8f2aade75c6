// Command liftprog-mcp serves the liftprog MCP tools over stdio for desktop
// assistants. It shares the config file and storage of the HTTP server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/liftprog/internal/config"
	liftmcp "github.com/meltforce/liftprog/internal/mcp"
	"github.com/meltforce/liftprog/internal/program"
	"github.com/meltforce/liftprog/internal/storage"
	"github.com/meltforce/liftprog/internal/tracker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrations := flag.String("migrations", "migrations", "path to Postgres migrations")
	flag.Parse()

	// stdout carries the protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	catalog := program.Default()
	if cfg.Program.CatalogPath != "" {
		if catalog, err = program.Load(cfg.Program.CatalogPath); err != nil {
			log.Error("failed to load catalog", "path", cfg.Program.CatalogPath, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.Open(context.Background(), storage.Options{
		Driver:         cfg.Storage.Driver,
		SQLitePath:     cfg.Storage.SQLitePath,
		DSN:            cfg.Database.DSN(),
		MigrationsPath: *migrations,
	})
	if err != nil {
		log.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := tracker.New(catalog, store, log)
	s := liftmcp.New(svc, cfg.DisplayUnit(), Version, log)

	log.Info("mcp stdio server starting", "version", Version, "driver", cfg.Storage.Driver)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("serve MCP", "error", err)
		os.Exit(1)
	}
}
