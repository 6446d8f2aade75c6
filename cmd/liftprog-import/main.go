package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/meltforce/liftprog/internal/config"
	"github.com/meltforce/liftprog/internal/importer"
	"github.com/meltforce/liftprog/internal/program"
	"github.com/meltforce/liftprog/internal/storage"
	"github.com/meltforce/liftprog/internal/tracker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportPath := flag.String("file", "", "path to the browser export (required)")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to storage")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftprog-import -config config.yaml -file exercises.json [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(*exportPath)
	if err != nil {
		log.Error("cannot open export", "path", *exportPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	// Load config
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

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: nothing will be written to storage")
	}

	store, err := storage.Open(ctx, storage.Options{
		Driver:         cfg.Storage.Driver,
		SQLitePath:     cfg.Storage.SQLitePath,
		DSN:            cfg.Database.DSN(),
		MigrationsPath: "migrations",
	})
	if err != nil {
		log.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage ready", "driver", cfg.Storage.Driver)

	// Run import
	imp := importer.New(tracker.New(catalog, store, log), log, *dryRun)
	stats, err := imp.Import(ctx, f)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"found", stats.Found,
		"imported", stats.Imported,
		"duplicated", stats.Duplicated,
		"errored", stats.Errored,
	)
	if len(stats.Rejected) > 0 {
		log.Info("rejected exercises", "names", stats.Rejected)
	}
}
