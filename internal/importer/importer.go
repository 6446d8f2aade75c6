// Package importer loads exercises saved by the browser version of the
// tracker. The browser kept every exercise under one localStorage key as a
// JSON object of name to state, with each reps list stored as a JSON string.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/meltforce/liftprog/internal/program"
	"github.com/meltforce/liftprog/internal/progression"
	"github.com/meltforce/liftprog/internal/tracker"
)

// StorageKey is the localStorage key the browser saved exercises under.
const StorageKey = "liftingTrackerExercises"

// Stats tracks import progress.
type Stats struct {
	Found      int
	Imported   int
	Duplicated int
	Errored    int

	Rejected []string
}

// Importer reads a browser export and creates each exercise through the tracker.
type Importer struct {
	svc    *tracker.Service
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer.
func New(svc *tracker.Service, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{svc: svc, log: log, dryRun: dryRun}
}

// Import reads one export. Exercises already tracked are skipped, records
// whose state does not fit the program are rejected, and a storage failure
// stops the run.
func (imp *Importer) Import(ctx context.Context, r io.Reader) (*Stats, error) {
	records, err := decodeExport(r)
	if err != nil {
		return &imp.stats, err
	}
	imp.stats.Found = len(records)

	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := imp.importOne(ctx, name, records[name]); err != nil {
			return &imp.stats, fmt.Errorf("importing %q: %w", name, err)
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importOne(ctx context.Context, name string, raw json.RawMessage) error {
	var st progression.ExerciseState
	if err := json.Unmarshal(raw, &st); err != nil {
		imp.reject(name, err)
		return nil
	}

	if imp.dryRun {
		if _, err := imp.svc.Normalize(st); err != nil {
			imp.reject(name, err)
			return nil
		}
		exists, err := imp.svc.Has(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			imp.log.Info("would skip exercise (already tracked)", "exercise", name)
			imp.stats.Duplicated++
			return nil
		}
		imp.log.Info("would import exercise", "exercise", name, "phase", st.CurrentPhaseName, "max_lbs", st.MaxWeight)
		imp.stats.Imported++
		return nil
	}

	_, err := imp.svc.ImportExercise(ctx, name, st)
	switch {
	case err == nil:
		imp.stats.Imported++
	case errors.Is(err, progression.ErrDuplicateExercise):
		imp.log.Info("skipping exercise (already tracked)", "exercise", name)
		imp.stats.Duplicated++
	case errors.Is(err, progression.ErrInvalidName),
		errors.Is(err, program.ErrPhaseNotFound),
		errors.Is(err, progression.ErrCorruptState):
		imp.reject(name, err)
	default:
		return err
	}
	return nil
}

func (imp *Importer) reject(name string, err error) {
	imp.log.Warn("rejecting exercise", "exercise", name, "error", err)
	imp.stats.Errored++
	imp.stats.Rejected = append(imp.stats.Rejected, name)
}

// decodeExport accepts either the stored object itself or a dump of
// localStorage where StorageKey maps to the object encoded as a string.
func decodeExport(r io.Reader) (map[string]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	var records map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}

	inner, ok := records[StorageKey]
	if !ok {
		return records, nil
	}
	inner = bytes.TrimSpace(inner)
	if len(inner) > 0 && inner[0] == '"' {
		var s string
		if err := json.Unmarshal(inner, &s); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", StorageKey, err)
		}
		inner = []byte(s)
	}
	records = nil
	if err := json.Unmarshal(inner, &records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", StorageKey, err)
	}
	return records, nil
}
