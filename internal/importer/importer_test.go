package importer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/meltforce/liftprog/internal/program"
	"github.com/meltforce/liftprog/internal/progression"
	"github.com/meltforce/liftprog/internal/storage"
	"github.com/meltforce/liftprog/internal/tracker"
)

const browserExport = `{
	"Squat": {"maxWeight": 225, "currentPhaseName": "Strength Phase One", "currentSessionIndex": 2, "repsCompleted": "[\"6\",\"\",\"\",\"\"]"},
	"Bench": {"maxWeight": 150, "currentPhaseName": "Base Phase", "currentSessionIndex": 0, "repsCompleted": "[\"\",\"\"]"},
	"Curl":  {"maxWeight": 40, "currentPhaseName": "Pump Phase", "currentSessionIndex": 0, "repsCompleted": "[]"},
	"Row":   {"maxWeight": "heavy"}
}`

func newTestImporter(t *testing.T, dryRun bool) (*Importer, *tracker.Service) {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "liftprog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := tracker.New(nil, store, log)
	return New(svc, log, dryRun), svc
}

// TestImportBrowserExport verifies usable records are stored, string-encoded
// reps are decoded, a wrong-sized reps list is reset and bad records are
// rejected without stopping the run.
func TestImportBrowserExport(t *testing.T) {
	imp, svc := newTestImporter(t, false)
	ctx := context.Background()

	stats, err := imp.Import(ctx, strings.NewReader(browserExport))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Found != 4 || stats.Imported != 2 || stats.Errored != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if want := []string{"Curl", "Row"}; !reflect.DeepEqual(stats.Rejected, want) {
		t.Errorf("rejected = %v, want %v", stats.Rejected, want)
	}

	squat, err := svc.Exercise(ctx, "Squat")
	if err != nil {
		t.Fatal(err)
	}
	if squat.State.CurrentPhaseName != program.StrengthPhaseOne || squat.State.CurrentSessionIndex != 2 {
		t.Errorf("squat state = %+v", squat.State)
	}
	if squat.State.RepsCompleted[0] != progression.Reps(6) || squat.State.RepsCompleted[1].Valid {
		t.Errorf("squat reps = %v", squat.State.RepsCompleted)
	}

	bench, err := svc.Exercise(ctx, "Bench")
	if err != nil {
		t.Fatal(err)
	}
	if len(bench.State.RepsCompleted) != 3 {
		t.Errorf("bench reps len = %d, want reset to 3", len(bench.State.RepsCompleted))
	}
}

// TestImportTwiceSkipsDuplicates verifies a second run leaves tracked
// exercises alone.
func TestImportTwiceSkipsDuplicates(t *testing.T) {
	imp, svc := newTestImporter(t, false)
	ctx := context.Background()
	if _, err := imp.Import(ctx, strings.NewReader(browserExport)); err != nil {
		t.Fatal(err)
	}

	again := New(svc, imp.log, false)
	stats, err := again.Import(ctx, strings.NewReader(browserExport))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Imported != 0 || stats.Duplicated != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestImportDryRun verifies nothing is written in dry-run mode while counts
// still reflect what would be imported.
func TestImportDryRun(t *testing.T) {
	imp, svc := newTestImporter(t, true)
	ctx := context.Background()

	stats, err := imp.Import(ctx, strings.NewReader(browserExport))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Imported != 2 || stats.Errored != 2 {
		t.Errorf("stats = %+v", stats)
	}
	list, err := svc.ListExercises(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("dry run stored %d exercises", len(list))
	}
}

// TestImportDryRunCountsDuplicates verifies a dry run over already tracked
// exercises reports the same counts a real run would.
func TestImportDryRunCountsDuplicates(t *testing.T) {
	imp, svc := newTestImporter(t, false)
	ctx := context.Background()
	if _, err := svc.AddExercise(ctx, "Squat", "200"); err != nil {
		t.Fatal(err)
	}

	dry := New(svc, imp.log, true)
	dryStats, err := dry.Import(ctx, strings.NewReader(browserExport))
	if err != nil {
		t.Fatal(err)
	}
	realStats, err := imp.Import(ctx, strings.NewReader(browserExport))
	if err != nil {
		t.Fatal(err)
	}
	if dryStats.Imported != 1 || dryStats.Duplicated != 1 || dryStats.Errored != 2 {
		t.Errorf("dry run stats = %+v", dryStats)
	}
	if dryStats.Imported != realStats.Imported || dryStats.Duplicated != realStats.Duplicated || dryStats.Errored != realStats.Errored {
		t.Errorf("dry run %+v differs from real run %+v", dryStats, realStats)
	}
}

// TestDecodeLocalStorageDump verifies the wrapped form, where the storage key
// holds the object as a string, is unwrapped.
func TestDecodeLocalStorageDump(t *testing.T) {
	inner := `{"Press":{"maxWeight":95,"currentPhaseName":"Base Phase","currentSessionIndex":1,"repsCompleted":"[\"\",\"\",\"\"]"}}`
	encoded, err := json.Marshal(inner)
	if err != nil {
		t.Fatal(err)
	}
	dump := `{"theme":"dark","` + StorageKey + `":` + string(encoded) + `}`

	records, err := decodeExport(strings.NewReader(dump))
	if err != nil {
		t.Fatalf("decodeExport: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %v", records)
	}
	if _, ok := records["Press"]; !ok {
		t.Errorf("missing Press: %v", records)
	}
}

// TestDecodeInvalid verifies malformed input fails the whole import.
func TestDecodeInvalid(t *testing.T) {
	for _, in := range []string{"", "[]", "not json", `{"` + StorageKey + `":"{broken"}`} {
		if _, err := decodeExport(strings.NewReader(in)); err == nil {
			t.Errorf("decodeExport(%q) succeeded", in)
		}
	}
}
