package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meltforce/liftprog/internal/progression"
	"github.com/meltforce/liftprog/internal/storage"
	"github.com/meltforce/liftprog/internal/tracker"
)

const testKey = "test-key"

func newTestServer(t *testing.T) (*Server, *storage.SQLite) {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "liftprog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(tracker.New(nil, store, log), testKey, progression.Pounds, log), store
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if method != http.MethodGet {
		req.Header.Set("X-API-Key", testKey)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return v
}

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale client is configured.
func TestHandleMeDefault(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	info := decode[UserInfo](t, rec)
	if info.Login != "local" || info.DisplayName != "Local Dev User" {
		t.Errorf("info = %+v", info)
	}
}

// TestPhases verifies the catalog is listed in program order with rule text.
func TestPhases(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/phases", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	phases := decode[[]struct {
		Name     string   `json:"name"`
		SetCount int      `json:"set_count"`
		RuleText []string `json:"rule_text"`
	}](t, rec)
	if len(phases) != 4 || phases[0].Name != "Base Phase" || phases[3].Name != "Peak Phase" {
		t.Fatalf("phases = %+v", phases)
	}
	if phases[3].SetCount != 6 {
		t.Errorf("peak sets = %d, want 6", phases[3].SetCount)
	}
	if phases[0].RuleText[2] != "10-11 reps: Increase 5 pounds" {
		t.Errorf("rule text = %q", phases[0].RuleText)
	}
}

// TestExerciseLifecycle walks an exercise through the API: create, view,
// draft, complete, change phase, history and delete.
func TestExerciseLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/exercises", `{"name":"Squat","max_weight":200}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/exercises", "")
	list := decode[[]tracker.ExerciseSummary](t, rec)
	if len(list) != 1 || list[0].Name != "Squat" || list[0].MaxWeight != "200 lbs" || list[0].Session != 1 {
		t.Errorf("list = %+v", list)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/exercises/Squat?unit=kg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("view status = %d", rec.Code)
	}
	view := decode[tracker.ExerciseView](t, rec)
	if view.Unit != progression.Kilograms || view.Sets[0].Display != "10 reps @ 59 kg" {
		t.Errorf("view = %+v", view)
	}

	rec = do(t, s, http.MethodPut, "/api/v1/exercises/Squat/reps", `{"reps":["10",null,""]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("draft status = %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/exercises/Squat/sessions", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete draft status = %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/exercises/Squat/sessions", `{"reps":[10,10,12]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d: %s", rec.Code, rec.Body)
	}
	res := decode[struct {
		Outcome string  `json:"outcome"`
		NewMax  float64 `json:"new_max_lbs"`
		Message string  `json:"message"`
	}](t, rec)
	if res.Outcome != "session_complete" || res.NewMax != 210 {
		t.Errorf("result = %+v", res)
	}
	if res.Message != "Session 1 completed for Squat! Your new max weight for the next session is 210 lbs." {
		t.Errorf("message = %q", res.Message)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/exercises/Squat/phase", `{"direction":"next"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("phase status = %d", rec.Code)
	}
	if got := decode[struct {
		Phase string `json:"phase"`
	}](t, rec); got.Phase != "Strength Phase One" {
		t.Errorf("phase = %q", got.Phase)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/exercises/Squat/history?limit=5", "")
	logs := decode[[]storage.SessionLog](t, rec)
	if len(logs) != 1 || logs[0].NewMax != 210 {
		t.Errorf("history = %+v", logs)
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/exercises/Squat", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/v1/exercises/Squat", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("after delete status = %d, want 404", rec.Code)
	}
}

// TestErrorMapping verifies each error kind gets its documented status and
// kind field.
func TestErrorMapping(t *testing.T) {
	s, store := newTestServer(t)
	do(t, s, http.MethodPost, "/api/v1/exercises", `{"name":"Bench","max_weight":"150"}`)
	store.CreateExercise(context.Background(), "Broken", progression.ExerciseState{
		MaxWeight: 100, CurrentPhaseName: "Deload", RepsCompleted: progression.UnsetReps(3),
	})

	tests := []struct {
		name, method, path, body string
		status                   int
		kind                     string
	}{
		{"blank name", http.MethodPost, "/api/v1/exercises", `{"name":" ","max_weight":100}`, 400, "invalid_input"},
		{"bad weight", http.MethodPost, "/api/v1/exercises", `{"name":"Row","max_weight":-1}`, 400, "invalid_input"},
		{"missing weight", http.MethodPost, "/api/v1/exercises", `{"name":"Row"}`, 400, "invalid_input"},
		{"duplicate", http.MethodPost, "/api/v1/exercises", `{"name":"Bench","max_weight":100}`, 409, "duplicate"},
		{"incomplete", http.MethodPost, "/api/v1/exercises/Bench/sessions", `{"reps":[10,"",10]}`, 400, "invalid_input"},
		{"wrong length", http.MethodPost, "/api/v1/exercises/Bench/sessions", `{"reps":[10,10]}`, 400, "invalid_input"},
		{"missing", http.MethodPost, "/api/v1/exercises/Nope/sessions", `{"reps":[10,10,10]}`, 404, "not_found"},
		{"bad direction", http.MethodPost, "/api/v1/exercises/Bench/phase", `{"direction":"sideways"}`, 400, "invalid_input"},
		{"bad unit", http.MethodGet, "/api/v1/exercises/Bench?unit=stone", "", 400, "invalid_input"},
		{"bad limit", http.MethodGet, "/api/v1/exercises/Bench/history?limit=x", "", 400, "invalid_input"},
		{"unknown phase", http.MethodGet, "/api/v1/exercises/Broken", "", 500, "data_integrity"},
		{"unknown phase transition", http.MethodPost, "/api/v1/exercises/Broken/phase", `{"direction":"next"}`, 500, "data_integrity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			body := decode[map[string]string](t, rec)
			if body["kind"] != tt.kind {
				t.Errorf("kind = %q, want %q", body["kind"], tt.kind)
			}
		})
	}
}

// TestMutationsRequireAPIKey verifies writes are rejected without the key
// while reads stay open.
func TestMutationsRequireAPIKey(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/exercises", strings.NewReader(`{"name":"Squat","max_weight":200}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/exercises", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("read status = %d, want 200", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list body = %q, want []", rec.Body.String())
	}
}
