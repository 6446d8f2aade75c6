// Package tracker runs progression transitions against stored exercises.
// Each call loads one exercise, applies an engine transition and persists the
// result only when something changed.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meltforce/liftprog/internal/program"
	"github.com/meltforce/liftprog/internal/progression"
	"github.com/meltforce/liftprog/internal/storage"
)

// Store is the persistence the tracker needs. Both storage backends satisfy it.
type Store interface {
	ListExercises(ctx context.Context) ([]storage.Exercise, error)
	GetExercise(ctx context.Context, name string) (storage.Exercise, error)
	CreateExercise(ctx context.Context, name string, st progression.ExerciseState) error
	SaveExercise(ctx context.Context, name string, st progression.ExerciseState) error
	DeleteExercise(ctx context.Context, name string) error
	InsertSessionLog(ctx context.Context, log storage.SessionLog) error
	QuerySessionLogs(ctx context.Context, exercise string, limit int) ([]storage.SessionLog, error)
}

var (
	_ Store = (*storage.DB)(nil)
	_ Store = (*storage.SQLite)(nil)
)

// Service is the application entry point shared by the HTTP API and MCP.
type Service struct {
	catalog *program.Catalog
	engine  *progression.Engine
	store   Store
	logger  *slog.Logger
}

// New creates a Service. A nil catalog uses the built-in program.
func New(catalog *program.Catalog, store Store, logger *slog.Logger) *Service {
	if catalog == nil {
		catalog = program.Default()
	}
	return &Service{
		catalog: catalog,
		engine:  progression.NewEngine(catalog),
		store:   store,
		logger:  logger,
	}
}

// Result is the outcome of a transition on one exercise.
type Result struct {
	Exercise    string                    `json:"exercise"`
	Outcome     progression.Outcome       `json:"outcome"`
	Phase       string                    `json:"phase"`
	Session     int                       `json:"session_index"`
	PreviousMax float64                   `json:"previous_max_lbs"`
	NewMax      float64                   `json:"new_max_lbs"`
	State       progression.ExerciseState `json:"state"`

	// fromPhase and fromSession describe the state before the transition.
	fromPhase   string
	fromSession int
}

// ListExercises returns all stored exercises as saved.
func (s *Service) ListExercises(ctx context.Context) ([]storage.Exercise, error) {
	return s.store.ListExercises(ctx)
}

// AddExercise creates an exercise from form input.
func (s *Service) AddExercise(ctx context.Context, name, maxWeight string) (storage.Exercise, error) {
	if strings.TrimSpace(name) == "" {
		return storage.Exercise{}, progression.ErrInvalidName
	}
	weight, err := progression.ParseWeight(maxWeight)
	if err != nil {
		return storage.Exercise{}, err
	}

	stored, err := s.store.ListExercises(ctx)
	if err != nil {
		return storage.Exercise{}, err
	}
	existing := make(map[string]progression.ExerciseState, len(stored))
	for _, ex := range stored {
		existing[ex.Name] = ex.State
	}

	trimmed, st, err := s.engine.InitializeExercise(existing, name, weight)
	if err != nil {
		return storage.Exercise{}, err
	}
	if err := s.store.CreateExercise(ctx, trimmed, st); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return storage.Exercise{}, fmt.Errorf("%w: %q", progression.ErrDuplicateExercise, trimmed)
		}
		return storage.Exercise{}, err
	}

	s.logger.Info("exercise added", "exercise", trimmed, "max_lbs", weight, "phase", st.CurrentPhaseName)
	return s.store.GetExercise(ctx, trimmed)
}

// ImportExercise stores progress carried over from elsewhere. The state is
// checked against the catalog first; a reps list of the wrong size is reset.
func (s *Service) ImportExercise(ctx context.Context, name string, st progression.ExerciseState) (progression.ExerciseState, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return st, progression.ErrInvalidName
	}
	st, err := s.engine.Normalize(st)
	if err != nil {
		return st, err
	}
	if err := s.store.CreateExercise(ctx, trimmed, st); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return st, fmt.Errorf("%w: %q", progression.ErrDuplicateExercise, trimmed)
		}
		return st, err
	}
	s.logger.Info("exercise imported", "exercise", trimmed, "max_lbs", st.MaxWeight, "phase", st.CurrentPhaseName)
	return st, nil
}

// Has reports whether an exercise with the trimmed name is stored.
func (s *Service) Has(ctx context.Context, name string) (bool, error) {
	_, err := s.store.GetExercise(ctx, strings.TrimSpace(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Normalize checks a state against the catalog without storing it.
func (s *Service) Normalize(st progression.ExerciseState) (progression.ExerciseState, error) {
	return s.engine.Normalize(st)
}

// Exercise loads one exercise and checks its state against the catalog.
func (s *Service) Exercise(ctx context.Context, name string) (storage.Exercise, error) {
	ex, err := s.store.GetExercise(ctx, name)
	if err != nil {
		return storage.Exercise{}, err
	}
	st, err := s.engine.Normalize(ex.State)
	if err != nil {
		s.logger.Error("stored exercise unusable", "exercise", name, "error", err)
		return storage.Exercise{}, fmt.Errorf("exercise %q: %w", name, err)
	}
	ex.State = st
	return ex, nil
}

// SaveDraft stores partially entered reps without completing the session.
func (s *Service) SaveDraft(ctx context.Context, name string, reps []string) (progression.ExerciseState, error) {
	ex, err := s.Exercise(ctx, name)
	if err != nil {
		return progression.ExerciseState{}, err
	}
	counts, err := progression.ParseRepCounts(reps)
	if err != nil {
		return ex.State, err
	}
	st, err := s.engine.EnterReps(ex.State, counts)
	if err != nil {
		return ex.State, err
	}
	if err := s.store.SaveExercise(ctx, ex.Name, st); err != nil {
		return ex.State, err
	}
	return st, nil
}

// CompleteSession records one entry per set and applies the progression
// rule. A nil reps slice uses the saved draft.
func (s *Service) CompleteSession(ctx context.Context, name string, reps []string) (Result, error) {
	ex, err := s.Exercise(ctx, name)
	if err != nil {
		return Result{}, err
	}

	counts := []progression.RepCount(ex.State.RepsCompleted)
	if reps != nil {
		if counts, err = progression.ParseRepCounts(reps); err != nil {
			return Result{}, err
		}
	}

	st, outcome, err := s.engine.RecordSession(ex.State, counts)
	if err != nil {
		if errors.Is(err, progression.ErrUncoveredReps) {
			s.logger.Error("progression rule gap", "exercise", ex.Name, "phase", ex.State.CurrentPhaseName, "error", err)
		}
		return Result{}, err
	}
	if err := s.store.SaveExercise(ctx, ex.Name, st); err != nil {
		return Result{}, err
	}

	res := newResult(ex, st, outcome)
	log := storage.SessionLog{
		Exercise:    ex.Name,
		Phase:       ex.State.CurrentPhaseName,
		Session:     ex.State.CurrentSessionIndex,
		Reps:        append(progression.RepList(nil), counts...),
		PreviousMax: ex.State.MaxWeight,
		NewMax:      st.MaxWeight,
		Outcome:     outcome.String(),
	}
	if err := s.store.InsertSessionLog(ctx, log); err != nil {
		s.logger.Warn("session log not written", "exercise", ex.Name, "error", err)
	}

	s.logger.Info("session recorded",
		"exercise", ex.Name,
		"phase", ex.State.CurrentPhaseName,
		"session", ex.State.CurrentSessionIndex+1,
		"previous_max_lbs", ex.State.MaxWeight,
		"new_max_lbs", st.MaxWeight,
		"outcome", outcome,
	)
	return res, nil
}

// ChangePhase moves the exercise one phase in dir. At either end of the
// program nothing is persisted and the outcome says so.
func (s *Service) ChangePhase(ctx context.Context, name string, dir progression.Direction) (Result, error) {
	ex, err := s.Exercise(ctx, name)
	if err != nil {
		return Result{}, err
	}
	st, outcome, err := s.engine.AdvancePhase(ex.State, dir)
	if err != nil {
		return Result{}, err
	}
	if outcome.Changed() {
		if err := s.store.SaveExercise(ctx, ex.Name, st); err != nil {
			return Result{}, err
		}
		s.logger.Info("phase changed", "exercise", ex.Name, "from", ex.State.CurrentPhaseName, "to", st.CurrentPhaseName)
	}
	return newResult(ex, st, outcome), nil
}

// History returns the most recent completed sessions, newest first.
func (s *Service) History(ctx context.Context, name string, limit int) ([]storage.SessionLog, error) {
	if _, err := s.store.GetExercise(ctx, name); err != nil {
		return nil, err
	}
	return s.store.QuerySessionLogs(ctx, name, limit)
}

// RemoveExercise deletes an exercise and its history.
func (s *Service) RemoveExercise(ctx context.Context, name string) error {
	if err := s.store.DeleteExercise(ctx, name); err != nil {
		return err
	}
	s.logger.Info("exercise removed", "exercise", name)
	return nil
}

func newResult(before storage.Exercise, st progression.ExerciseState, outcome progression.Outcome) Result {
	return Result{
		Exercise:    before.Name,
		Outcome:     outcome,
		Phase:       st.CurrentPhaseName,
		Session:     st.CurrentSessionIndex,
		PreviousMax: before.State.MaxWeight,
		NewMax:      st.MaxWeight,
		State:       st,
		fromPhase:   before.State.CurrentPhaseName,
		fromSession: before.State.CurrentSessionIndex,
	}
}

// IsDataIntegrity reports errors caused by stored data or the catalog rather
// than by the caller's input.
func IsDataIntegrity(err error) bool {
	return errors.Is(err, program.ErrPhaseNotFound) ||
		errors.Is(err, progression.ErrCorruptState) ||
		errors.Is(err, progression.ErrUncoveredReps)
}
