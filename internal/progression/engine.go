// Package progression implements the per-exercise state machine: target
// weight arithmetic, session recording and phase navigation. Every function
// is pure; callers own persistence.
package progression

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/meltforce/liftprog/internal/program"
)

// MinMaxWeight is the floor for a max weight computed from a session.
const MinMaxWeight = 5.0

// RoundToNearest5 rounds half away from zero to the nearest multiple of 5.
func RoundToNearest5(weight float64) float64 {
	return math.Round(weight/5) * 5
}

// TargetWeight is the working weight for percentage of maxWeight.
func TargetWeight(maxWeight, percentage float64) float64 {
	return RoundToNearest5(maxWeight * percentage / 100)
}

// ParseWeight converts form input to a max weight.
func ParseWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidWeight, s)
	}
	return w, nil
}

// SetTarget is the prescription for one set of the current session.
type SetTarget struct {
	Set        int     `json:"set"`
	Reps       int     `json:"reps"`
	Percentage float64 `json:"percentage"`
	Weight     float64 `json:"weight_lbs"`
}

// Engine runs transitions against one catalog.
type Engine struct {
	catalog *program.Catalog
}

// NewEngine returns an engine bound to catalog.
func NewEngine(catalog *program.Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Catalog returns the catalog the engine was built with.
func (e *Engine) Catalog() *program.Catalog {
	return e.catalog
}

// InitializeExercise validates a new exercise against the existing collection
// and returns its trimmed name and starting state. The max is stored as entered.
func (e *Engine) InitializeExercise(existing map[string]ExerciseState, name string, maxWeight float64) (string, ExerciseState, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ExerciseState{}, ErrInvalidName
	}
	if math.IsNaN(maxWeight) || math.IsInf(maxWeight, 0) || maxWeight <= 0 {
		return "", ExerciseState{}, fmt.Errorf("%w: %v", ErrInvalidWeight, maxWeight)
	}
	if _, ok := existing[name]; ok {
		return "", ExerciseState{}, fmt.Errorf("%w: %q", ErrDuplicateExercise, name)
	}

	first := e.catalog.First()
	return name, ExerciseState{
		MaxWeight:           maxWeight,
		CurrentPhaseName:    first.Name,
		CurrentSessionIndex: 0,
		RepsCompleted:       UnsetReps(first.SetCount),
	}, nil
}

// Targets returns the weight and reps for each set of the current phase.
func (e *Engine) Targets(st ExerciseState) ([]SetTarget, error) {
	phase, err := e.catalog.Phase(st.CurrentPhaseName)
	if err != nil {
		return nil, err
	}
	out := make([]SetTarget, phase.SetCount)
	for i, pct := range phase.Percentages {
		out[i] = SetTarget{
			Set:        i + 1,
			Reps:       phase.Reps.Target(i),
			Percentage: pct,
			Weight:     TargetWeight(st.MaxWeight, pct),
		}
	}
	return out, nil
}

// EnterReps stores an in-progress entry. Unset entries are allowed; the list
// must match the phase's set count.
func (e *Engine) EnterReps(st ExerciseState, reps []RepCount) (ExerciseState, error) {
	phase, err := e.catalog.Phase(st.CurrentPhaseName)
	if err != nil {
		return st, err
	}
	if len(reps) != phase.SetCount {
		return st, fmt.Errorf("%w: got %d entries for %d sets", ErrIncompleteInput, len(reps), phase.SetCount)
	}
	for i, r := range reps {
		if r.Valid && r.Value < 0 {
			return st, fmt.Errorf("%w: set %d is negative", ErrIncompleteInput, i+1)
		}
	}
	next := st.Clone()
	next.RepsCompleted = append(RepList(nil), reps...)
	return next, nil
}

// NextMaxWeight applies the phase rule matching the last set's reps. The
// result never drops below MinMaxWeight.
func NextMaxWeight(phase program.PhaseDefinition, maxWeight float64, lastSetReps int) (float64, error) {
	rule, ok := phase.RuleFor(lastSetReps)
	if !ok {
		return maxWeight, fmt.Errorf("%w: %d reps in %s", ErrUncoveredReps, lastSetReps, phase.Name)
	}
	return math.Max(MinMaxWeight, RoundToNearest5(maxWeight+rule.WeightChange)), nil
}

// RecordSession completes the current session with one entry per set. On any
// error the returned state is st unchanged.
func (e *Engine) RecordSession(st ExerciseState, reps []RepCount) (ExerciseState, Outcome, error) {
	phase, err := e.catalog.Phase(st.CurrentPhaseName)
	if err != nil {
		return st, 0, err
	}
	if len(reps) != phase.SetCount {
		return st, 0, fmt.Errorf("%w: got %d entries for %d sets", ErrIncompleteInput, len(reps), phase.SetCount)
	}
	for i, r := range reps {
		if !r.Valid {
			return st, 0, fmt.Errorf("%w: set %d has no reps", ErrIncompleteInput, i+1)
		}
		if r.Value < 0 {
			return st, 0, fmt.Errorf("%w: set %d is negative", ErrIncompleteInput, i+1)
		}
	}

	newMax, err := NextMaxWeight(phase, st.MaxWeight, reps[len(reps)-1].Value)
	if err != nil {
		return st, 0, err
	}

	next := st.Clone()
	next.MaxWeight = newMax
	next.RepsCompleted = UnsetReps(phase.SetCount)

	if st.CurrentSessionIndex >= phase.Sessions-1 {
		next.CurrentSessionIndex = 0
		return next, PhaseSessionsComplete, nil
	}
	next.CurrentSessionIndex++
	return next, SessionComplete, nil
}

// AdvancePhase moves one phase forward or back. At either end of the catalog
// the state is returned unchanged with an informational outcome.
func (e *Engine) AdvancePhase(st ExerciseState, dir Direction) (ExerciseState, Outcome, error) {
	idx, err := e.catalog.Index(st.CurrentPhaseName)
	if err != nil {
		return st, 0, err
	}

	var target int
	switch dir {
	case Next:
		target = idx + 1
	case Previous:
		target = idx - 1
	default:
		return st, 0, fmt.Errorf("unknown direction %v", dir)
	}

	phase, ok := e.catalog.At(target)
	if !ok {
		if dir == Next {
			return st, ProgramComplete, nil
		}
		return st, AlreadyAtFirstPhase, nil
	}

	next := st.Clone()
	next.CurrentPhaseName = phase.Name
	next.CurrentSessionIndex = 0
	next.RepsCompleted = UnsetReps(phase.SetCount)
	if dir == Next {
		return next, PhaseAdvanced, nil
	}
	return next, PhaseReverted, nil
}

// Normalize checks state loaded from storage. A reps list of the wrong size
// is reset to all unset; an unknown phase or out-of-range session is an error.
func (e *Engine) Normalize(st ExerciseState) (ExerciseState, error) {
	phase, err := e.catalog.Phase(st.CurrentPhaseName)
	if err != nil {
		return st, err
	}
	if st.CurrentSessionIndex < 0 || st.CurrentSessionIndex >= phase.Sessions {
		return st, fmt.Errorf("%w: session %d outside 0-%d for %s",
			ErrCorruptState, st.CurrentSessionIndex, phase.Sessions-1, phase.Name)
	}
	if !(st.MaxWeight > 0) || math.IsInf(st.MaxWeight, 0) {
		return st, fmt.Errorf("%w: max weight %v", ErrCorruptState, st.MaxWeight)
	}
	next := st.Clone()
	if len(next.RepsCompleted) != phase.SetCount {
		next.RepsCompleted = UnsetReps(phase.SetCount)
	}
	return next, nil
}
