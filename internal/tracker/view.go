package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/liftprog/internal/program"
	"github.com/meltforce/liftprog/internal/progression"
	"github.com/meltforce/liftprog/internal/storage"
)

// SetView is one set of the current session in the display unit.
type SetView struct {
	Set        int     `json:"set"`
	Reps       int     `json:"target_reps"`
	Percentage float64 `json:"percentage"`
	WeightLbs  float64 `json:"weight_lbs"`
	Weight     float64 `json:"weight"`
	Display    string  `json:"display"`
	Completed  string  `json:"completed"`
}

// ExerciseView is everything needed to show the current session.
type ExerciseView struct {
	Name         string           `json:"name"`
	Unit         progression.Unit `json:"unit"`
	MaxWeightLbs float64          `json:"max_weight_lbs"`
	MaxWeight    string           `json:"max_weight"`
	Phase        string           `json:"phase"`
	PhaseNumber  int              `json:"phase_number"`
	PhaseCount   int              `json:"phase_count"`
	Session      int              `json:"session"`
	Sessions     int              `json:"sessions"`
	Sets         []SetView        `json:"sets"`
	Rules        []string         `json:"rules"`
}

// View renders the current session of an exercise in unit. Session and phase
// numbers are 1-based.
func (s *Service) View(ctx context.Context, name string, unit progression.Unit) (ExerciseView, error) {
	ex, err := s.Exercise(ctx, name)
	if err != nil {
		return ExerciseView{}, err
	}
	phase, err := s.catalog.Phase(ex.State.CurrentPhaseName)
	if err != nil {
		return ExerciseView{}, err
	}
	idx, err := s.catalog.Index(phase.Name)
	if err != nil {
		return ExerciseView{}, err
	}
	targets, err := s.engine.Targets(ex.State)
	if err != nil {
		return ExerciseView{}, err
	}

	v := ExerciseView{
		Name:         ex.Name,
		Unit:         unit,
		MaxWeightLbs: ex.State.MaxWeight,
		MaxWeight:    progression.FormatWeight(ex.State.MaxWeight, unit),
		Phase:        phase.Name,
		PhaseNumber:  idx + 1,
		PhaseCount:   s.catalog.Len(),
		Session:      ex.State.CurrentSessionIndex + 1,
		Sessions:     phase.Sessions,
		Sets:         make([]SetView, len(targets)),
		Rules:        make([]string, len(phase.Rules)),
	}
	drafts := ex.State.RepsCompleted.Strings()
	for i, t := range targets {
		v.Sets[i] = SetView{
			Set:        t.Set,
			Reps:       t.Reps,
			Percentage: t.Percentage,
			WeightLbs:  t.Weight,
			Weight:     progression.Convert(t.Weight, unit),
			Display:    fmt.Sprintf("%d reps @ %s", t.Reps, progression.FormatWeight(t.Weight, unit)),
			Completed:  drafts[i],
		}
	}
	for i, r := range phase.Rules {
		v.Rules[i] = r.Describe()
	}
	return v, nil
}

// Message is the text shown to the lifter after a transition.
func Message(r Result, unit progression.Unit) string {
	newMax := progression.FormatWeight(r.NewMax, unit)
	switch r.Outcome {
	case progression.SessionComplete:
		return fmt.Sprintf("Session %d completed for %s! Your new max weight for the next session is %s.",
			r.fromSession+1, r.Exercise, newMax)
	case progression.PhaseSessionsComplete:
		return fmt.Sprintf("Phase %q completed for %s! Your new max weight for the next phase is %s.",
			r.fromPhase, r.Exercise, newMax)
	case progression.PhaseAdvanced:
		return fmt.Sprintf("%s moved on to %s.", r.Exercise, r.Phase)
	case progression.PhaseReverted:
		return fmt.Sprintf("%s moved back to %s.", r.Exercise, r.Phase)
	case progression.ProgramComplete:
		return "Congratulations! You have completed all phases of the program for this exercise!"
	case progression.AlreadyAtFirstPhase:
		return "You are already in the first phase for this exercise."
	default:
		return ""
	}
}

// PhaseInfo is a catalog phase with its rules rendered as text.
type PhaseInfo struct {
	program.PhaseDefinition
	RuleText []string `json:"rule_text"`
}

// PhaseInfos returns the catalog in program order with rule text.
func (s *Service) PhaseInfos() []PhaseInfo {
	phases := s.catalog.Phases()
	out := make([]PhaseInfo, len(phases))
	for i, p := range phases {
		text := make([]string, len(p.Rules))
		for j, r := range p.Rules {
			text[j] = r.Describe()
		}
		out[i] = PhaseInfo{PhaseDefinition: p, RuleText: text}
	}
	return out
}

// ExerciseSummary is one line of the exercise list.
type ExerciseSummary struct {
	Name         string    `json:"name"`
	MaxWeightLbs float64   `json:"max_weight_lbs"`
	MaxWeight    string    `json:"max_weight"`
	Phase        string    `json:"phase"`
	Session      int       `json:"session"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summarize renders stored exercises for a list view in unit.
func Summarize(list []storage.Exercise, unit progression.Unit) []ExerciseSummary {
	out := make([]ExerciseSummary, len(list))
	for i, ex := range list {
		out[i] = ExerciseSummary{
			Name:         ex.Name,
			MaxWeightLbs: ex.State.MaxWeight,
			MaxWeight:    progression.FormatWeight(ex.State.MaxWeight, unit),
			Phase:        ex.State.CurrentPhaseName,
			Session:      ex.State.CurrentSessionIndex + 1,
			UpdatedAt:    ex.UpdatedAt,
		}
	}
	return out
}
