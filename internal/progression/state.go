package progression

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned for a blank exercise name.
	ErrInvalidName = errors.New("invalid exercise name")
	// ErrInvalidWeight is returned for a max weight that is not a finite positive number.
	ErrInvalidWeight = errors.New("invalid max weight")
	// ErrDuplicateExercise is returned when the name is already tracked.
	ErrDuplicateExercise = errors.New("exercise already exists")
	// ErrIncompleteInput is returned when a set is missing reps or has an invalid count.
	ErrIncompleteInput = errors.New("incomplete rep input")
	// ErrUncoveredReps is returned when no progression rule matches the last set.
	ErrUncoveredReps = errors.New("no progression rule for rep count")
	// ErrCorruptState is returned for persisted state that cannot be used as-is.
	ErrCorruptState = errors.New("corrupt exercise state")
)

// ExerciseState is the persisted progress of one exercise.
type ExerciseState struct {
	MaxWeight           float64 `json:"maxWeight"`
	CurrentPhaseName    string  `json:"currentPhaseName"`
	CurrentSessionIndex int     `json:"currentSessionIndex"`
	RepsCompleted       RepList `json:"repsCompleted"`
}

// Clone returns a copy that shares no memory with s.
func (s ExerciseState) Clone() ExerciseState {
	if s.RepsCompleted != nil {
		s.RepsCompleted = append(RepList(nil), s.RepsCompleted...)
	}
	return s
}

// Outcome describes what a transition did.
type Outcome int

const (
	// SessionComplete: reps recorded, session index advanced within the phase.
	SessionComplete Outcome = iota + 1
	// PhaseSessionsComplete: the final session of the phase was recorded and
	// the session index wrapped to 0. The phase itself is unchanged.
	PhaseSessionsComplete
	// PhaseAdvanced: moved to the next phase.
	PhaseAdvanced
	// PhaseReverted: moved back to the previous phase.
	PhaseReverted
	// ProgramComplete: Next was requested from the last phase. Nothing changed.
	ProgramComplete
	// AlreadyAtFirstPhase: Previous was requested from the first phase. Nothing changed.
	AlreadyAtFirstPhase
)

func (o Outcome) String() string {
	switch o {
	case SessionComplete:
		return "session_complete"
	case PhaseSessionsComplete:
		return "phase_sessions_complete"
	case PhaseAdvanced:
		return "phase_advanced"
	case PhaseReverted:
		return "phase_reverted"
	case ProgramComplete:
		return "program_complete"
	case AlreadyAtFirstPhase:
		return "already_at_first_phase"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Changed reports whether the outcome altered state.
func (o Outcome) Changed() bool {
	return o != ProgramComplete && o != AlreadyAtFirstPhase
}

// MarshalText lets outcomes appear as strings in JSON.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses the names produced by MarshalText.
func (o *Outcome) UnmarshalText(text []byte) error {
	for c := SessionComplete; c <= AlreadyAtFirstPhase; c++ {
		if c.String() == string(text) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Direction selects the phase to move to.
type Direction int

const (
	Next Direction = iota + 1
	Previous
)

// ParseDirection accepts "next" or "previous" (also "prev").
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "next":
		return Next, nil
	case "previous", "prev":
		return Previous, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Previous:
		return "previous"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}
