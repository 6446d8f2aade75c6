// Package storage persists exercise state and session history. Two backends
// share the same record shape: Postgres (DB) and a local SQLite file (SQLite).
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftprog/internal/progression"
)

var (
	// ErrNotFound is returned when no exercise has the requested name.
	ErrNotFound = errors.New("exercise not found")
	// ErrDuplicate is returned when creating an exercise whose name is taken.
	ErrDuplicate = errors.New("exercise already stored")
)

// Exercise is one stored exercise keyed by its unique name.
type Exercise struct {
	Name      string                    `json:"name"`
	State     progression.ExerciseState `json:"state"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// SessionLog records one completed session.
type SessionLog struct {
	ID          uuid.UUID           `json:"id"`
	Exercise    string              `json:"exercise"`
	Phase       string              `json:"phase"`
	Session     int                 `json:"session_index"`
	Reps        progression.RepList `json:"reps"`
	PreviousMax float64             `json:"previous_max_lbs"`
	NewMax      float64             `json:"new_max_lbs"`
	Outcome     string              `json:"outcome"`
	CreatedAt   time.Time           `json:"created_at"`
}

const defaultLogLimit = 50

func encodeReps(reps progression.RepList) ([]byte, error) {
	data, err := json.Marshal(reps)
	if err != nil {
		return nil, fmt.Errorf("encoding reps: %w", err)
	}
	return data, nil
}

func decodeReps(data []byte) (progression.RepList, error) {
	var reps progression.RepList
	if err := json.Unmarshal(data, &reps); err != nil {
		return nil, fmt.Errorf("decoding reps: %w", err)
	}
	return reps, nil
}

// newLogID assigns an ID and timestamp to a log that has none.
func newLogID(l *SessionLog) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
}
