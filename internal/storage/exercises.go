package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftprog/internal/progression"
)

// ListExercises returns every stored exercise in creation order. An empty
// table yields an empty slice.
func (db *DB) ListExercises(ctx context.Context) ([]Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT name, max_weight, phase_name, session_index, reps_completed, created_at, updated_at
		 FROM exercises
		 ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	result := []Exercise{}
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ex)
	}
	return result, rows.Err()
}

// GetExercise loads one exercise by name.
func (db *DB) GetExercise(ctx context.Context, name string) (Exercise, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT name, max_weight, phase_name, session_index, reps_completed, created_at, updated_at
		 FROM exercises WHERE name = $1`, name)
	ex, err := scanExercise(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Exercise{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return ex, err
}

// CreateExercise inserts a new exercise. A taken name returns ErrDuplicate.
func (db *DB) CreateExercise(ctx context.Context, name string, st progression.ExerciseState) error {
	reps, err := encodeReps(st.RepsCompleted)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO exercises (name, max_weight, phase_name, session_index, reps_completed)
		 VALUES ($1, $2, $3, $4, $5)`,
		name, st.MaxWeight, st.CurrentPhaseName, st.CurrentSessionIndex, reps)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	if err != nil {
		return fmt.Errorf("inserting exercise %q: %w", name, err)
	}
	return nil
}

// SaveExercise overwrites the state of an existing exercise.
func (db *DB) SaveExercise(ctx context.Context, name string, st progression.ExerciseState) error {
	reps, err := encodeReps(st.RepsCompleted)
	if err != nil {
		return err
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercises SET
		 max_weight = $2, phase_name = $3, session_index = $4, reps_completed = $5, updated_at = NOW()
		 WHERE name = $1`,
		name, st.MaxWeight, st.CurrentPhaseName, st.CurrentSessionIndex, reps)
	if err != nil {
		return fmt.Errorf("updating exercise %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// DeleteExercise removes an exercise; its session logs cascade.
func (db *DB) DeleteExercise(ctx context.Context, name string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM exercises WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting exercise %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

func scanExercise(row pgx.Row) (Exercise, error) {
	var ex Exercise
	var reps []byte
	if err := row.Scan(&ex.Name, &ex.State.MaxWeight, &ex.State.CurrentPhaseName,
		&ex.State.CurrentSessionIndex, &reps, &ex.CreatedAt, &ex.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Exercise{}, err
		}
		return Exercise{}, fmt.Errorf("scanning exercise: %w", err)
	}
	decoded, err := decodeReps(reps)
	if err != nil {
		return Exercise{}, fmt.Errorf("exercise %q: %w", ex.Name, err)
	}
	ex.State.RepsCompleted = decoded
	return ex, nil
}
