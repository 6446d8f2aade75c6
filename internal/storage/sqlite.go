package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftprog/internal/progression"
	_ "modernc.org/sqlite"
)

// SQLite stores exercises in a local database file.
type SQLite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS exercises (
	name           TEXT PRIMARY KEY,
	max_weight     REAL NOT NULL,
	phase_name     TEXT NOT NULL,
	session_index  INTEGER NOT NULL DEFAULT 0,
	reps_completed TEXT NOT NULL DEFAULT '[]',
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS session_logs (
	id            TEXT PRIMARY KEY,
	exercise      TEXT NOT NULL,
	phase_name    TEXT NOT NULL,
	session_index INTEGER NOT NULL,
	reps          TEXT NOT NULL,
	previous_max  REAL NOT NULL,
	new_max       REAL NOT NULL,
	outcome       TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS session_logs_exercise_idx ON session_logs (exercise, created_at);
`

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// sqliteTime is fixed width so text ordering matches time ordering.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTime, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// ListExercises returns every stored exercise in creation order.
func (s *SQLite) ListExercises(ctx context.Context) ([]Exercise, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, max_weight, phase_name, session_index, reps_completed, created_at, updated_at
		 FROM exercises ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	result := []Exercise{}
	for rows.Next() {
		ex, err := scanSQLiteExercise(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ex)
	}
	return result, rows.Err()
}

// GetExercise loads one exercise by name.
func (s *SQLite) GetExercise(ctx context.Context, name string) (Exercise, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, max_weight, phase_name, session_index, reps_completed, created_at, updated_at
		 FROM exercises WHERE name = ?`, name)
	ex, err := scanSQLiteExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Exercise{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return ex, err
}

// CreateExercise inserts a new exercise. A taken name returns ErrDuplicate.
func (s *SQLite) CreateExercise(ctx context.Context, name string, st progression.ExerciseState) error {
	reps, err := encodeReps(st.RepsCompleted)
	if err != nil {
		return err
	}
	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO exercises (name, max_weight, phase_name, session_index, reps_completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (name) DO NOTHING`,
		name, st.MaxWeight, st.CurrentPhaseName, st.CurrentSessionIndex, string(reps), now, now)
	if err != nil {
		return fmt.Errorf("inserting exercise %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	return nil
}

// SaveExercise overwrites the state of an existing exercise.
func (s *SQLite) SaveExercise(ctx context.Context, name string, st progression.ExerciseState) error {
	reps, err := encodeReps(st.RepsCompleted)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE exercises SET max_weight = ?, phase_name = ?, session_index = ?, reps_completed = ?, updated_at = ?
		 WHERE name = ?`,
		st.MaxWeight, st.CurrentPhaseName, st.CurrentSessionIndex, string(reps), formatTime(time.Now()), name)
	if err != nil {
		return fmt.Errorf("updating exercise %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// DeleteExercise removes an exercise and its session logs.
func (s *SQLite) DeleteExercise(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM exercises WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting exercise %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_logs WHERE exercise = ?`, name); err != nil {
		return fmt.Errorf("deleting session logs for %q: %w", name, err)
	}
	return tx.Commit()
}

// InsertSessionLog records a completed session.
func (s *SQLite) InsertSessionLog(ctx context.Context, log SessionLog) error {
	newLogID(&log)
	reps, err := encodeReps(log.Reps)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_logs (id, exercise, phase_name, session_index, reps, previous_max, new_max, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID.String(), log.Exercise, log.Phase, log.Session, string(reps),
		log.PreviousMax, log.NewMax, log.Outcome, formatTime(log.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting session log: %w", err)
	}
	return nil
}

// QuerySessionLogs returns the most recent session logs for an exercise.
func (s *SQLite) QuerySessionLogs(ctx context.Context, exercise string, limit int) ([]SessionLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exercise, phase_name, session_index, reps, previous_max, new_max, outcome, created_at
		 FROM session_logs WHERE exercise = ?
		 ORDER BY created_at DESC LIMIT ?`,
		exercise, limit)
	if err != nil {
		return nil, fmt.Errorf("querying session logs: %w", err)
	}
	defer rows.Close()

	result := []SessionLog{}
	for rows.Next() {
		var l SessionLog
		var id, reps, created string
		if err := rows.Scan(&id, &l.Exercise, &l.Phase, &l.Session, &reps,
			&l.PreviousMax, &l.NewMax, &l.Outcome, &created); err != nil {
			return nil, fmt.Errorf("scanning session log: %w", err)
		}
		if l.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("session log id %q: %w", id, err)
		}
		if l.Reps, err = decodeReps([]byte(reps)); err != nil {
			return nil, err
		}
		if l.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteExercise(row rowScanner) (Exercise, error) {
	var ex Exercise
	var reps, created, updated string
	if err := row.Scan(&ex.Name, &ex.State.MaxWeight, &ex.State.CurrentPhaseName,
		&ex.State.CurrentSessionIndex, &reps, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exercise{}, err
		}
		return Exercise{}, fmt.Errorf("scanning exercise: %w", err)
	}
	var err error
	if ex.State.RepsCompleted, err = decodeReps([]byte(reps)); err != nil {
		return Exercise{}, fmt.Errorf("exercise %q: %w", ex.Name, err)
	}
	if ex.CreatedAt, err = parseTime(created); err != nil {
		return Exercise{}, err
	}
	if ex.UpdatedAt, err = parseTime(updated); err != nil {
		return Exercise{}, err
	}
	return ex, nil
}
