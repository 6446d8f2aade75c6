package storage

import (
	"context"
	"fmt"

	"github.com/meltforce/liftprog/internal/progression"
)

// Backend is the method set both stores implement.
type Backend interface {
	ListExercises(ctx context.Context) ([]Exercise, error)
	GetExercise(ctx context.Context, name string) (Exercise, error)
	CreateExercise(ctx context.Context, name string, st progression.ExerciseState) error
	SaveExercise(ctx context.Context, name string, st progression.ExerciseState) error
	DeleteExercise(ctx context.Context, name string) error
	InsertSessionLog(ctx context.Context, log SessionLog) error
	QuerySessionLogs(ctx context.Context, exercise string, limit int) ([]SessionLog, error)
	Close() error
}

var (
	_ Backend = (*DB)(nil)
	_ Backend = (*SQLite)(nil)
)

// Options selects and locates a backend.
type Options struct {
	Driver         string // "sqlite" or "postgres"
	SQLitePath     string
	DSN            string
	MigrationsPath string
}

// Open connects the configured backend. Postgres migrations are applied first.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Driver {
	case "sqlite":
		s, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		if err := RunMigrations(opts.DSN, opts.MigrationsPath); err != nil {
			return nil, err
		}
		db, err := New(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
