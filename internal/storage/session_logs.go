package storage

import (
	"context"
	"fmt"
)

// InsertSessionLog records a completed session.
func (db *DB) InsertSessionLog(ctx context.Context, log SessionLog) error {
	newLogID(&log)
	reps, err := encodeReps(log.Reps)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO session_logs (id, exercise, phase_name, session_index, reps,
		 previous_max, new_max, outcome, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		log.ID, log.Exercise, log.Phase, log.Session, reps,
		log.PreviousMax, log.NewMax, log.Outcome, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting session log: %w", err)
	}
	return nil
}

// QuerySessionLogs returns the most recent session logs for an exercise.
func (db *DB) QuerySessionLogs(ctx context.Context, exercise string, limit int) ([]SessionLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, exercise, phase_name, session_index, reps, previous_max, new_max, outcome, created_at
		 FROM session_logs
		 WHERE exercise = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		exercise, limit)
	if err != nil {
		return nil, fmt.Errorf("querying session logs: %w", err)
	}
	defer rows.Close()

	result := []SessionLog{}
	for rows.Next() {
		var l SessionLog
		var reps []byte
		if err := rows.Scan(&l.ID, &l.Exercise, &l.Phase, &l.Session, &reps,
			&l.PreviousMax, &l.NewMax, &l.Outcome, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session log: %w", err)
		}
		if l.Reps, err = decodeReps(reps); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
