// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

// Package runlog persists episode summaries to a local SQLite database so
// policy results can be compared across invocations. Uses WAL mode for
// crash-safe writes.
package runlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the run log at dir/runs.db. Enables WAL mode,
// foreign keys, and a 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create run log dir: %w", err)
	}

	dbPath := filepath.Join(dir, "runs.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id               TEXT PRIMARY KEY,
			created_at       INTEGER NOT NULL,
			policy           TEXT NOT NULL,
			seed             INTEGER NOT NULL,
			workload         TEXT NOT NULL DEFAULT '',
			workers          INTEGER NOT NULL,
			jobs_arrived     INTEGER NOT NULL,
			jobs_completed   INTEGER NOT NULL,
			steps            INTEGER NOT NULL,
			total_reward     REAL NOT NULL,
			makespan         REAL NOT NULL,
			avg_job_duration REAL NOT NULL,
			truncated        BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_policy ON runs(policy)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// A Run is one persisted episode summary.
type Run struct {
	ID             string
	CreatedAt      time.Time
	Policy         string
	Seed           int64
	Workload       string
	Workers        int
	JobsArrived    int
	JobsCompleted  int
	Steps          int
	TotalReward    float64
	Makespan       float64
	AvgJobDuration float64
	Truncated      bool
}

// InsertRun stores one episode summary. A missing ID is filled with a fresh
// UUID and a zero CreatedAt with the current time; both are written back to r.
func (d *DB) InsertRun(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := d.db.Exec(
		`INSERT INTO runs (id, created_at, policy, seed, workload, workers,
			jobs_arrived, jobs_completed, steps, total_reward, makespan,
			avg_job_duration, truncated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.Unix(), r.Policy, r.Seed, r.Workload, r.Workers,
		r.JobsArrived, r.JobsCompleted, r.Steps, r.TotalReward, r.Makespan,
		r.AvgJobDuration, r.Truncated,
	)
	return err
}

// GetRun retrieves a single run by ID, or nil if no such run exists.
func (d *DB) GetRun(id string) (*Run, error) {
	row := d.db.QueryRow(
		`SELECT id, created_at, policy, seed, workload, workers,
			jobs_arrived, jobs_completed, steps, total_reward, makespan,
			avg_job_duration, truncated
		 FROM runs WHERE id = ?`, id,
	)
	return scanRun(row)
}

// ListRuns returns stored runs, newest first. A non-empty policy filters to
// that policy; a positive limit caps the result.
func (d *DB) ListRuns(policy string, limit int) ([]Run, error) {
	query := `SELECT id, created_at, policy, seed, workload, workers,
			jobs_arrived, jobs_completed, steps, total_reward, makespan,
			avg_job_duration, truncated
		 FROM runs`
	var args []any
	if policy != "" {
		query += ` WHERE policy = ?`
		args = append(args, policy)
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// A PolicySummary aggregates all stored runs of one policy.
type PolicySummary struct {
	Policy        string
	Runs          int
	JobsCompleted int
	MeanReward    float64
	MeanMakespan  float64
}

// SummarizeByPolicy aggregates stored runs per policy, best mean reward
// first. Rewards are non-positive, so less negative means better.
func (d *DB) SummarizeByPolicy() ([]PolicySummary, error) {
	rows, err := d.db.Query(
		`SELECT policy, COUNT(*), SUM(jobs_completed), AVG(total_reward), AVG(makespan)
		 FROM runs GROUP BY policy ORDER BY AVG(total_reward) DESC, policy`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []PolicySummary
	for rows.Next() {
		var s PolicySummary
		if err := rows.Scan(&s.Policy, &s.Runs, &s.JobsCompleted, &s.MeanReward, &s.MeanMakespan); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var createdAt int64

	err := s.Scan(&r.ID, &createdAt, &r.Policy, &r.Seed, &r.Workload,
		&r.Workers, &r.JobsArrived, &r.JobsCompleted, &r.Steps,
		&r.TotalReward, &r.Makespan, &r.AvgJobDuration, &r.Truncated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.CreatedAt = time.Unix(createdAt, 0)
	return &r, nil
}
