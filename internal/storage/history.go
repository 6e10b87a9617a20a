package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// History records how each break ended.
type History struct {
	db *sql.DB
}

// BreakRecord is one finished break. Delays counts how often the break was
// extended before it ended.
type BreakRecord struct {
	ID        int64
	CycleID   string
	Outcome   string
	Delays    int
	StartedAt time.Time
	EndedAt   time.Time
}

// Totals aggregates break outcomes.
type Totals struct {
	Completed int
	Skipped   int
}

// OpenHistory opens or creates the history database and applies migrations.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	history := &History{db: db}
	if err := history.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return history, nil
}

// Close closes the underlying database.
func (history *History) Close() error {
	return history.db.Close()
}

func (history *History) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS breaks (
			id INTEGER PRIMARY KEY,
			cycle_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			delays INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_breaks_ended_at ON breaks(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := history.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate history db: %w", err)
		}
	}
	return nil
}

// RecordBreak stores one finished break.
func (history *History) RecordBreak(ctx context.Context, record BreakRecord) (int64, error) {
	result, err := history.db.ExecContext(ctx,
		`INSERT INTO breaks (cycle_id, outcome, delays, started_at, ended_at) VALUES (?, ?, ?, ?, ?)`,
		record.CycleID,
		record.Outcome,
		record.Delays,
		record.StartedAt.UTC().Format(time.RFC3339Nano),
		record.EndedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert break: %w", err)
	}
	return result.LastInsertId()
}

// Recent returns the most recently ended breaks, newest first.
func (history *History) Recent(ctx context.Context, limit int) ([]BreakRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := history.db.QueryContext(ctx,
		`SELECT id, cycle_id, outcome, delays, started_at, ended_at
		 FROM breaks ORDER BY ended_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query breaks: %w", err)
	}
	defer rows.Close()

	var records []BreakRecord
	for rows.Next() {
		var record BreakRecord
		var started, ended string
		if err := rows.Scan(&record.ID, &record.CycleID, &record.Outcome, &record.Delays, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan break: %w", err)
		}
		if record.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if record.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// AggregateTotals counts breaks per outcome.
func (history *History) AggregateTotals(ctx context.Context) (Totals, error) {
	rows, err := history.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM breaks GROUP BY outcome`)
	if err != nil {
		return Totals{}, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	var totals Totals
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return Totals{}, fmt.Errorf("scan totals: %w", err)
		}
		switch outcome {
		case "completed":
			totals.Completed = count
		case "skipped":
			totals.Skipped = count
		}
	}
	return totals, rows.Err()
}
