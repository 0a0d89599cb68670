package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DatabaseOperations provides methods for history reads and writes.
type DatabaseOperations struct {
	db *sql.DB
}

// NewDatabaseOperations creates a new DatabaseOperations instance.
func NewDatabaseOperations(db *sql.DB) *DatabaseOperations {
	return &DatabaseOperations{db: db}
}

// Close closes the underlying database.
func (ops *DatabaseOperations) Close() error {
	if err := ops.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// RecordRun inserts a run and, when present, its post in one transaction.
func (ops *DatabaseOperations) RecordRun(ctx context.Context, run *Run) error {
	tx, err := ops.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, outcome, slot, attempts, source, energy, dry_run, error, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Outcome, run.Slot,
		run.Attempts, run.Source, run.Energy, run.DryRun, run.Error, run.Model)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	if p := run.Post; p != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO posts (post_id, run_id, text, slot, had_image, posted_at, mood)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.PostID, run.ID, p.Text, p.Slot, p.HadImage, p.PostedAt.UTC(), p.Mood)
		if err != nil {
			return fmt.Errorf("failed to insert post %s: %w", p.PostID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first, with their posts attached.
func (ops *DatabaseOperations) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := ops.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.finished_at, r.outcome, r.slot, r.attempts, r.source,
		       r.energy, r.dry_run, r.error, r.model,
		       p.post_id, p.text, p.slot, p.had_image, p.posted_at, p.mood
		FROM runs r
		LEFT JOIN posts p ON p.run_id = r.id
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			run      Run
			postID   sql.NullString
			text     sql.NullString
			slot     sql.NullString
			hadImage sql.NullBool
			postedAt sql.NullTime
			mood     sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Outcome, &run.Slot,
			&run.Attempts, &run.Source, &run.Energy, &run.DryRun, &run.Error, &run.Model,
			&postID, &text, &slot, &hadImage, &postedAt, &mood); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if postID.Valid {
			run.Post = &Post{
				PostID:   postID.String,
				Text:     text.String,
				Slot:     slot.String,
				HadImage: hadImage.Bool,
				PostedAt: postedAt.Time,
				Mood:     mood.String,
			}
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// OutcomeCounts returns the number of runs per outcome started at or after since.
func (ops *DatabaseOperations) OutcomeCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := ops.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM runs WHERE started_at >= ? GROUP BY outcome`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query outcome counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[outcome] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcome counts: %w", err)
	}
	return counts, nil
}
