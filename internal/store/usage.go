// ABOUTME: SQLite implementation for per-turn token usage tracking
// ABOUTME: Stores and aggregates model token consumption for committed turns

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/2389/switchboard/internal/routing"
)

// SaveUsage stores a token usage record.
func (s *SQLiteStore) SaveUsage(ctx context.Context, usage *TurnUsage) error {
	query := `
		INSERT INTO turn_usage (
			id, thread_id, request_id, destination,
			input_tokens, output_tokens, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := usage.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		usage.ID,
		usage.ThreadID,
		usage.RequestID,
		string(usage.Destination),
		usage.InputTokens,
		usage.OutputTokens,
		createdAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting usage: %w", err)
	}

	s.logger.Debug("saved token usage",
		"id", usage.ID,
		"thread_id", usage.ThreadID,
		"destination", usage.Destination,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
	)
	return nil
}

// GetThreadUsage retrieves all usage records for a thread, oldest first.
func (s *SQLiteStore) GetThreadUsage(ctx context.Context, threadID string) ([]*TurnUsage, error) {
	query := `
		SELECT id, thread_id, request_id, destination,
		       input_tokens, output_tokens, created_at
		FROM turn_usage
		WHERE thread_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("querying thread usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var usages []*TurnUsage
	for rows.Next() {
		usage, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		usages = append(usages, usage)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating usage rows: %w", err)
	}

	return usages, nil
}

// GetUsageStats returns usage totals across all turns.
func (s *SQLiteStore) GetUsageStats(ctx context.Context) (*UsageStats, error) {
	var stats UsageStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COUNT(*)
		FROM turn_usage
	`).Scan(&stats.TotalInput, &stats.TotalOutput, &stats.TurnCount)
	if err != nil {
		return nil, fmt.Errorf("querying usage stats: %w", err)
	}
	return &stats, nil
}

// scanUsage scans a single usage row into a TurnUsage struct.
func scanUsage(rows *sql.Rows) (*TurnUsage, error) {
	var usage TurnUsage
	var destination, createdAtStr string

	err := rows.Scan(
		&usage.ID,
		&usage.ThreadID,
		&usage.RequestID,
		&destination,
		&usage.InputTokens,
		&usage.OutputTokens,
		&createdAtStr,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning usage row: %w", err)
	}
	usage.Destination = routing.Destination(destination)

	usage.CreatedAt, err = time.Parse(timeFormat, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &usage, nil
}

// Ensure SQLiteStore implements UsageStore interface.
var _ UsageStore = (*SQLiteStore)(nil)
