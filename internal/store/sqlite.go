// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Checkpoints are rewritten in one transaction with synchronous=FULL for durability

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/2389/switchboard/internal/conversation"
	"github.com/2389/switchboard/internal/routing"
)

// timeFormat is fixed-width so text ordering matches chronological ordering
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path, "journal_mode", mode)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS checkpoints (
			thread_id     TEXT PRIMARY KEY,
			destination   TEXT,
			sentiment     TEXT,
			urgency       TEXT,
			message_count INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_checkpoints_updated
			ON checkpoints(updated_at DESC);

		CREATE TABLE IF NOT EXISTS checkpoint_messages (
			thread_id  TEXT NOT NULL,
			position   INTEGER NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (thread_id, position),
			FOREIGN KEY (thread_id) REFERENCES checkpoints(thread_id) ON DELETE CASCADE,
			CHECK (role IN ('user', 'assistant', 'system')),
			CHECK (position > 0)
		);

		CREATE TABLE IF NOT EXISTS turn_usage (
			id            TEXT PRIMARY KEY,
			thread_id     TEXT NOT NULL,
			request_id    TEXT NOT NULL,
			destination   TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_turn_usage_thread
			ON turn_usage(thread_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies schema changes to databases created by older builds
func (s *SQLiteStore) runMigrations() error {
	// SQLite doesn't support ADD COLUMN IF NOT EXISTS, so we check first
	migrations := []struct {
		table  string
		column string
		apply  string
	}{
		{"checkpoints", "sentiment", `ALTER TABLE checkpoints ADD COLUMN sentiment TEXT`},
		{"checkpoints", "urgency", `ALTER TABLE checkpoints ADD COLUMN urgency TEXT`},
		{"checkpoints", "message_count", `ALTER TABLE checkpoints ADD COLUMN message_count INTEGER NOT NULL DEFAULT 0`},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(`SELECT 1 FROM pragma_table_info(?) WHERE name = ?`, m.table, m.column).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking %s.%s: %w", m.table, m.column, err)
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to %s: %w", m.column, m.table, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", m.table)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load returns the checkpoint for threadID. An unseen thread yields an empty
// checkpoint with no history and no decision. The decision and the messages
// are read in one transaction so they always come from the same Save.
func (s *SQLiteStore) Load(ctx context.Context, threadID string) (*Checkpoint, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cp := &Checkpoint{ThreadID: threadID}

	var destination, sentiment, urgency sql.NullString
	var updatedAtStr string
	err = tx.QueryRowContext(ctx, `
		SELECT destination, sentiment, urgency, updated_at
		FROM checkpoints
		WHERE thread_id = ?
	`, threadID).Scan(&destination, &sentiment, &urgency, &updatedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return cp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying checkpoint: %w", err)
	}

	cp.UpdatedAt, err = time.Parse(timeFormat, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if destination.Valid && destination.String != "" {
		cp.Decision = &routing.Decision{
			Destination: routing.Destination(destination.String),
			Sentiment:   routing.NormalizeSentiment(sentiment.String),
			Urgency:     routing.NormalizeUrgency(urgency.String),
		}
	}

	cp.History, err = loadMessages(ctx, tx, threadID)
	if err != nil {
		return nil, err
	}
	return cp, nil
}

func loadMessages(ctx context.Context, tx *sql.Tx, threadID string) (conversation.History, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT position, role, content, created_at
		FROM checkpoint_messages
		WHERE thread_id = ?
		ORDER BY position ASC
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("querying checkpoint messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history conversation.History
	for rows.Next() {
		var msg conversation.Message
		var role, createdAtStr string
		if err := rows.Scan(&msg.Position, &role, &msg.Content, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		msg.Role = conversation.Role(role)
		msg.CreatedAt, err = time.Parse(timeFormat, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		history = append(history, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}
	return history, nil
}

// Save overwrites the checkpoint for cp.ThreadID in a single transaction.
// The history must be valid: known roles and gap-free positions.
func (s *SQLiteStore) Save(ctx context.Context, cp *Checkpoint) error {
	if cp == nil || strings.TrimSpace(cp.ThreadID) == "" {
		return fmt.Errorf("%w: missing thread id", ErrInvalidCheckpoint)
	}
	if err := cp.History.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCheckpoint, err)
	}

	now := time.Now().UTC()
	updatedAt := cp.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var destination, sentiment, urgency any
	if cp.Decision != nil {
		destination = string(cp.Decision.Destination)
		sentiment = string(cp.Decision.Sentiment)
		urgency = string(cp.Decision.Urgency)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, destination, sentiment, urgency, message_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			destination = excluded.destination,
			sentiment = excluded.sentiment,
			urgency = excluded.urgency,
			message_count = excluded.message_count,
			updated_at = excluded.updated_at
	`,
		cp.ThreadID,
		destination,
		sentiment,
		urgency,
		len(cp.History),
		now.Format(timeFormat),
		updatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("upserting checkpoint: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoint_messages WHERE thread_id = ?`, cp.ThreadID); err != nil {
		return fmt.Errorf("clearing checkpoint messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO checkpoint_messages (thread_id, position, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing message insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	// Timestamps are stored as given, zero included, so Load returns exactly what was saved.
	for _, msg := range cp.History {
		if _, err := stmt.ExecContext(ctx, cp.ThreadID, msg.Position, string(msg.Role), msg.Content, msg.CreatedAt.UTC().Format(timeFormat)); err != nil {
			return fmt.Errorf("inserting message %d: %w", msg.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing checkpoint: %w", err)
	}

	s.logger.Debug("saved checkpoint", "thread_id", cp.ThreadID, "messages", len(cp.History))
	return nil
}

// ListThreads returns thread summaries ordered by most recent update
func (s *SQLiteStore) ListThreads(ctx context.Context, limit int) ([]*ThreadSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id, message_count, destination, updated_at
		FROM checkpoints
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var threads []*ThreadSummary
	for rows.Next() {
		var t ThreadSummary
		var destination sql.NullString
		var updatedAtStr string
		if err := rows.Scan(&t.ThreadID, &t.MessageCount, &destination, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("scanning thread row: %w", err)
		}
		t.LastDestination = routing.Destination(destination.String)
		t.UpdatedAt, err = time.Parse(timeFormat, updatedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		threads = append(threads, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating thread rows: %w", err)
	}

	return threads, nil
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
