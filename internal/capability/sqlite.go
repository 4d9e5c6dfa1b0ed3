// ABOUTME: SQLite-backed capability provider for the demo member records
// ABOUTME: Implements lookups, tier changes, bookings, cancellations, and knowledge search

package capability

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

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecords implements Provider over a SQLite database.
type SQLiteRecords struct {
	db     *sql.DB
	cache  *searchCache
	policy RetentionPolicy
	logger *slog.Logger
}

// RecordsOptions configure SQLiteRecords.
type RecordsOptions struct {
	CacheTTL time.Duration
	Policy   *RetentionPolicy // nil uses DefaultRetentionPolicy
	Logger   *slog.Logger
}

// NewSQLiteRecords opens (or creates) the records database at path.
func NewSQLiteRecords(path string, opts RecordsOptions) (*SQLiteRecords, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "records")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating records directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening records database: %w", err)
	}

	cache, err := newSearchCache(opts.CacheTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating search cache: %w", err)
	}

	policy := DefaultRetentionPolicy
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	r := &SQLiteRecords{db: db, cache: cache, policy: policy, logger: logger}
	if err := r.createSchema(); err != nil {
		r.Close()
		return nil, fmt.Errorf("creating records schema: %w", err)
	}

	logger.Info("records store initialized", "path", path)
	return r, nil
}

func (r *SQLiteRecords) createSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id    TEXT PRIMARY KEY,
			full_name  TEXT NOT NULL,
			email      TEXT NOT NULL UNIQUE COLLATE NOCASE,
			is_blocked INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS subscriptions (
			subscription_id TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL UNIQUE REFERENCES users(user_id),
			status          TEXT NOT NULL,
			tier            TEXT NOT NULL,
			monthly_quota   INTEGER NOT NULL,
			started_at      TEXT NOT NULL,
			ended_at        TEXT
		);

		CREATE TABLE IF NOT EXISTS experiences (
			experience_id   TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			location        TEXT NOT NULL DEFAULT '',
			starts_at       TEXT NOT NULL,
			slots_available INTEGER NOT NULL,
			is_premium      INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS reservations (
			reservation_id TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users(user_id),
			experience_id  TEXT NOT NULL REFERENCES experiences(experience_id),
			status         TEXT NOT NULL,
			created_at     TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id);

		CREATE TABLE IF NOT EXISTS knowledge (
			article_id TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			tags       TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

// Close releases the database and cache.
func (r *SQLiteRecords) Close() error {
	r.cache.close()
	return r.db.Close()
}

// LookupUser finds a member by email.
func (r *SQLiteRecords) LookupUser(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, Fail(CodeInvalidArgument, "email is required")
	}

	var u User
	var blocked int
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, full_name, email, is_blocked FROM users WHERE email = ?
	`, email).Scan(&u.UserID, &u.FullName, &u.Email, &blocked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Fail(CodeUserNotFound, "User not found")
	}
	if err != nil {
		return nil, unavailable("lookup user", err)
	}
	u.IsBlocked = blocked != 0
	return &u, nil
}

// SubscriptionStatus returns the member's current plan.
func (r *SQLiteRecords) SubscriptionStatus(ctx context.Context, userID string) (*Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, Fail(CodeInvalidArgument, "user_id is required")
	}

	var s Subscription
	var endedAt sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT status, tier, monthly_quota, ended_at FROM subscriptions WHERE user_id = ?
	`, userID).Scan(&s.Status, &s.Tier, &s.MonthlyQuota, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Fail(CodeSubscriptionNotFound, "No subscription found")
	}
	if err != nil {
		return nil, unavailable("subscription status", err)
	}
	s.ExpiresAt = "Auto-renew"
	if endedAt.Valid && endedAt.String != "" {
		s.ExpiresAt = endedAt.String
	}
	return &s, nil
}

// UpdateSubscription moves a member to a new tier and resets the quota.
func (r *SQLiteRecords) UpdateSubscription(ctx context.Context, userID, tier string) (*TierChange, error) {
	tier = strings.ToLower(strings.TrimSpace(tier))
	if strings.TrimSpace(userID) == "" {
		return nil, Fail(CodeInvalidArgument, "user_id is required")
	}
	if tier != TierBasic && tier != TierElite {
		return nil, Fail(CodeInvalidArgument, "tier must be %q or %q", TierBasic, TierElite)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("update subscription", err)
	}
	defer func() { _ = tx.Rollback() }()

	var oldTier string
	err = tx.QueryRowContext(ctx, `SELECT tier FROM subscriptions WHERE user_id = ?`, userID).Scan(&oldTier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Fail(CodeSubscriptionNotFound, "Subscription not found")
	}
	if err != nil {
		return nil, unavailable("update subscription", err)
	}

	quota := QuotaForTier(tier)
	if _, err := tx.ExecContext(ctx, `
		UPDATE subscriptions SET tier = ?, monthly_quota = ? WHERE user_id = ?
	`, tier, quota, userID); err != nil {
		return nil, unavailable("update subscription", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("update subscription", err)
	}

	r.logger.Info("subscription tier changed", "user_id", userID, "old_tier", oldTier, "new_tier", tier)
	return &TierChange{
		Status:       "success",
		OldTier:      oldTier,
		NewTier:      tier,
		MonthlyQuota: quota,
		Message:      fmt.Sprintf("Changed from %s to %s. Quota updated to %d.", oldTier, tier, quota),
	}, nil
}

// ListReservations returns every reservation a member holds, newest first.
func (r *SQLiteRecords) ListReservations(ctx context.Context, userID string) ([]Reservation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, Fail(CodeInvalidArgument, "user_id is required")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT r.reservation_id, r.status, COALESCE(e.title, 'Unknown'), COALESCE(e.starts_at, 'Unknown')
		FROM reservations r
		LEFT JOIN experiences e ON e.experience_id = r.experience_id
		WHERE r.user_id = ?
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, unavailable("list reservations", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Reservation{}
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.ReservationID, &res.Status, &res.Class, &res.When); err != nil {
			return nil, unavailable("list reservations", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list reservations", err)
	}
	return out, nil
}

// BookReservation reserves a slot in an experience.
// Fails with experience_not_found, class_full, or already_booked.
func (r *SQLiteRecords) BookReservation(ctx context.Context, userID, experienceID string) (*Booking, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(experienceID) == "" {
		return nil, Fail(CodeInvalidArgument, "user_id and experience_id are required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("book reservation", err)
	}
	defer func() { _ = tx.Rollback() }()

	var title string
	var slots int
	err = tx.QueryRowContext(ctx, `
		SELECT title, slots_available FROM experiences WHERE experience_id = ?
	`, experienceID).Scan(&title, &slots)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Fail(CodeExperienceNotFound, "Experience not found")
	}
	if err != nil {
		return nil, unavailable("book reservation", err)
	}
	if slots < 1 {
		return nil, Fail(CodeClassFull, "Class is full")
	}

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE user_id = ? AND experience_id = ? AND status != 'cancelled'
	`, userID, experienceID).Scan(&existing)
	if err != nil {
		return nil, unavailable("book reservation", err)
	}
	if existing > 0 {
		return nil, Fail(CodeAlreadyBooked, "User already booked this class")
	}

	id := NewReservationID()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reservations (reservation_id, user_id, experience_id, status, created_at)
		VALUES (?, ?, ?, 'confirmed', ?)
	`, id, userID, experienceID, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return nil, unavailable("book reservation", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE experiences SET slots_available = slots_available - 1 WHERE experience_id = ?
	`, experienceID); err != nil {
		return nil, unavailable("book reservation", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("book reservation", err)
	}

	r.logger.Info("reservation booked", "user_id", userID, "experience_id", experienceID, "reservation_id", id)
	return &Booking{
		Status:        "success",
		ReservationID: id,
		Message:       fmt.Sprintf("Successfully booked %s.", title),
	}, nil
}

// CancelReservation cancels one reservation and frees its slot.
// Cancelling an already cancelled reservation succeeds without side effects.
func (r *SQLiteRecords) CancelReservation(ctx context.Context, reservationID string) (*Cancellation, error) {
	if strings.TrimSpace(reservationID) == "" {
		return nil, Fail(CodeInvalidArgument, "reservation_id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("cancel reservation", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status, experienceID string
	err = tx.QueryRowContext(ctx, `
		SELECT status, experience_id FROM reservations WHERE reservation_id = ?
	`, reservationID).Scan(&status, &experienceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Fail(CodeReservationNotFound, "Reservation not found")
	}
	if err != nil {
		return nil, unavailable("cancel reservation", err)
	}

	if status != "cancelled" {
		if _, err := tx.ExecContext(ctx, `
			UPDATE reservations SET status = 'cancelled' WHERE reservation_id = ?
		`, reservationID); err != nil {
			return nil, unavailable("cancel reservation", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE experiences SET slots_available = slots_available + 1 WHERE experience_id = ?
		`, experienceID); err != nil {
			return nil, unavailable("cancel reservation", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("cancel reservation", err)
	}

	r.logger.Info("reservation cancelled", "reservation_id", reservationID)
	return &Cancellation{
		Status:  "success",
		Message: fmt.Sprintf("Reservation %s cancelled.", reservationID),
	}, nil
}

// RetentionPolicy returns the configured retention offers.
func (r *SQLiteRecords) RetentionPolicy(ctx context.Context) (*RetentionPolicy, error) {
	p := r.policy
	return &p, nil
}

// SearchKnowledge runs a case-insensitive substring search over article
// titles, content, and tags, returning at most SearchLimit articles.
func (r *SQLiteRecords) SearchKnowledge(ctx context.Context, query string) ([]Article, error) {
	if strings.TrimSpace(query) == "" {
		return nil, Fail(CodeInvalidArgument, "query is required")
	}
	if cached, ok := r.cache.get(query); ok {
		return cached, nil
	}

	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT title, content, tags FROM knowledge
		WHERE title LIKE ?1 ESCAPE '\' OR content LIKE ?1 ESCAPE '\' OR tags LIKE ?1 ESCAPE '\'
		ORDER BY article_id
		LIMIT ?2
	`, pattern, SearchLimit)
	if err != nil {
		return nil, unavailable("search knowledge", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Article{}
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.Title, &a.Content, &a.Tags); err != nil {
			return nil, unavailable("search knowledge", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("search knowledge", err)
	}

	r.cache.set(query, out)
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// NewReservationID returns an id of the form "res-" plus six hex characters.
func NewReservationID() string {
	return "res-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

var _ Provider = (*SQLiteRecords)(nil)
