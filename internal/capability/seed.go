// ABOUTME: Demo data for the records database
// ABOUTME: Seed wipes every records table and inserts a small known fixture set

package capability

import (
	"context"
	"fmt"
	"time"
)

// SeedSummary reports how many rows Seed inserted.
type SeedSummary struct {
	Users        int
	Experiences  int
	Reservations int
	Articles     int
}

type seedUser struct {
	id, name, email string
	blocked         bool
	status, tier    string
	endedAt         string
}

type seedExperience struct {
	id, title, description, location string
	startsIn                         time.Duration
	slots                            int
	premium                          bool
}

var (
	seedUsers = []seedUser{
		{id: "u-alice", name: "Alice Martin", email: "alice@example.com", status: "active", tier: TierBasic},
		{id: "u-bruno", name: "Bruno Silva", email: "bruno@example.com", status: "active", tier: TierElite},
		{id: "u-chen", name: "Chen Wei", email: "chen@example.com", blocked: true, status: "cancelled", tier: TierBasic, endedAt: "2026-01-31"},
	}

	seedExperiences = []seedExperience{
		{id: "exp-yoga", title: "Sunrise Yoga", description: "Vinyasa flow on the rooftop", location: "Rooftop Studio", startsIn: 48 * time.Hour, slots: 10},
		{id: "exp-spin", title: "Spin Class", description: "High intensity cycling", location: "Studio B", startsIn: 24 * time.Hour, slots: 0},
		{id: "exp-pottery", title: "Pottery Workshop", description: "Wheel throwing for beginners", location: "Craft Lab", startsIn: 72 * time.Hour, slots: 4, premium: true},
		{id: "exp-climb", title: "Bouldering Intro", description: "Technique basics with a coach", location: "Climbing Hall", startsIn: 96 * time.Hour, slots: 6},
	}

	seedReservations = []struct{ id, user, experience string }{
		{"res-a1b2c3", "u-alice", "exp-yoga"},
		{"res-d4e5f6", "u-bruno", "exp-pottery"},
	}

	seedArticles = []Article{
		{Title: "How to reset your password", Content: "Open the app, tap 'Forgot password' on the login screen, and follow the emailed link. Links expire after 30 minutes.", Tags: "login, password, account"},
		{Title: "App crashes on startup", Content: "Update to the latest version, then clear the app cache. If it still crashes, reinstall; your bookings are kept on our servers.", Tags: "app, crash, bug"},
		{Title: "How to book a class", Content: "Browse experiences in the app, pick a time, and tap Reserve. Each booking uses one credit from your monthly quota.", Tags: "booking, reservation, class"},
		{Title: "Pausing your subscription", Content: "You can pause for up to 3 months from Settings > Membership. Your data and history are preserved while paused.", Tags: "subscription, pause, membership"},
		{Title: "Refund policy", Content: "We do not refund partial months. Used passes are never refunded. Cancelling 24h before renewal avoids the next charge.", Tags: "billing, refund, payment"},
		{Title: "Calendar sync not working", Content: "Reconnect your calendar under Settings > Integrations and allow background refresh.", Tags: "app, sync, calendar"},
	}
)

// Seed deletes all records and inserts the demo fixture set in one transaction.
func (r *SQLiteRecords) Seed(ctx context.Context) (*SeedSummary, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"reservations", "subscriptions", "experiences", "knowledge", "users"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return nil, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	now := time.Now().UTC()
	stamp := now.Format(time.RFC3339Nano)

	for _, u := range seedUsers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (user_id, full_name, email, is_blocked, created_at) VALUES (?, ?, ?, ?, ?)
		`, u.id, u.name, u.email, u.blocked, stamp); err != nil {
			return nil, fmt.Errorf("inserting user %s: %w", u.id, err)
		}
		var endedAt any
		if u.endedAt != "" {
			endedAt = u.endedAt
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subscriptions (subscription_id, user_id, status, tier, monthly_quota, started_at, ended_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, "sub-"+u.id, u.id, u.status, u.tier, QuotaForTier(u.tier), stamp, endedAt); err != nil {
			return nil, fmt.Errorf("inserting subscription for %s: %w", u.id, err)
		}
	}

	for _, e := range seedExperiences {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO experiences (experience_id, title, description, location, starts_at, slots_available, is_premium)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, e.id, e.title, e.description, e.location, now.Add(e.startsIn).Truncate(time.Hour).Format(time.RFC3339), e.slots, e.premium); err != nil {
			return nil, fmt.Errorf("inserting experience %s: %w", e.id, err)
		}
	}

	for _, res := range seedReservations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reservations (reservation_id, user_id, experience_id, status, created_at)
			VALUES (?, ?, ?, 'confirmed', ?)
		`, res.id, res.user, res.experience, stamp); err != nil {
			return nil, fmt.Errorf("inserting reservation %s: %w", res.id, err)
		}
	}

	for i, a := range seedArticles {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO knowledge (article_id, title, content, tags) VALUES (?, ?, ?, ?)
		`, fmt.Sprintf("kb-%03d", i+1), a.Title, a.Content, a.Tags); err != nil {
			return nil, fmt.Errorf("inserting article %q: %w", a.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing seed: %w", err)
	}
	r.cache.clear()

	summary := &SeedSummary{
		Users:        len(seedUsers),
		Experiences:  len(seedExperiences),
		Reservations: len(seedReservations),
		Articles:     len(seedArticles),
	}
	r.logger.Info("records seeded",
		"users", summary.Users,
		"experiences", summary.Experiences,
		"reservations", summary.Reservations,
		"articles", summary.Articles,
	)
	return summary, nil
}

// Empty reports whether the records database holds no members.
func (r *SQLiteRecords) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	return n == 0, nil
}

// SeedIfEmpty seeds the demo fixtures only when no members exist yet.
// It returns a nil summary when the database already had data.
func (r *SQLiteRecords) SeedIfEmpty(ctx context.Context) (*SeedSummary, error) {
	empty, err := r.Empty(ctx)
	if err != nil {
		return nil, err
	}
	if !empty {
		return nil, nil
	}
	return r.Seed(ctx)
}
