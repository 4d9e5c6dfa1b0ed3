// ABOUTME: Tests for the SQLite records provider
// ABOUTME: Covers lookups, booking rules, cancellation, tier quotas, and cached search

package capability

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededRecords(t *testing.T) *SQLiteRecords {
	t.Helper()
	r, err := NewSQLiteRecords(filepath.Join(t.TempDir(), "records.db"), RecordsOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	_, err = r.Seed(context.Background())
	require.NoError(t, err)
	return r
}

func requireCode(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	var f *Failure
	require.True(t, errors.As(err, &f), "expected *Failure, got %T: %v", err, err)
	assert.Equal(t, code, f.Code)
}

func TestSeed_Summary(t *testing.T) {
	r, err := NewSQLiteRecords(filepath.Join(t.TempDir(), "records.db"), RecordsOptions{})
	require.NoError(t, err)
	defer r.Close()

	summary, err := r.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Users)
	assert.Equal(t, 2, summary.Reservations)

	// Seeding twice resets rather than duplicating.
	_, err = r.Seed(context.Background())
	require.NoError(t, err)
	res, err := r.ListReservations(context.Background(), "u-alice")
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestLookupUser(t *testing.T) {
	r := newSeededRecords(t)
	ctx := context.Background()

	u, err := r.LookupUser(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-alice", u.UserID)
	assert.False(t, u.IsBlocked)

	blocked, err := r.LookupUser(ctx, "chen@example.com")
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked)

	_, err = r.LookupUser(ctx, "nobody@example.com")
	requireCode(t, err, CodeUserNotFound)

	_, err = r.LookupUser(ctx, "  ")
	requireCode(t, err, CodeInvalidArgument)
}

func TestSubscriptionStatus(t *testing.T) {
	r := newSeededRecords(t)
	ctx := context.Background()

	s, err := r.SubscriptionStatus(ctx, "u-alice")
	require.NoError(t, err)
	assert.Equal(t, Subscription{Status: "active", Tier: TierBasic, MonthlyQuota: 5, ExpiresAt: "Auto-renew"}, *s)

	ended, err := r.SubscriptionStatus(ctx, "u-chen")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-31", ended.ExpiresAt)

	_, err = r.SubscriptionStatus(ctx, "u-missing")
	requireCode(t, err, CodeSubscriptionNotFound)
}

func TestUpdateSubscription_AdjustsQuota(t *testing.T) {
	r := newSeededRecords(t)
	ctx := context.Background()

	change, err := r.UpdateSubscription(ctx, "u-alice", "Elite")
	require.NoError(t, err)
	assert.Equal(t, TierBasic, change.OldTier)
	assert.Equal(t, TierElite, change.NewTier)
	assert.Equal(t, 20, change.MonthlyQuota)

	s, err := r.SubscriptionStatus(ctx, "u-alice")
	require.NoError(t, err)
	assert.Equal(t, 20, s.MonthlyQuota)

	change, err = r.UpdateSubscription(ctx, "u-alice", "basic")
	require.NoError(t, err)
	assert.Equal(t, 5, change.MonthlyQuota)

	_, err = r.UpdateSubscription(ctx, "u-alice", "platinum")
	requireCode(t, err, CodeInvalidArgument)
}

func TestBookReservation(t *testing.T) {
	r := newSeededRecords(t)
	ctx := context.Background()

	booking, err := r.BookReservation(ctx, "u-alice", "exp-climb")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^res-[0-9a-f]{6}$`), booking.ReservationID)
	assert.Equal(t, "Successfully booked Bouldering Intro.", booking.Message)

	_, err = r.BookReservation(ctx, "u-alice", "exp-climb")
	requireCode(t, err, CodeAlreadyBooked)

	_, err = r.BookReservation(ctx, "u-alice", "exp-spin")
	requireCode(t, err, CodeClassFull)

	_, err = r.BookReservation(ctx, "u-alice", "exp-nope")
	requireCode(t, err, CodeExperienceNotFound)

	res, err := r.ListReservations(ctx, "u-alice")
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestBookReservation_DecrementsSlots(t *testing.T) {
	r := newSeededRecords(t)
	ctx := context.Background()

	// Pottery has four slots; Bruno already holds one booking elsewhere.
	for _, user := range []string{"u-alice", "u-chen"} {
		_, err := r.BookReservation(ctx, user, "exp-pottery")
		require.NoError(t, err)
	}

	var slots int
	require.NoError(t, r.db.QueryRow(`SELECT slots_available FROM experiences WHERE experience_id = 'exp-pottery'`).Scan(&slots))
	assert.Equal(t, 2, slots)
}

func TestCancelReservation(t *testing.T) {
	r := newSeededRecords(t)
	ctx := context.Background()

	c, err := r.CancelReservation(ctx, "res-a1b2c3")
	require.NoError(t, err)
	assert.Equal(t, "success", c.Status)

	res, err := r.ListReservations(ctx, "u-alice")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "cancelled", res[0].Status)

	// Rebooking a cancelled class is allowed.
	_, err = r.BookReservation(ctx, "u-alice", "exp-yoga")
	require.NoError(t, err)

	_, err = r.CancelReservation(ctx, "res-000000")
	requireCode(t, err, CodeReservationNotFound)
}

func TestRetentionPolicy(t *testing.T) {
	r := newSeededRecords(t)
	p, err := r.RetentionPolicy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultRetentionPolicy, *p)

	custom := RetentionPolicy{PauseOption: "Pause for 1 month."}
	r2, err := NewSQLiteRecords(filepath.Join(t.TempDir(), "custom.db"), RecordsOptions{Policy: &custom})
	require.NoError(t, err)
	defer r2.Close()
	p2, err := r2.RetentionPolicy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Pause for 1 month.", p2.PauseOption)
}

func TestSearchKnowledge(t *testing.T) {
	r := newSeededRecords(t)
	ctx := context.Background()

	articles, err := r.SearchKnowledge(ctx, "PASSWORD")
	require.NoError(t, err)
	require.NotEmpty(t, articles)
	assert.Equal(t, "How to reset your password", articles[0].Title)

	// "app" matches more than three articles; the limit applies.
	many, err := r.SearchKnowledge(ctx, "app")
	require.NoError(t, err)
	assert.Len(t, many, SearchLimit)

	none, err := r.SearchKnowledge(ctx, "zeppelin")
	require.NoError(t, err)
	assert.Empty(t, none)

	// LIKE wildcards in the query are literal.
	literal, err := r.SearchKnowledge(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, literal)

	_, err = r.SearchKnowledge(ctx, "")
	requireCode(t, err, CodeInvalidArgument)
}

func TestSearchKnowledge_CachedUntilReseed(t *testing.T) {
	r := newSeededRecords(t)
	ctx := context.Background()

	first, err := r.SearchKnowledge(ctx, "refund")
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = r.db.Exec(`DELETE FROM knowledge`)
	require.NoError(t, err)

	cached, err := r.SearchKnowledge(ctx, "  Refund ")
	require.NoError(t, err)
	assert.Equal(t, first, cached, "normalized query should hit the cache")

	_, err = r.Seed(ctx)
	require.NoError(t, err)
	_, err = r.db.Exec(`DELETE FROM knowledge`)
	require.NoError(t, err)

	after, err := r.SearchKnowledge(ctx, "refund")
	require.NoError(t, err)
	assert.Empty(t, after, "seed must drop cached results")
}

func TestSeedIfEmpty(t *testing.T) {
	r, err := NewSQLiteRecords(filepath.Join(t.TempDir(), "records.db"), RecordsOptions{})
	require.NoError(t, err)
	defer r.Close()
	ctx := context.Background()

	empty, err := r.Empty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	summary, err := r.SeedIfEmpty(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Positive(t, summary.Users)

	_, err = r.BookReservation(ctx, "u-alice", "exp-climb")
	require.NoError(t, err)

	summary, err = r.SeedIfEmpty(ctx)
	require.NoError(t, err)
	assert.Nil(t, summary, "existing data must not be reseeded")

	res, err := r.ListReservations(ctx, "u-alice")
	require.NoError(t, err)
	assert.Len(t, res, 2)
}
