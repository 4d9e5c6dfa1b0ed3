// ABOUTME: Tests for token usage tracking functionality
// ABOUTME: Covers SaveUsage, GetThreadUsage, and GetUsageStats

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/switchboard/internal/routing"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestStore_SaveUsage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	usage := &TurnUsage{
		ID:           uuid.New().String(),
		ThreadID:     "thread-usage-001",
		RequestID:    "req-001",
		Destination:  routing.Billing,
		InputTokens:  1000,
		OutputTokens: 500,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveUsage(ctx, usage))

	usages, err := store.GetThreadUsage(ctx, "thread-usage-001")
	require.NoError(t, err)
	require.Len(t, usages, 1)

	got := usages[0]
	assert.Equal(t, usage.ID, got.ID)
	assert.Equal(t, "req-001", got.RequestID)
	assert.Equal(t, routing.Billing, got.Destination)
	assert.Equal(t, int64(1000), got.InputTokens)
	assert.Equal(t, int64(500), got.OutputTokens)
	assert.True(t, usage.CreatedAt.Equal(got.CreatedAt))
}

func TestStore_GetThreadUsage_OrderedAndFiltered(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, thread := range []string{"a", "b", "a"} {
		require.NoError(t, store.SaveUsage(ctx, &TurnUsage{
			ID:          uuid.New().String(),
			ThreadID:    thread,
			RequestID:   uuid.New().String(),
			Destination: routing.Booking,
			InputTokens: int64(i + 1),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	usages, err := store.GetThreadUsage(ctx, "a")
	require.NoError(t, err)
	require.Len(t, usages, 2)
	assert.Equal(t, int64(1), usages[0].InputTokens)
	assert.Equal(t, int64(3), usages[1].InputTokens)

	none, err := store.GetThreadUsage(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_GetUsageStats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	empty, err := store.GetUsageStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, UsageStats{}, *empty)

	for _, tokens := range []int64{100, 250} {
		require.NoError(t, store.SaveUsage(ctx, &TurnUsage{
			ID:           uuid.New().String(),
			ThreadID:     "t",
			RequestID:    uuid.New().String(),
			Destination:  routing.TechSupport,
			InputTokens:  tokens,
			OutputTokens: tokens / 2,
		}))
	}

	stats, err := store.GetUsageStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(350), stats.TotalInput)
	assert.Equal(t, int64(175), stats.TotalOutput)
	assert.Equal(t, int64(2), stats.TurnCount)
}
