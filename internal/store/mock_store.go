// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject load/save failures

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
// Checkpoints are cloned on the way in and out so callers never share state.
type MockStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*Checkpoint
	usage       []*TurnUsage
	saves       int

	// LoadErr, when set, is returned by every Load call.
	LoadErr error
	// SaveErr, when set, is returned by every Save call and nothing is written.
	SaveErr error
	// PingErr, when set, is returned by Ping.
	PingErr error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		checkpoints: make(map[string]*Checkpoint),
	}
}

// Load returns a copy of the stored checkpoint, or an empty one.
func (m *MockStore) Load(ctx context.Context, threadID string) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	cp, ok := m.checkpoints[threadID]
	if !ok {
		return &Checkpoint{ThreadID: threadID}, nil
	}
	return cp.Clone(), nil
}

// Save stores a copy of the checkpoint.
func (m *MockStore) Save(ctx context.Context, cp *Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	if cp == nil || strings.TrimSpace(cp.ThreadID) == "" {
		return fmt.Errorf("%w: missing thread id", ErrInvalidCheckpoint)
	}
	if err := cp.History.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCheckpoint, err)
	}

	stored := cp.Clone()
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	m.checkpoints[cp.ThreadID] = stored
	m.saves++
	return nil
}

// ListThreads returns summaries ordered by most recent update.
func (m *MockStore) ListThreads(ctx context.Context, limit int) ([]*ThreadSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*ThreadSummary, 0, len(m.checkpoints))
	for _, cp := range m.checkpoints {
		s := &ThreadSummary{
			ThreadID:     cp.ThreadID,
			MessageCount: len(cp.History),
			UpdatedAt:    cp.UpdatedAt,
		}
		if cp.Decision != nil {
			s.LastDestination = cp.Decision.Destination
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ping returns PingErr.
func (m *MockStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// SaveCount returns how many successful Save calls have been made.
func (m *MockStore) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// SaveUsage records a usage entry.
func (m *MockStore) SaveUsage(ctx context.Context, usage *TurnUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := *usage
	m.usage = append(m.usage, &u)
	return nil
}

// GetThreadUsage returns the usage entries for a thread in insertion order.
func (m *MockStore) GetThreadUsage(ctx context.Context, threadID string) ([]*TurnUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*TurnUsage
	for _, u := range m.usage {
		if u.ThreadID == threadID {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

// GetUsageStats sums every recorded entry.
func (m *MockStore) GetUsageStats(ctx context.Context) (*UsageStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stats UsageStats
	for _, u := range m.usage {
		stats.TotalInput += u.InputTokens
		stats.TotalOutput += u.OutputTokens
		stats.TurnCount++
	}
	return &stats, nil
}

var (
	_ Store      = (*MockStore)(nil)
	_ UsageStore = (*MockStore)(nil)
)
