// ABOUTME: Store interface and data types for switchboard persistence
// ABOUTME: Defines Checkpoint, ThreadSummary, TurnUsage and the Store interfaces

package store

import (
	"context"
	"errors"
	"time"

	"github.com/2389/switchboard/internal/conversation"
	"github.com/2389/switchboard/internal/routing"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrInvalidCheckpoint is returned when a checkpoint cannot be saved as given
var ErrInvalidCheckpoint = errors.New("invalid checkpoint")

// Checkpoint is the durable snapshot of one thread: its full history plus
// the last routing decision applied. There is at most one per thread id.
type Checkpoint struct {
	ThreadID  string
	History   conversation.History
	Decision  *routing.Decision // nil until the first routed turn
	UpdatedAt time.Time
}

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	out := *c
	out.History = c.History.Clone()
	if c.Decision != nil {
		d := *c.Decision
		out.Decision = &d
	}
	return &out
}

// ThreadSummary is a lightweight listing entry for a thread
type ThreadSummary struct {
	ThreadID        string
	MessageCount    int
	LastDestination routing.Destination
	UpdatedAt       time.Time
}

// TurnUsage records model token consumption for one committed turn
type TurnUsage struct {
	ID           string
	ThreadID     string
	RequestID    string
	Destination  routing.Destination
	InputTokens  int64
	OutputTokens int64
	CreatedAt    time.Time
}

// UsageStats aggregates usage across turns
type UsageStats struct {
	TotalInput  int64
	TotalOutput int64
	TurnCount   int64
}

// Store defines checkpoint persistence
type Store interface {
	// Load returns the checkpoint for threadID, or an empty checkpoint for an unseen id.
	Load(ctx context.Context, threadID string) (*Checkpoint, error)

	// Save overwrites the thread's checkpoint. It returns only after the write is durable.
	Save(ctx context.Context, cp *Checkpoint) error

	// ListThreads returns the most recently updated threads first.
	ListThreads(ctx context.Context, limit int) ([]*ThreadSummary, error)

	// Ping verifies the backing database is reachable
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}

// UsageStore defines token usage persistence
type UsageStore interface {
	SaveUsage(ctx context.Context, usage *TurnUsage) error
	GetThreadUsage(ctx context.Context, threadID string) ([]*TurnUsage, error)
	GetUsageStats(ctx context.Context) (*UsageStats, error)
}
