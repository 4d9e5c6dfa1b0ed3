// ABOUTME: Tests for the in-memory MockStore
// ABOUTME: Verifies clone isolation, error injection, and listing order

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/switchboard/internal/conversation"
	"github.com/2389/switchboard/internal/routing"
)

func TestMockStore_CloneIsolation(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	cp := &Checkpoint{
		ThreadID: "t",
		History:  sampleHistory("hi", "hello"),
		Decision: &routing.Decision{Destination: routing.Billing},
	}
	require.NoError(t, m.Save(ctx, cp))

	// Mutating the caller's copy must not reach the stored checkpoint.
	cp.History[0].Content = "tampered"
	cp.Decision.Destination = routing.Booking

	got, err := m.Load(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "hi", got.History[0].Content)
	assert.Equal(t, routing.Billing, got.Decision.Destination)

	// And mutating a loaded copy must not either.
	got.History[1].Content = "tampered"
	again, err := m.Load(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.History[1].Content)
}

func TestMockStore_ErrorInjection(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()
	boom := errors.New("disk full")

	m.SaveErr = boom
	err := m.Save(ctx, &Checkpoint{ThreadID: "t", History: sampleHistory("hi")})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.SaveCount())

	m.SaveErr = nil
	m.LoadErr = boom
	_, err = m.Load(ctx, "t")
	assert.ErrorIs(t, err, boom)

	m.PingErr = boom
	assert.ErrorIs(t, m.Ping(ctx), boom)
}

func TestMockStore_ValidatesHistory(t *testing.T) {
	m := NewMockStore()
	h := sampleHistory("a", "b")
	h[1].Position = 7

	err := m.Save(context.Background(), &Checkpoint{ThreadID: "t", History: h})
	assert.ErrorIs(t, err, ErrInvalidCheckpoint)
	assert.ErrorIs(t, err, conversation.ErrPositionGap)
}

func TestMockStore_ListThreads(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, m.Save(ctx, &Checkpoint{
			ThreadID:  id,
			History:   sampleHistory("q"),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	threads, err := m.ListThreads(ctx, 2)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "third", threads[0].ThreadID)
	assert.Equal(t, "second", threads[1].ThreadID)
	assert.Equal(t, 3, m.SaveCount())
}

func TestCheckpoint_CloneNil(t *testing.T) {
	var cp *Checkpoint
	assert.Nil(t, cp.Clone())
}
