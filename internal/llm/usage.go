// ABOUTME: Per-request token metering carried on the context
// ABOUTME: Callers attach a Meter; classifier and specialists add each response's usage to it

package llm

import (
	"context"
	"sync"
)

// Meter accumulates token usage across several model calls.
type Meter struct {
	mu    sync.Mutex
	total Usage
	calls int
}

// Add records one response's usage.
func (m *Meter) Add(u Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total.InputTokens += u.InputTokens
	m.total.OutputTokens += u.OutputTokens
	m.calls++
}

// Total returns the accumulated usage and the number of calls recorded.
func (m *Meter) Total() (Usage, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total, m.calls
}

type meterKey struct{}

// WithMeter returns a context that carries m.
func WithMeter(ctx context.Context, m *Meter) context.Context {
	return context.WithValue(ctx, meterKey{}, m)
}

// RecordUsage adds u to the context's Meter, if any.
func RecordUsage(ctx context.Context, u Usage) {
	if m, ok := ctx.Value(meterKey{}).(*Meter); ok && m != nil {
		m.Add(u)
	}
}
