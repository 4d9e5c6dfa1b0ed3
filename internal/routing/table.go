// ABOUTME: Routing table mapping every destination to exactly one handler
// ABOUTME: Verify asserts the table covers the full destination set at startup

package routing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncompleteTable is returned by Verify when a destination has no handler.
var ErrIncompleteTable = errors.New("routing table is incomplete")

// ErrDuplicateHandler is returned when a destination is registered twice.
var ErrDuplicateHandler = errors.New("destination already registered")

// Table maps destinations to handlers. It is built once at startup and only
// read afterwards, so lookups need no locking.
type Table[H any] struct {
	handlers map[Destination]H
}

// NewTable creates an empty table.
func NewTable[H any]() *Table[H] {
	return &Table[H]{handlers: make(map[Destination]H)}
}

// Register binds h to d. Registering an invalid or already bound destination fails.
func (t *Table[H]) Register(d Destination, h H) error {
	if !d.Valid() {
		return fmt.Errorf("register: %w: %q", ErrInvalidDestination, d)
	}
	if _, ok := t.handlers[d]; ok {
		return fmt.Errorf("register %s: %w", d, ErrDuplicateHandler)
	}
	t.handlers[d] = h
	return nil
}

// Lookup returns the handler bound to d.
func (t *Table[H]) Lookup(d Destination) (H, bool) {
	h, ok := t.handlers[d]
	return h, ok
}

// Len returns the number of registered destinations.
func (t *Table[H]) Len() int { return len(t.handlers) }

// Verify checks that every destination in Destinations() has a handler.
func (t *Table[H]) Verify() error {
	var missing []string
	for _, d := range Destinations() {
		if _, ok := t.handlers[d]; !ok {
			missing = append(missing, string(d))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteTable, strings.Join(missing, ", "))
	}
	return nil
}
