// ABOUTME: Message and History types for a single conversation thread
// ABOUTME: History is append-only with gap-free 1-based positions

package conversation

import (
	"errors"
	"fmt"
	"time"
)

// ErrPositionGap is returned when a history's positions are not exactly 1..n.
var ErrPositionGap = errors.New("message positions are not gap-free")

// ErrInvalidRole is returned when a message carries an unknown role.
var ErrInvalidRole = errors.New("invalid message role")

// Role identifies who authored a message.
type Role string

// Role constants
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is a single immutable entry in a thread.
type Message struct {
	Role      Role
	Content   string
	Position  int // 1-based, assigned on append
	CreatedAt time.Time
}

// History is the ordered message sequence of one thread.
// Values are treated as immutable: Append returns a new History.
type History []Message

// Len returns the number of messages.
func (h History) Len() int { return len(h) }

// NextPosition returns the position the next appended message will receive.
func (h History) NextPosition() int { return len(h) + 1 }

// Append returns a copy of h with a new message at the next position.
func (h History) Append(role Role, content string) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, Message{
		Role:      role,
		Content:   content,
		Position:  h.NextPosition(),
		CreatedAt: time.Now().UTC(),
	})
}

// Clone returns a copy that shares no backing array with h.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}

// Last returns the final message, or false for an empty history.
func (h History) Last() (Message, bool) {
	if len(h) == 0 {
		return Message{}, false
	}
	return h[len(h)-1], true
}

// LastUser returns the most recent user message, or false if there is none.
func (h History) LastUser() (Message, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Role == RoleUser {
			return h[i], true
		}
	}
	return Message{}, false
}

// Validate checks roles and that positions run 1..n without gaps.
func (h History) Validate() error {
	for i, msg := range h {
		if !msg.Role.Valid() {
			return fmt.Errorf("message %d: %w: %q", i+1, ErrInvalidRole, msg.Role)
		}
		if msg.Position != i+1 {
			return fmt.Errorf("%w: index %d has position %d", ErrPositionGap, i, msg.Position)
		}
	}
	return nil
}
