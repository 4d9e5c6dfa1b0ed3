// ABOUTME: Specialist handler contract and degraded replies
// ABOUTME: A handler always answers with exactly one assistant message and never returns an error

package specialist

import (
	"context"

	"github.com/2389/switchboard/internal/conversation"
)

// Handler produces the single response for a routed turn.
// Implementations must not modify history and must not panic; any failure
// is expressed as a degraded assistant message.
type Handler interface {
	Handle(ctx context.Context, history conversation.History) conversation.Message
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, history conversation.History) conversation.Message

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, history conversation.History) conversation.Message {
	return f(ctx, history)
}

// Degraded reply texts.
const (
	ReplyUnavailable = "I'm sorry, I couldn't complete that just now. I've flagged your request so a member of our team can follow up with you."
	ReplyTimeout     = "I'm sorry, this is taking longer than expected. Please try again in a moment, or a member of our team will follow up with you."
	ReplyEscalated   = "I wasn't able to resolve this on my own, so I've escalated it to a member of our team who will get back to you shortly."
)

// Reply builds an assistant message. Position is assigned when the engine appends it.
func Reply(content string) conversation.Message {
	return conversation.Message{Role: conversation.RoleAssistant, Content: content}
}

// Degraded returns the apology matching a failure. Deadline and
// cancellation errors get the timeout wording.
func Degraded(ctx context.Context) conversation.Message {
	if ctx.Err() != nil {
		return Reply(ReplyTimeout)
	}
	return Reply(ReplyUnavailable)
}

// IsDegraded reports whether msg is one of the canned failure replies.
func IsDegraded(msg conversation.Message) bool {
	switch msg.Content {
	case ReplyUnavailable, ReplyTimeout, ReplyEscalated:
		return true
	}
	return false
}
