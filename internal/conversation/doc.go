// Package conversation defines the message model shared by every layer of
// the gateway.
//
// # Messages
//
// A Message has a Role (user, assistant, system), text Content, a 1-based
// Position within its thread, and a creation timestamp. Messages are never
// modified after they are appended.
//
// # History
//
// History is the ordered message sequence of one thread:
//
//	var h conversation.History
//	h = h.Append(conversation.RoleUser, "Can I get a refund?")
//	h = h.Append(conversation.RoleAssistant, "Refunds are not available for partial months.")
//
// Append returns a new slice and leaves the receiver untouched, so a history
// handed to a classifier or specialist can be read without copying first.
// Validate checks that positions run 1..n with no gaps and that every role is
// known; the store refuses to save a history that fails it.
package conversation
