// Package routing decides which specialist handles a turn.
//
// # Destinations
//
// The destination set is closed: billing, booking, tech_support and
// retention. ParseDestination accepts a few aliases such as "billing_agent"
// and rejects everything else with ErrInvalidDestination. A bad destination
// is never replaced by a default.
//
// # Classifiers
//
// A Classifier reads a conversation history and returns a Decision:
//
//   - LLMClassifier asks a chat model for a JSON verdict at temperature 0
//   - KeywordClassifier scores vocabulary in the latest user message and
//     needs no network
//   - ClassifierFunc adapts a plain function, mostly for tests
//
// Sentiment and Urgency on a Decision are logged and checkpointed for
// observability. Dispatch only looks at Destination.
//
// # Table
//
// Table maps each destination to a handler. The dispatch engine calls
// Verify at construction and refuses to start when any destination is
// missing.
package routing
