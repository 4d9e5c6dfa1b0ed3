// Package capability holds the record-store operations a specialist may use
// and the adapter that exposes them to a chat model as tools.
//
// # Provider
//
// Provider is the typed contract: LookupUser, SubscriptionStatus,
// UpdateSubscription, ListReservations, BookReservation, CancelReservation,
// RetentionPolicy and SearchKnowledge. Domain failures come back as *Failure
// with a stable Code (class_full, already_booked, user_not_found, ...).
//
// SQLiteRecords is the bundled implementation. Seed resets it to a small
// demo data set. Knowledge search results are cached in ristretto for a few
// minutes and the cache is dropped on every Seed.
//
// # Toolset
//
// A Toolset binds a subset of tools to a Provider. Call takes the model's
// JSON arguments and always returns JSON. Failures render as
//
//	{"error": "class_full", "message": "Class is full"}
//
// and a panicking provider renders as {"error": "internal", ...}. Internal
// error text is never passed to the model.
package capability
