// Package dispatch implements the single-pass turn engine: load the thread,
// classify it, hand it to exactly one specialist, and commit the pair of
// messages in one checkpoint write. Turns on the same thread never overlap.
package dispatch
