// Package dedupe provides a replay cache for idempotent turn requests,
// holding completed results for a configurable window.
package dedupe
