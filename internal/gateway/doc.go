// Package gateway serves the switchboard turn API.
//
// # Overview
//
// The gateway owns the checkpoint store, the member records database, the
// optional model client, and the dispatch engine built from them. It exposes
// the engine over HTTP, optionally on a tailnet via tsnet.
//
// # HTTP API
//
//   - POST /api/turn - Submit one user message, receive the specialist reply
//   - GET /api/threads - List threads, most recently updated first
//   - GET /api/threads/{id}/messages - Read a thread's committed history
//   - GET /api/stats/usage - Aggregate model token usage
//   - GET /health - Liveness check
//   - GET /health/ready - Readiness check (store ping)
//
// A failed turn answers with {"error": "turn failed", "code": "..."}. The code
// is one of the dispatch error codes and selects the status:
//
//	invalid_request       400
//	classification_failed 502
//	unknown_destination   500
//	persistence_failed    503
//	cancelled             504
//	internal              500
//
// # Lifecycle
//
//	gw, err := gateway.New(ctx, cfg, logger)
//	err = gw.Run(ctx) // blocks until ctx is canceled, then shuts down
package gateway
