// Package store provides durable checkpoint storage for the gateway using SQLite.
//
// # Checkpoints
//
// A Checkpoint is the full state of one thread: its ordered message history
// and the last routing decision. There is exactly zero or one checkpoint per
// thread id; Save replaces the previous one wholesale.
//
//	cp, err := st.Load(ctx, "thread-1") // empty checkpoint if unseen
//	cp.History = cp.History.Append(conversation.RoleUser, "hi")
//	err = st.Save(ctx, cp)
//
// # Durability
//
// SQLiteStore opens the database in WAL mode with synchronous=FULL. Save
// upserts the checkpoints row, deletes the thread's messages, and reinserts
// the history inside one transaction, so a reader sees either the old or the
// new checkpoint and never a mix. Save returns after the commit is on disk.
//
// Save rejects histories whose positions are not exactly 1..n
// (ErrInvalidCheckpoint wrapping conversation.ErrPositionGap).
//
// # Schema
//
//	checkpoints(thread_id, destination, sentiment, urgency, message_count, created_at, updated_at)
//	checkpoint_messages(thread_id, position, role, content, created_at)
//	turn_usage(id, thread_id, request_id, destination, input_tokens, output_tokens, created_at)
//
// Timestamps are stored as fixed-width RFC 3339 text in UTC. Columns added
// after the first release are applied by runMigrations on open.
//
// # Testing
//
// MockStore is an in-memory implementation with injectable LoadErr, SaveErr
// and PingErr fields for exercising failure paths.
package store
