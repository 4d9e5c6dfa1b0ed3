// ABOUTME: Dispatch engine running one classify, handle, commit pass per inbound message
// ABOUTME: Turns on the same thread are serialized; the checkpoint is written once per successful turn

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/switchboard/internal/conversation"
	"github.com/2389/switchboard/internal/dedupe"
	"github.com/2389/switchboard/internal/llm"
	"github.com/2389/switchboard/internal/routing"
	"github.com/2389/switchboard/internal/specialist"
	"github.com/2389/switchboard/internal/store"
)

// Default per-phase deadlines.
const (
	DefaultClassifyTimeout = 30 * time.Second
	DefaultHandleTimeout   = 2 * time.Minute
	DefaultCommitTimeout   = 10 * time.Second
)

// TurnRequest is one inbound user message.
type TurnRequest struct {
	ThreadID string
	Content  string
	// RequestID makes retries idempotent when a replay cache is configured.
	// Generated when empty.
	RequestID string
}

// TurnResult is the committed outcome of a turn.
type TurnResult struct {
	ThreadID  string
	RequestID string
	Reply     conversation.Message
	Decision  routing.Decision
	// Degraded is set when the handler answered with a failure apology.
	Degraded bool
	// Replayed is set when the result came from the replay cache.
	Replayed bool
	Usage    llm.Usage
	Duration time.Duration
}

// Options configures an Engine.
type Options struct {
	Classifier routing.Classifier
	Table      *routing.Table[specialist.Handler]
	Store      store.Store
	// Usage receives per-turn token usage after commit. Optional.
	Usage store.UsageStore
	// Replay caches committed results by thread and request id. Optional.
	Replay *dedupe.Cache[*TurnResult]

	ClassifyTimeout time.Duration
	HandleTimeout   time.Duration
	CommitTimeout   time.Duration

	Logger *slog.Logger
}

// Engine routes inbound messages to specialists and persists the result.
type Engine struct {
	classifier routing.Classifier
	table      *routing.Table[specialist.Handler]
	store      store.Store
	usage      store.UsageStore
	replay     *dedupe.Cache[*TurnResult]

	classifyTimeout time.Duration
	handleTimeout   time.Duration
	commitTimeout   time.Duration

	locks  *keyedMutex
	logger *slog.Logger
}

// New creates an engine. The routing table must cover every destination.
func New(opts Options) (*Engine, error) {
	if opts.Classifier == nil {
		return nil, errors.New("dispatch: classifier is required")
	}
	if opts.Store == nil {
		return nil, errors.New("dispatch: store is required")
	}
	if opts.Table == nil {
		return nil, errors.New("dispatch: routing table is required")
	}
	if err := opts.Table.Verify(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		classifier:      opts.Classifier,
		table:           opts.Table,
		store:           opts.Store,
		usage:           opts.Usage,
		replay:          opts.Replay,
		classifyTimeout: orDefault(opts.ClassifyTimeout, DefaultClassifyTimeout),
		handleTimeout:   orDefault(opts.HandleTimeout, DefaultHandleTimeout),
		commitTimeout:   orDefault(opts.CommitTimeout, DefaultCommitTimeout),
		locks:           newKeyedMutex(),
		logger:          logger.With("component", "dispatch"),
	}
	return e, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// turn tracks one in-flight turn for logging.
type turn struct {
	state  State
	logger *slog.Logger
}

func (t *turn) advance(next State) {
	t.logger.Debug("turn state", "from", t.state, "to", next)
	t.state = next
}

// Turn processes one inbound message: load, classify, dispatch, commit.
// On any error nothing is written for the turn.
func (e *Engine) Turn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	threadID := strings.TrimSpace(req.ThreadID)
	if threadID == "" {
		return nil, turnError(CodeInvalidRequest, "validate", "", errors.New("thread id is required"))
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, turnError(CodeInvalidRequest, "validate", threadID, errors.New("message content is required"))
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	start := time.Now()
	t := &turn{
		state:  StateIdle,
		logger: e.logger.With("thread_id", threadID, "request_id", requestID),
	}

	unlock, err := e.locks.Lock(ctx, threadID)
	if err != nil {
		t.logger.Info("turn abandoned while waiting for thread", "error", err)
		return nil, turnError(CodeCancelled, "lock", threadID, err)
	}
	defer unlock()

	replayKey := dedupe.Key(threadID, requestID)
	if e.replay != nil && req.RequestID != "" {
		if prev, ok := e.replay.Get(replayKey); ok {
			t.logger.Info("replaying completed turn")
			out := *prev
			out.Replayed = true
			return &out, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, turnError(CodeCancelled, "load", threadID, err)
	}

	cp, err := e.store.Load(ctx, threadID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, turnError(CodeCancelled, "load", threadID, err)
		}
		return nil, turnError(CodePersistence, "load", threadID, err)
	}

	meter := &llm.Meter{}
	ctx = llm.WithMeter(ctx, meter)

	history := cp.History.Append(conversation.RoleUser, req.Content)

	t.advance(StateClassifying)
	decision, err := e.classify(ctx, history)
	if err != nil {
		t.advance(StateIdle)
		if ctx.Err() != nil {
			return nil, turnError(CodeCancelled, "classify", threadID, err)
		}
		if errors.Is(err, routing.ErrInvalidDestination) {
			t.logger.Error("classifier returned unroutable destination", "error", err)
			return nil, turnError(CodeUnknownDestination, "classify", threadID, err)
		}
		t.logger.Warn("classification failed", "error", err)
		return nil, turnError(CodeClassification, "classify", threadID, err)
	}

	handler, ok := e.table.Lookup(decision.Destination)
	if !ok {
		t.advance(StateIdle)
		t.logger.Error("no handler for destination", "destination", decision.Destination)
		return nil, turnError(CodeUnknownDestination, "route", threadID,
			fmt.Errorf("%w: %q", routing.ErrInvalidDestination, decision.Destination))
	}

	t.logger.Info("routed turn",
		"destination", decision.Destination,
		"sentiment", decision.Sentiment,
		"urgency", decision.Urgency,
	)

	t.advance(StateDispatching)
	reply := e.handle(ctx, t.logger, handler, history)

	if err := ctx.Err(); err != nil {
		t.advance(StateIdle)
		t.logger.Info("caller went away before commit, abandoning turn", "error", err)
		return nil, turnError(CodeCancelled, "handle", threadID, err)
	}

	t.advance(StateCommitting)
	history = history.Append(conversation.RoleAssistant, reply.Content)
	next := &store.Checkpoint{
		ThreadID:  threadID,
		History:   history,
		Decision:  &decision,
		UpdatedAt: time.Now().UTC(),
	}

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.commitTimeout)
	err = e.store.Save(commitCtx, next)
	cancel()
	t.advance(StateIdle)
	if err != nil {
		t.logger.Error("failed to commit checkpoint", "error", err)
		return nil, turnError(CodePersistence, "commit", threadID, err)
	}

	usage, calls := meter.Total()
	result := &TurnResult{
		ThreadID:  threadID,
		RequestID: requestID,
		Reply:     history[len(history)-1],
		Decision:  decision,
		Degraded:  specialist.IsDegraded(reply),
		Usage:     usage,
		Duration:  time.Since(start),
	}

	if e.replay != nil {
		e.replay.Put(replayKey, result)
	}
	if e.usage != nil && calls > 0 {
		e.recordUsage(ctx, result)
	}

	t.logger.Info("turn committed",
		"destination", decision.Destination,
		"messages", len(history),
		"degraded", result.Degraded,
		"duration", result.Duration,
	)

	out := *result
	return &out, nil
}

// classify runs the classifier under its deadline and validates the decision.
func (e *Engine) classify(ctx context.Context, history conversation.History) (decision routing.Decision, err error) {
	cctx, cancel := context.WithTimeout(ctx, e.classifyTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panicked: %v", r)
		}
	}()

	decision, err = e.classifier.Classify(cctx, history.Clone())
	if err != nil {
		return routing.Decision{}, err
	}
	if err := decision.Validate(); err != nil {
		return routing.Decision{}, err
	}
	return decision, nil
}

// handle runs the handler under its deadline. Panics and empty replies
// become the degraded reply; the role is always assistant.
func (e *Engine) handle(ctx context.Context, logger *slog.Logger, h specialist.Handler, history conversation.History) (reply conversation.Message) {
	hctx, cancel := context.WithTimeout(ctx, e.handleTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked", "panic", r)
			reply = specialist.Degraded(hctx)
		}
	}()

	reply = h.Handle(hctx, history.Clone())
	if strings.TrimSpace(reply.Content) == "" {
		logger.Warn("handler returned an empty reply")
		return specialist.Degraded(hctx)
	}
	reply.Role = conversation.RoleAssistant
	return reply
}

// recordUsage stores token usage for a committed turn. Failures are logged only.
func (e *Engine) recordUsage(ctx context.Context, result *TurnResult) {
	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.commitTimeout)
	defer cancel()

	err := e.usage.SaveUsage(uctx, &store.TurnUsage{
		ID:           uuid.NewString(),
		ThreadID:     result.ThreadID,
		RequestID:    result.RequestID,
		Destination:  result.Decision.Destination,
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
	})
	if err != nil {
		e.logger.Warn("failed to record token usage", "thread_id", result.ThreadID, "error", err)
	}
}

// History returns the committed checkpoint for threadID.
func (e *Engine) History(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, turnError(CodeInvalidRequest, "history", "", errors.New("thread id is required"))
	}
	cp, err := e.store.Load(ctx, threadID)
	if err != nil {
		return nil, turnError(CodePersistence, "history", threadID, err)
	}
	return cp, nil
}

// Threads lists recently updated threads, newest first.
func (e *Engine) Threads(ctx context.Context, limit int) ([]*store.ThreadSummary, error) {
	threads, err := e.store.ListThreads(ctx, limit)
	if err != nil {
		return nil, turnError(CodePersistence, "threads", "", err)
	}
	return threads, nil
}

// Ping checks the backing store.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}
