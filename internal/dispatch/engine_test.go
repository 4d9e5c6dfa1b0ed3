// ABOUTME: Tests for the dispatch engine turn lifecycle
// ABOUTME: Covers append-pairing, failure policies, serialization, replay and the routing scenarios

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/2389/switchboard/internal/capability"
	"github.com/2389/switchboard/internal/conversation"
	"github.com/2389/switchboard/internal/dedupe"
	"github.com/2389/switchboard/internal/llm"
	"github.com/2389/switchboard/internal/routing"
	"github.com/2389/switchboard/internal/specialist"
	"github.com/2389/switchboard/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// echoTable answers every destination with "<destination>: <last user message>".
func echoTable(t *testing.T) *routing.Table[specialist.Handler] {
	t.Helper()
	table := routing.NewTable[specialist.Handler]()
	for _, d := range routing.Destinations() {
		d := d
		require.NoError(t, table.Register(d, specialist.HandlerFunc(
			func(ctx context.Context, h conversation.History) conversation.Message {
				last, _ := h.LastUser()
				return specialist.Reply(fmt.Sprintf("%s: %s", d, last.Content))
			})))
	}
	return table
}

func fixed(d routing.Destination) routing.Classifier {
	return routing.ClassifierFunc(func(ctx context.Context, h conversation.History) (routing.Decision, error) {
		return routing.Decision{Destination: d, Sentiment: routing.SentimentNeutral, Urgency: routing.UrgencyLow}, nil
	})
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *store.MockStore) {
	t.Helper()
	ms, _ := opts.Store.(*store.MockStore)
	if opts.Store == nil {
		ms = store.NewMockStore()
		opts.Store = ms
	}
	if opts.Table == nil {
		opts.Table = echoTable(t)
	}
	if opts.Classifier == nil {
		opts.Classifier = fixed(routing.Billing)
	}
	e, err := New(opts)
	require.NoError(t, err)
	return e, ms
}

func TestEngine_TurnAppendsPair(t *testing.T) {
	e, ms := newTestEngine(t, Options{})
	ctx := context.Background()

	res, err := e.Turn(ctx, TurnRequest{ThreadID: "t1", Content: "hello"})
	require.NoError(t, err)

	assert.Equal(t, conversation.RoleAssistant, res.Reply.Role)
	assert.Equal(t, "billing: hello", res.Reply.Content)
	assert.Equal(t, 2, res.Reply.Position)
	assert.Equal(t, routing.Billing, res.Decision.Destination)
	assert.NotEmpty(t, res.RequestID)
	assert.False(t, res.Degraded)

	cp, err := e.History(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, cp.History, 2)
	assert.Equal(t, conversation.RoleUser, cp.History[0].Role)
	assert.Equal(t, "hello", cp.History[0].Content)
	assert.Equal(t, 1, cp.History[0].Position)
	assert.Equal(t, conversation.RoleAssistant, cp.History[1].Role)
	require.NotNil(t, cp.Decision)
	assert.Equal(t, routing.Billing, cp.Decision.Destination)
	assert.Equal(t, 1, ms.SaveCount())

	_, err = e.Turn(ctx, TurnRequest{ThreadID: "t1", Content: "again"})
	require.NoError(t, err)
	cp, err = e.History(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, cp.History, 4)
	assert.NoError(t, cp.History.Validate())
}

func TestEngine_ClassifierSeesFullHistory(t *testing.T) {
	var seen conversation.History
	classifier := routing.ClassifierFunc(func(ctx context.Context, h conversation.History) (routing.Decision, error) {
		seen = h
		return routing.Decision{Destination: routing.Booking}, nil
	})
	e, _ := newTestEngine(t, Options{Classifier: classifier})
	ctx := context.Background()

	_, err := e.Turn(ctx, TurnRequest{ThreadID: "t", Content: "one"})
	require.NoError(t, err)
	_, err = e.Turn(ctx, TurnRequest{ThreadID: "t", Content: "two"})
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, "two", seen[2].Content)
}

func TestEngine_InvalidRequest(t *testing.T) {
	e, ms := newTestEngine(t, Options{})

	for _, req := range []TurnRequest{{Content: "hi"}, {ThreadID: "t"}, {ThreadID: "  ", Content: "hi"}, {ThreadID: "t", Content: "  "}} {
		_, err := e.Turn(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Equal(t, CodeInvalidRequest, CodeOf(err))
	}
	assert.Equal(t, 0, ms.SaveCount())
}

func TestEngine_ClassificationFailurePersistsNothing(t *testing.T) {
	failing := routing.ClassifierFunc(func(ctx context.Context, h conversation.History) (routing.Decision, error) {
		return routing.Decision{}, routing.ErrNoDecision
	})
	e, ms := newTestEngine(t, Options{Classifier: failing})
	ctx := context.Background()

	res, err := e.Turn(ctx, TurnRequest{ThreadID: "t", Content: "???"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrClassification)
	assert.ErrorIs(t, err, routing.ErrNoDecision)

	cp, err := e.History(ctx, "t")
	require.NoError(t, err)
	assert.Empty(t, cp.History)
	assert.Equal(t, 0, ms.SaveCount())
}

func TestEngine_ClassifierPanicIsClassificationFailure(t *testing.T) {
	panicking := routing.ClassifierFunc(func(ctx context.Context, h conversation.History) (routing.Decision, error) {
		panic("boom")
	})
	e, ms := newTestEngine(t, Options{Classifier: panicking})

	_, err := e.Turn(context.Background(), TurnRequest{ThreadID: "t", Content: "hi"})
	assert.ErrorIs(t, err, ErrClassification)
	assert.Equal(t, 0, ms.SaveCount())
}

func TestEngine_ClassifyTimeout(t *testing.T) {
	slow := routing.ClassifierFunc(func(ctx context.Context, h conversation.History) (routing.Decision, error) {
		<-ctx.Done()
		return routing.Decision{}, ctx.Err()
	})
	e, ms := newTestEngine(t, Options{Classifier: slow, ClassifyTimeout: 10 * time.Millisecond})

	_, err := e.Turn(context.Background(), TurnRequest{ThreadID: "t", Content: "hi"})
	assert.ErrorIs(t, err, ErrClassification)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, ms.SaveCount())
}

func TestEngine_UnknownDestinationFailsClosed(t *testing.T) {
	e, ms := newTestEngine(t, Options{Classifier: fixed("sales")})

	var res *TurnResult
	var err error
	assert.NotPanics(t, func() {
		res, err = e.Turn(context.Background(), TurnRequest{ThreadID: "t", Content: "hi"})
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnknownDestination)
	assert.Equal(t, CodeUnknownDestination, CodeOf(err))
	assert.Equal(t, 0, ms.SaveCount())
}

func TestNew_RejectsIncompleteTable(t *testing.T) {
	table := routing.NewTable[specialist.Handler]()
	require.NoError(t, table.Register(routing.Billing, specialist.HandlerFunc(
		func(ctx context.Context, h conversation.History) conversation.Message { return specialist.Reply("x") })))

	_, err := New(Options{Classifier: fixed(routing.Billing), Table: table, Store: store.NewMockStore()})
	assert.ErrorIs(t, err, routing.ErrIncompleteTable)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{Classifier: fixed(routing.Billing)})
	assert.Error(t, err)
	_, err = New(Options{Classifier: fixed(routing.Billing), Store: store.NewMockStore()})
	assert.Error(t, err)
}

func TestEngine_PersistenceFailureWithholdsReply(t *testing.T) {
	ms := store.NewMockStore()
	ms.SaveErr = errors.New("disk full")
	e, _ := newTestEngine(t, Options{Store: ms})

	res, err := e.Turn(context.Background(), TurnRequest{ThreadID: "t", Content: "hi"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrPersistence)

	ms.SaveErr = nil
	cp, err := ms.Load(context.Background(), "t")
	require.NoError(t, err)
	assert.Empty(t, cp.History)

	res, err = e.Turn(context.Background(), TurnRequest{ThreadID: "t", Content: "hi"})
	require.NoError(t, err, "retry after a failed commit is safe")
	assert.Equal(t, 2, res.Reply.Position)
}

func TestEngine_LoadFailure(t *testing.T) {
	ms := store.NewMockStore()
	ms.LoadErr = errors.New("locked")
	e, _ := newTestEngine(t, Options{Store: ms})

	_, err := e.Turn(context.Background(), TurnRequest{ThreadID: "t", Content: "hi"})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestEngine_CancelledBeforeCommitWritesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table := routing.NewTable[specialist.Handler]()
	for _, d := range routing.Destinations() {
		require.NoError(t, table.Register(d, specialist.HandlerFunc(
			func(hctx context.Context, h conversation.History) conversation.Message {
				cancel()
				return specialist.Reply("done")
			})))
	}
	e, ms := newTestEngine(t, Options{Table: table})

	_, err := e.Turn(ctx, TurnRequest{ThreadID: "t", Content: "hi"})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, ms.SaveCount())
}

func TestEngine_AlreadyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e, ms := newTestEngine(t, Options{})

	_, err := e.Turn(ctx, TurnRequest{ThreadID: "t", Content: "hi"})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, ms.SaveCount())
}

func TestEngine_WaiterOnBusyThreadHonoursCancellation(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	table := singleHandlerTable(t, specialist.HandlerFunc(
		func(ctx context.Context, h conversation.History) conversation.Message {
			if calls.Add(1) == 1 {
				close(entered)
				<-release
			}
			return specialist.Reply("done")
		}))
	e, ms := newTestEngine(t, Options{Table: table})

	firstErr := make(chan error, 1)
	go func() {
		_, err := e.Turn(context.Background(), TurnRequest{ThreadID: "t", Content: "slow"})
		firstErr <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := e.Turn(ctx, TurnRequest{ThreadID: "t", Content: "impatient"})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, CodeCancelled, CodeOf(err))
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	require.NoError(t, <-firstErr)
	assert.Equal(t, 1, ms.SaveCount())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, e.locks.size())
}

func singleHandlerTable(t *testing.T, h specialist.Handler) *routing.Table[specialist.Handler] {
	t.Helper()
	table := routing.NewTable[specialist.Handler]()
	for _, d := range routing.Destinations() {
		require.NoError(t, table.Register(d, h))
	}
	return table
}

func TestEngine_HandlerPanicCommitsDegradedReply(t *testing.T) {
	table := singleHandlerTable(t, specialist.HandlerFunc(
		func(ctx context.Context, h conversation.History) conversation.Message { panic("boom") }))
	e, ms := newTestEngine(t, Options{Table: table})

	res, err := e.Turn(context.Background(), TurnRequest{ThreadID: "t", Content: "hi"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, specialist.ReplyUnavailable, res.Reply.Content)
	assert.Equal(t, 1, ms.SaveCount())
}

func TestEngine_HandlerTimeoutCommitsDegradedReply(t *testing.T) {
	table := singleHandlerTable(t, specialist.HandlerFunc(
		func(ctx context.Context, h conversation.History) conversation.Message {
			<-ctx.Done()
			return specialist.Degraded(ctx)
		}))
	e, _ := newTestEngine(t, Options{Table: table, HandleTimeout: 10 * time.Millisecond})

	res, err := e.Turn(context.Background(), TurnRequest{ThreadID: "t", Content: "hi"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, specialist.ReplyTimeout, res.Reply.Content)
}

func TestEngine_EmptyReplyAndWrongRoleAreNormalized(t *testing.T) {
	replies := []conversation.Message{
		{Role: conversation.RoleAssistant, Content: ""},
		{Role: conversation.RoleUser, Content: "sneaky"},
	}
	var n atomic.Int32
	table := singleHandlerTable(t, specialist.HandlerFunc(
		func(ctx context.Context, h conversation.History) conversation.Message {
			return replies[n.Add(1)-1]
		}))
	e, _ := newTestEngine(t, Options{Table: table})
	ctx := context.Background()

	res, err := e.Turn(ctx, TurnRequest{ThreadID: "t", Content: "one"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)

	res, err = e.Turn(ctx, TurnRequest{ThreadID: "t", Content: "two"})
	require.NoError(t, err)
	assert.Equal(t, conversation.RoleAssistant, res.Reply.Role)
	assert.Equal(t, "sneaky", res.Reply.Content)
}

func TestEngine_HandlerCannotMutateHistory(t *testing.T) {
	table := singleHandlerTable(t, specialist.HandlerFunc(
		func(ctx context.Context, h conversation.History) conversation.Message {
			h[0].Content = "tampered"
			return specialist.Reply("ok")
		}))
	e, _ := newTestEngine(t, Options{Table: table})

	_, err := e.Turn(context.Background(), TurnRequest{ThreadID: "t", Content: "original"})
	require.NoError(t, err)

	cp, err := e.History(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "original", cp.History[0].Content)
}

func TestEngine_ReplayByRequestID(t *testing.T) {
	var calls atomic.Int32
	classifier := routing.ClassifierFunc(func(ctx context.Context, h conversation.History) (routing.Decision, error) {
		calls.Add(1)
		return routing.Decision{Destination: routing.TechSupport}, nil
	})
	replay, err := dedupe.New[*TurnResult](time.Minute, 10)
	require.NoError(t, err)
	e, ms := newTestEngine(t, Options{Classifier: classifier, Replay: replay})
	ctx := context.Background()

	first, err := e.Turn(ctx, TurnRequest{ThreadID: "t", Content: "app crashed", RequestID: "req-1"})
	require.NoError(t, err)
	second, err := e.Turn(ctx, TurnRequest{ThreadID: "t", Content: "app crashed", RequestID: "req-1"})
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Reply, second.Reply)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, ms.SaveCount())

	// Same request id on another thread is a different turn.
	_, err = e.Turn(ctx, TurnRequest{ThreadID: "other", Content: "app crashed", RequestID: "req-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, ms.SaveCount())
}

func TestEngine_RecordsUsageAfterCommit(t *testing.T) {
	classifier := routing.ClassifierFunc(func(ctx context.Context, h conversation.History) (routing.Decision, error) {
		llm.RecordUsage(ctx, llm.Usage{InputTokens: 100, OutputTokens: 5})
		return routing.Decision{Destination: routing.Billing}, nil
	})
	ms := store.NewMockStore()
	e, _ := newTestEngine(t, Options{Classifier: classifier, Store: ms, Usage: ms})

	res, err := e.Turn(context.Background(), TurnRequest{ThreadID: "t", Content: "hi", RequestID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Usage.InputTokens)

	usage, err := ms.GetThreadUsage(context.Background(), "t")
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, "r1", usage[0].RequestID)
	assert.Equal(t, routing.Billing, usage[0].Destination)
	assert.Equal(t, int64(5), usage[0].OutputTokens)
}

func TestEngine_SerializesTurnsOnOneThread(t *testing.T) {
	e, ms := newTestEngine(t, Options{})
	ctx := context.Background()

	const threads, turns = 4, 12
	g, gctx := errgroup.WithContext(ctx)
	for th := 0; th < threads; th++ {
		threadID := fmt.Sprintf("thread-%d", th)
		for i := 0; i < turns; i++ {
			content := fmt.Sprintf("%s message %d", threadID, i)
			g.Go(func() error {
				_, err := e.Turn(gctx, TurnRequest{ThreadID: threadID, Content: content})
				return err
			})
		}
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, threads*turns, ms.SaveCount())
	assert.Equal(t, 0, e.locks.size(), "keyed mutex entries should be reclaimed")

	for th := 0; th < threads; th++ {
		threadID := fmt.Sprintf("thread-%d", th)
		cp, err := e.History(ctx, threadID)
		require.NoError(t, err)
		require.Len(t, cp.History, 2*turns)
		require.NoError(t, cp.History.Validate())

		seen := map[string]bool{}
		for i := 0; i < len(cp.History); i += 2 {
			user, reply := cp.History[i], cp.History[i+1]
			assert.Equal(t, conversation.RoleUser, user.Role)
			assert.Equal(t, conversation.RoleAssistant, reply.Role)
			assert.Equal(t, "billing: "+user.Content, reply.Content, "reply must pair with its own message")
			seen[user.Content] = true
		}
		assert.Len(t, seen, turns)
	}
}

func TestEngine_DifferentThreadsRunInParallel(t *testing.T) {
	release := make(chan struct{})
	table := singleHandlerTable(t, specialist.HandlerFunc(
		func(ctx context.Context, h conversation.History) conversation.Message {
			last, _ := h.LastUser()
			if strings.HasPrefix(last.Content, "slow") {
				select {
				case <-release:
				case <-ctx.Done():
					return specialist.Degraded(ctx)
				}
			}
			return specialist.Reply("ok")
		}))
	e, _ := newTestEngine(t, Options{Table: table, HandleTimeout: 5 * time.Second})
	ctx := context.Background()

	var g errgroup.Group
	g.Go(func() error {
		res, err := e.Turn(ctx, TurnRequest{ThreadID: "a", Content: "slow"})
		if err == nil && res.Degraded {
			return errors.New("slow turn timed out: threads were serialized")
		}
		return err
	})

	_, err := e.Turn(ctx, TurnRequest{ThreadID: "b", Content: "fast"})
	require.NoError(t, err)
	close(release)
	require.NoError(t, g.Wait())
}

func TestEngine_Threads(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := e.Turn(ctx, TurnRequest{ThreadID: id, Content: "hi"})
		require.NoError(t, err)
	}

	threads, err := e.Threads(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, threads, 2)
	assert.NoError(t, e.Ping(ctx))
}

// Scenario: an empty thread asks for a refund, is routed to billing, and the
// billing specialist answers with the refund policy after checking the plan.
func TestScenario_RefundRoutesToBilling(t *testing.T) {
	provider := capability.NewMockProvider()
	provider.Users["alice@example.com"] = capability.User{UserID: "u-alice", FullName: "Alice Moreau", Email: "alice@example.com"}
	provider.Subscriptions["u-alice"] = capability.Subscription{Status: "active", Tier: capability.TierBasic, MonthlyQuota: 5}

	triage := llm.NewScriptedClient().Reply(`{"destination":"billing_agent","sentiment":"neutral","urgency":"low"}`)
	model := llm.NewScriptedClient().
		CallTool("c1", capability.ToolSubscriptionStatus, `{"user_id":"u-alice"}`).
		Reply("You're on the basic plan. Per our refund policy, partial months are not refunded.")

	table, err := specialist.NewStandardTable(specialist.Options{Client: model, Provider: provider})
	require.NoError(t, err)
	e, ms := newTestEngine(t, Options{
		Classifier: routing.NewLLMClassifier(triage, nil),
		Table:      table,
	})

	res, err := e.Turn(context.Background(), TurnRequest{ThreadID: "refund", Content: "Can I get a refund?"})
	require.NoError(t, err)

	assert.Equal(t, routing.Billing, res.Decision.Destination)
	assert.Contains(t, res.Reply.Content, "refund policy")
	assert.True(t, provider.Called(capability.ToolSubscriptionStatus))

	cp, err := ms.Load(context.Background(), "refund")
	require.NoError(t, err)
	assert.Len(t, cp.History, 2)
}

// Scenario: a thread with four prior messages asks to cancel the whole
// subscription. It must reach retention and nothing may be cancelled.
func TestScenario_CancelSubscriptionRoutesToRetention(t *testing.T) {
	provider := capability.NewMockProvider()
	provider.Users["bruno@example.com"] = capability.User{UserID: "u-bruno", FullName: "Bruno Diaz", Email: "bruno@example.com"}

	ms := store.NewMockStore()
	var prior conversation.History
	for i, text := range []string{"hi", "Hello! How can I help?", "my email is bruno@example.com", "Thanks Bruno, what can I do for you?"} {
		role := conversation.RoleUser
		if i%2 == 1 {
			role = conversation.RoleAssistant
		}
		prior = prior.Append(role, text)
	}
	require.NoError(t, ms.Save(context.Background(), &store.Checkpoint{ThreadID: "leaving", History: prior}))

	table, err := specialist.NewStandardTable(specialist.Options{Provider: provider})
	require.NoError(t, err)
	e, _ := newTestEngine(t, Options{
		Classifier: routing.KeywordClassifier{},
		Table:      table,
		Store:      ms,
	})

	res, err := e.Turn(context.Background(), TurnRequest{ThreadID: "leaving", Content: "I want to cancel my subscription"})
	require.NoError(t, err)

	assert.Equal(t, routing.Retention, res.Decision.Destination)
	assert.False(t, res.Degraded)
	assert.Contains(t, res.Reply.Content, "pause")
	for _, op := range []string{capability.ToolCancelReservation, capability.ToolUpdateSubscription, capability.ToolBookReservation} {
		assert.False(t, provider.Called(op), "retention must not call %s", op)
	}

	cp, err := ms.Load(context.Background(), "leaving")
	require.NoError(t, err)
	require.Len(t, cp.History, 6)
	if diff := cmp.Diff(prior, cp.History[:4], cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("prior history changed (-want +got):\n%s", diff)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "classifying", StateClassifying.String())
	assert.Equal(t, "dispatching", StateDispatching.String())
	assert.Equal(t, "committing", StateCommitting.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestTurnError(t *testing.T) {
	cause := errors.New("disk full")
	err := error(turnError(CodePersistence, "commit", "t", cause))

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrClassification)
	assert.Contains(t, err.Error(), "persistence_failed")
	assert.Equal(t, CodeInternal, CodeOf(cause))
}
