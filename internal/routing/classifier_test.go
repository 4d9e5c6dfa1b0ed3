// ABOUTME: Tests for the keyword and model-backed classifiers
// ABOUTME: Uses the scripted model client so no network is involved

package routing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/switchboard/internal/conversation"
	"github.com/2389/switchboard/internal/llm"
)

func userHistory(msgs ...string) conversation.History {
	var h conversation.History
	for i, m := range msgs {
		if i%2 == 0 {
			h = h.Append(conversation.RoleUser, m)
		} else {
			h = h.Append(conversation.RoleAssistant, m)
		}
	}
	return h
}

func TestKeywordClassifier_ClearCutInputs(t *testing.T) {
	tests := []struct {
		msg  string
		want Destination
	}{
		{"what's my subscription tier", Billing},
		{"Can I get a refund?", Billing},
		{"cancel my yoga class reservation", Booking},
		{"I'd like to book a spin class on Friday", Booking},
		{"The app keeps crashing when I log in", TechSupport},
		{"How do I reset my password?", TechSupport},
		{"I want to cancel my subscription", Retention},
		{"Can I pause my membership for a while?", Retention},
	}

	c := KeywordClassifier{}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			// Repeated trials stay on the same destination.
			for i := 0; i < 10; i++ {
				d, err := c.Classify(context.Background(), userHistory(tt.msg))
				require.NoError(t, err)
				assert.Equal(t, tt.want, d.Destination)
			}
		})
	}
}

func TestKeywordClassifier_UsesLatestUserMessage(t *testing.T) {
	h := userHistory(
		"The app crashes on login",
		"Try reinstalling the app.",
		"Thanks. Separately, I want to cancel my subscription",
	)
	d, err := KeywordClassifier{}.Classify(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, Retention, d.Destination)
	assert.Equal(t, SentimentPositive, d.Sentiment)
}

func TestKeywordClassifier_Metadata(t *testing.T) {
	d, err := KeywordClassifier{}.Classify(context.Background(),
		userHistory("This is ridiculous, the app is broken and I need it fixed immediately"))
	require.NoError(t, err)
	assert.Equal(t, TechSupport, d.Destination)
	assert.Equal(t, SentimentFrustrated, d.Sentiment)
	assert.Equal(t, UrgencyCritical, d.Urgency)
}

func TestKeywordClassifier_NoMatch(t *testing.T) {
	_, err := KeywordClassifier{}.Classify(context.Background(), userHistory("hello there"))
	assert.ErrorIs(t, err, ErrNoDecision)

	d, err := KeywordClassifier{Fallback: TechSupport}.Classify(context.Background(), userHistory("hello there"))
	require.NoError(t, err)
	assert.Equal(t, TechSupport, d.Destination)
}

func TestKeywordClassifier_EmptyHistory(t *testing.T) {
	_, err := KeywordClassifier{}.Classify(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoDecision)
}

func TestKeywordClassifier_InvalidFallback(t *testing.T) {
	_, err := KeywordClassifier{Fallback: "sales"}.Classify(context.Background(), userHistory("hello"))
	assert.ErrorIs(t, err, ErrInvalidDestination)
}

func TestLLMClassifier_ParsesReply(t *testing.T) {
	client := llm.NewScriptedClient().
		Reply("```json\n{\"destination\": \"retention_agent\", \"sentiment\": \"Negative\", \"urgency\": \"Medium\"}\n```")
	c := NewLLMClassifier(client, nil)

	d, err := c.Classify(context.Background(), userHistory("I want to cancel my subscription"))
	require.NoError(t, err)
	assert.Equal(t, Decision{Destination: Retention, Sentiment: SentimentNegative, Urgency: UrgencyMedium}, d)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, TriagePrompt, reqs[0].System)
	require.NotNil(t, reqs[0].Temperature)
	assert.Equal(t, 0.0, *reqs[0].Temperature)
	require.Len(t, reqs[0].Messages, 1)
	assert.True(t, strings.Contains(reqs[0].Messages[0].Content, "user: I want to cancel my subscription"))
}

func TestLLMClassifier_InvalidDestinationIsHardError(t *testing.T) {
	client := llm.NewScriptedClient().Reply(`{"destination": "sales_agent"}`)
	_, err := NewLLMClassifier(client, nil).Classify(context.Background(), userHistory("hi"))
	assert.ErrorIs(t, err, ErrInvalidDestination)
}

func TestLLMClassifier_EmptyOrGarbageReply(t *testing.T) {
	for _, reply := range []string{"", "I think billing", `{"destination": ""}`, `{"destination": `} {
		client := llm.NewScriptedClient().Reply(reply)
		_, err := NewLLMClassifier(client, nil).Classify(context.Background(), userHistory("hi"))
		assert.ErrorIs(t, err, ErrNoDecision, "reply %q", reply)
	}
}

func TestLLMClassifier_ModelError(t *testing.T) {
	boom := errors.New("upstream unavailable")
	client := llm.NewScriptedClient().Fail(boom)
	_, err := NewLLMClassifier(client, nil).Classify(context.Background(), userHistory("hi"))
	assert.ErrorIs(t, err, boom)
}

func TestClassifierFunc(t *testing.T) {
	var got conversation.History
	f := ClassifierFunc(func(_ context.Context, h conversation.History) (Decision, error) {
		got = h
		return Decision{Destination: Booking}, nil
	})
	h := userHistory("book me in")
	d, err := f.Classify(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, Booking, d.Destination)
	assert.Equal(t, h, got)
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))

	// "é" is two bytes; cutting at 2 would split it.
	got := truncate("aé€x", 2)
	assert.Equal(t, "a...", got)
	assert.True(t, utf8.ValidString(got))

	got = truncate("€€€", 4)
	assert.Equal(t, "€...", got)
	assert.True(t, utf8.ValidString(got))
}
