// ABOUTME: Classifier contract plus the model-backed and keyword classifiers
// ABOUTME: Classifiers read only the supplied history and return a validated Decision

package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/2389/switchboard/internal/conversation"
	"github.com/2389/switchboard/internal/llm"
)

// ErrNoDecision is returned when a classifier cannot produce any decision.
var ErrNoDecision = errors.New("classifier produced no decision")

// Classifier turns a conversation history into a routing decision.
type Classifier interface {
	Classify(ctx context.Context, history conversation.History) (Decision, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, history conversation.History) (Decision, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, history conversation.History) (Decision, error) {
	return f(ctx, history)
}

// TriagePrompt is the system prompt sent to the model by LLMClassifier.
const TriagePrompt = `You are the triage desk for a fitness and experiences membership service.
Classify the conversation and route it to exactly one specialist:
- billing: subscription status, tier upgrades or downgrades, payments, refunds (NOT cancellations).
- booking: booking classes, checking schedules, cancelling ONE reservation.
- tech_support: technical issues (login, app crash) and general how-to questions.
- retention: requests to CANCEL or PAUSE the whole subscription.

Also judge the user's sentiment (positive, neutral, negative, frustrated) and
urgency (low, medium, high, critical). Base the destination on the latest user message.

Reply with a single JSON object and nothing else:
{"destination": "...", "sentiment": "...", "urgency": "..."}`

// LLMClassifier asks a chat model to classify the transcript.
type LLMClassifier struct {
	client llm.Client
	logger *slog.Logger
}

// NewLLMClassifier creates a classifier backed by client.
func NewLLMClassifier(client llm.Client, logger *slog.Logger) *LLMClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMClassifier{
		client: client,
		logger: logger.With("component", "classifier", "provider", client.Info().Provider),
	}
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, history conversation.History) (Decision, error) {
	if history.Len() == 0 {
		return Decision{}, ErrNoDecision
	}

	resp, err := c.client.Complete(ctx, llm.Request{
		System:      TriagePrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: RenderTranscript(history)}},
		Temperature: llm.Float(0),
	})
	if err != nil {
		return Decision{}, fmt.Errorf("classify: %w", err)
	}
	llm.RecordUsage(ctx, resp.Usage)

	decision, err := ParseDecision(resp.Text)
	if err != nil {
		c.logger.Warn("unparseable classifier reply", "reply", truncate(resp.Text, 200), "error", err)
		return Decision{}, err
	}
	return decision, nil
}

// RenderTranscript formats a history as "role: content" lines.
func RenderTranscript(history conversation.History) string {
	var b strings.Builder
	for _, msg := range history {
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseDecision extracts a Decision from a model reply.
// The reply may wrap the JSON object in prose or a code fence.
func ParseDecision(reply string) (Decision, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return Decision{}, fmt.Errorf("%w: no JSON object in reply", ErrNoDecision)
	}

	var raw struct {
		Destination string `json:"destination"`
		Sentiment   string `json:"sentiment"`
		Urgency     string `json:"urgency"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrNoDecision, err)
	}
	if strings.TrimSpace(raw.Destination) == "" {
		return Decision{}, fmt.Errorf("%w: empty destination", ErrNoDecision)
	}

	dest, err := ParseDestination(raw.Destination)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Destination: dest,
		Sentiment:   NormalizeSentiment(raw.Sentiment),
		Urgency:     NormalizeUrgency(raw.Urgency),
	}, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// KeywordClassifier routes on vocabulary found in the latest user message.
// Whole-subscription cancel and pause requests go to retention before any
// billing vocabulary is considered.
type KeywordClassifier struct {
	// Fallback is used when nothing matches. Empty means ErrNoDecision.
	Fallback Destination
}

var (
	retentionVerbs   = []string{"cancel", "pause", "quit", "terminate", "end my", "stop my"}
	retentionObjects = []string{"subscription", "membership", "plan", "account"}

	keywordTable = []struct {
		dest  Destination
		terms []string
	}{
		{Booking, []string{"class", "reservation", "reserve", "book", "schedule", "slot", "session", "spot"}},
		{Billing, []string{"subscription", "refund", "payment", "pay", "charge", "invoice", "billing", "tier", "upgrade", "downgrade", "price", "quota"}},
		{TechSupport, []string{"login", "log in", "password", "crash", "app", "error", "bug", "how do", "how to", "reset", "sync", "not working"}},
	}

	frustratedTerms = []string{"ridiculous", "angry", "furious", "frustrat", "annoyed", "fed up", "!!"}
	negativeTerms   = []string{"broken", "bad", "disappoint", "problem", "issue", "not working", "unhappy"}
	positiveTerms   = []string{"thanks", "thank you", "great", "love", "awesome", "appreciate"}

	criticalTerms = []string{"emergency", "urgent", "asap", "immediately"}
	highTerms     = []string{" now", "today", "right away", "can't"}
	mediumTerms   = []string{"soon", "this week", "tomorrow"}
)

// Classify implements Classifier.
func (k KeywordClassifier) Classify(ctx context.Context, history conversation.History) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	msg, ok := history.LastUser()
	if !ok {
		return Decision{}, ErrNoDecision
	}
	text := strings.ToLower(msg.Content)

	dest := k.destination(text)
	if dest == "" {
		if k.Fallback == "" {
			return Decision{}, fmt.Errorf("%w: no routing vocabulary matched", ErrNoDecision)
		}
		dest = k.Fallback
	}

	d := Decision{
		Destination: dest,
		Sentiment:   keywordSentiment(text),
		Urgency:     keywordUrgency(text),
	}
	if err := d.Validate(); err != nil {
		return Decision{}, err
	}
	return d, nil
}

func (k KeywordClassifier) destination(text string) Destination {
	if containsAny(text, retentionVerbs) && containsAny(text, retentionObjects) && !containsAny(text, []string{"class", "reservation"}) {
		return Retention
	}

	var best Destination
	bestScore := 0
	for _, row := range keywordTable {
		score := 0
		for _, term := range row.terms {
			if strings.Contains(text, term) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = row.dest, score
		}
	}
	return best
}

func keywordSentiment(text string) Sentiment {
	switch {
	case containsAny(text, frustratedTerms):
		return SentimentFrustrated
	case containsAny(text, negativeTerms):
		return SentimentNegative
	case containsAny(text, positiveTerms):
		return SentimentPositive
	}
	return SentimentNeutral
}

func keywordUrgency(text string) Urgency {
	switch {
	case containsAny(text, criticalTerms):
		return UrgencyCritical
	case containsAny(text, highTerms):
		return UrgencyHigh
	case containsAny(text, mediumTerms):
		return UrgencyMedium
	}
	return UrgencyLow
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
