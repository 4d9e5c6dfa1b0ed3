// ABOUTME: Model-free specialists backed directly by the capability provider
// ABOUTME: Keep the gateway usable end to end when no model provider is configured

package specialist

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/2389/switchboard/internal/capability"
	"github.com/2389/switchboard/internal/conversation"
	"github.com/2389/switchboard/internal/routing"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// lastEmail returns the most recent email address mentioned by the user.
func lastEmail(history conversation.History) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != conversation.RoleUser {
			continue
		}
		if m := emailPattern.FindAllString(history[i].Content, -1); len(m) > 0 {
			return m[len(m)-1]
		}
	}
	return ""
}

func lastUserText(history conversation.History) string {
	if msg, ok := history.LastUser(); ok {
		return msg.Content
	}
	return ""
}

// guard wraps an offline handler with panic recovery and the degraded reply.
func guard(name string, logger *slog.Logger, fn func(ctx context.Context, history conversation.History) (string, error)) Handler {
	logger = logger.With("component", "specialist", "specialist", name, "mode", "offline")
	return HandlerFunc(func(ctx context.Context, history conversation.History) (reply conversation.Message) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("specialist panicked", "panic", r)
				reply = Degraded(ctx)
			}
		}()
		text, err := fn(ctx, history)
		if err != nil {
			logger.Warn("offline specialist failed", "error", err, "code", capability.CodeOf(err))
			return Degraded(ctx)
		}
		return Reply(text)
	})
}

func offlineHandlers(p capability.Provider, logger *slog.Logger) map[routing.Destination]Handler {
	return map[routing.Destination]Handler{
		routing.Billing:     guard("billing", logger, offlineBilling(p)),
		routing.Booking:     guard("booking", logger, offlineBooking(p)),
		routing.TechSupport: guard("tech_support", logger, offlineTechSupport(p)),
		routing.Retention:   guard("retention", logger, offlineRetention(p)),
	}
}

// NewOffline returns the model-free handler for d.
func NewOffline(d routing.Destination, p capability.Provider, logger *slog.Logger) (Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h, ok := offlineHandlers(p, logger)[d]
	if !ok {
		return nil, fmt.Errorf("%w: %q", routing.ErrInvalidDestination, d)
	}
	return h, nil
}

func offlineBilling(p capability.Provider) func(context.Context, conversation.History) (string, error) {
	return func(ctx context.Context, history conversation.History) (string, error) {
		policy, err := p.RetentionPolicy(ctx)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		email := lastEmail(history)
		if email != "" {
			user, err := p.LookupUser(ctx, email)
			switch {
			case capability.CodeOf(err) == capability.CodeUserNotFound:
				fmt.Fprintf(&b, "I couldn't find an account for %s. ", email)
			case err != nil:
				return "", err
			default:
				sub, err := p.SubscriptionStatus(ctx, user.UserID)
				if err != nil && capability.CodeOf(err) != capability.CodeSubscriptionNotFound {
					return "", err
				}
				if sub != nil {
					fmt.Fprintf(&b, "%s, your %s subscription is %s with %d classes per month. ",
						user.FullName, sub.Tier, sub.Status, sub.MonthlyQuota)
				}
			}
		}
		fmt.Fprintf(&b, "Our refund policy: %s.", clause(policy.RefundPolicy))
		if email == "" {
			b.WriteString(" If you share the email on your account I can look up your subscription.")
		}
		return b.String(), nil
	}
}

func offlineBooking(p capability.Provider) func(context.Context, conversation.History) (string, error) {
	return func(ctx context.Context, history conversation.History) (string, error) {
		email := lastEmail(history)
		if email == "" {
			return "I can help with your reservations. What is the email address on your account?", nil
		}
		user, err := p.LookupUser(ctx, email)
		if capability.CodeOf(err) == capability.CodeUserNotFound {
			return fmt.Sprintf("I couldn't find an account for %s. Could you double-check the address?", email), nil
		}
		if err != nil {
			return "", err
		}
		reservations, err := p.ListReservations(ctx, user.UserID)
		if err != nil {
			return "", err
		}
		if len(reservations) == 0 {
			return fmt.Sprintf("%s, you have no reservations right now. Tell me which class you'd like and I'll help you book it.", user.FullName), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s, here are your reservations:", user.FullName)
		for _, r := range reservations {
			fmt.Fprintf(&b, "\n- %s on %s (%s, %s)", r.Class, r.When, r.Status, r.ReservationID)
		}
		b.WriteString("\nLet me know if you'd like to change any of them.")
		return b.String(), nil
	}
}

func offlineTechSupport(p capability.Provider) func(context.Context, conversation.History) (string, error) {
	return func(ctx context.Context, history conversation.History) (string, error) {
		query := lastUserText(history)
		articles, err := p.SearchKnowledge(ctx, query)
		if err != nil {
			return "", err
		}
		if len(articles) == 0 {
			articles, err = searchByWords(ctx, p, query)
			if err != nil {
				return "", err
			}
		}
		if len(articles) == 0 {
			return "I couldn't find an article that covers this. I've noted your question so a member of our team can follow up.", nil
		}
		var b strings.Builder
		b.WriteString("Here's what I found:")
		for _, a := range articles {
			fmt.Fprintf(&b, "\n\n%s\n%s", a.Title, a.Content)
		}
		return b.String(), nil
	}
}

// searchByWords retries the knowledge search one significant word at a time.
func searchByWords(ctx context.Context, p capability.Provider, query string) ([]capability.Article, error) {
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,!?;:'\"")
		if len(word) < 4 {
			continue
		}
		articles, err := p.SearchKnowledge(ctx, word)
		if err != nil {
			return nil, err
		}
		if len(articles) > 0 {
			return articles, nil
		}
	}
	return nil, nil
}

func offlineRetention(p capability.Provider) func(context.Context, conversation.History) (string, error) {
	return func(ctx context.Context, history conversation.History) (string, error) {
		policy, err := p.RetentionPolicy(ctx)
		if err != nil {
			return "", err
		}
		name := "I"
		if email := lastEmail(history); email != "" {
			if user, err := p.LookupUser(ctx, email); err == nil {
				name = user.FullName + ", I"
			}
		}
		return fmt.Sprintf("%s'm sorry to hear you're thinking of leaving. Before you go, here are some options: %s. %s. "+
			"If you still want to cancel, you can do it from the app; note that %s.",
			name, clause(policy.PauseOption), clause(policy.RetentionOffer), lowerFirst(clause(policy.CancellationFee))), nil
	}
}

// clause strips trailing punctuation so policy text can be embedded in a sentence.
func clause(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
