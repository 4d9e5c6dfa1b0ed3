// ABOUTME: The four specialist agents with their prompts and tool sets
// ABOUTME: NewStandardTable binds every destination to a handler and verifies coverage

package specialist

import (
	"fmt"
	"log/slog"

	"github.com/2389/switchboard/internal/capability"
	"github.com/2389/switchboard/internal/llm"
	"github.com/2389/switchboard/internal/routing"
)

const billingPrompt = `You are a Billing Specialist for CultPass.
Help members with subscriptions, plan tiers, quotas, payments and refunds.
Look the member up by email before discussing account details. Ask for the email if it is not known.
Only change a subscription tier when the member explicitly asks for it.
Refunds are handled by our support team within 5 business days after review; explain this policy rather than promising a refund.`

const bookingPrompt = `You are a Booking Specialist for CultPass.
Help members view, book and cancel class reservations.
Look the member up by email before acting. Ask for the email if it is not known.
Confirm which reservation or experience the member means before booking or cancelling.
If a class is full or already booked, say so plainly and suggest another option.`

const techSupportPrompt = `You are a Technical Support Specialist for CultPass.
Answer questions about the app, logins, payments screens and general how-to topics.
Search the knowledge base before answering and base your answer on the articles you find.
If nothing relevant is found, say so and offer to escalate to a human agent.`

const retentionPrompt = `You are a Retention Specialist for CultPass.
Your goal is to understand why the member wants to cancel and offer helpful alternatives.
1. Check the member's details first if not known.
2. Use get_retention_policy to learn what you can offer.
3. Be empathetic but firm on policy. Never process a cancellation yourself; you have no tool for it.
   Offer to pause the subscription or apply the retention discount instead, and tell the member
   they can still cancel from the app if they decide to.`

// Tool sets per specialist. Retention deliberately carries no cancel tool.
var (
	BillingTools = []string{
		capability.ToolLookupUser,
		capability.ToolSubscriptionStatus,
		capability.ToolUpdateSubscription,
		capability.ToolListReservations,
	}
	BookingTools = []string{
		capability.ToolLookupUser,
		capability.ToolListReservations,
		capability.ToolCancelReservation,
		capability.ToolBookReservation,
	}
	TechSupportTools = []string{
		capability.ToolSearchKnowledge,
	}
	RetentionTools = []string{
		capability.ToolLookupUser,
		capability.ToolRetentionPolicy,
		capability.ToolSubscriptionStatus,
	}
)

// Options configures the standard specialists.
type Options struct {
	// Client is the chat model. When nil the offline handlers are used.
	Client   llm.Client
	Provider capability.Provider
	MaxSteps int
	Logger   *slog.Logger
}

func newVariant(name, prompt string, tools []string, opts Options) (*Agent, error) {
	ts, err := capability.NewToolset(opts.Provider, opts.Logger, tools...)
	if err != nil {
		return nil, fmt.Errorf("building %s toolset: %w", name, err)
	}
	return NewAgent(Config{
		Name:     name,
		Prompt:   prompt,
		Client:   opts.Client,
		Tools:    ts,
		MaxSteps: opts.MaxSteps,
		Logger:   opts.Logger,
	})
}

// NewBilling creates the billing specialist.
func NewBilling(opts Options) (*Agent, error) {
	return newVariant("billing", billingPrompt, BillingTools, opts)
}

// NewBooking creates the booking specialist.
func NewBooking(opts Options) (*Agent, error) {
	return newVariant("booking", bookingPrompt, BookingTools, opts)
}

// NewTechSupport creates the technical support specialist.
func NewTechSupport(opts Options) (*Agent, error) {
	return newVariant("tech_support", techSupportPrompt, TechSupportTools, opts)
}

// NewRetention creates the retention specialist. It can look up members and
// the retention policy but cannot cancel anything.
func NewRetention(opts Options) (*Agent, error) {
	return newVariant("retention", retentionPrompt, RetentionTools, opts)
}

// NewStandardTable builds a routing table with one specialist per
// destination. With no model client it falls back to the offline handlers.
func NewStandardTable(opts Options) (*routing.Table[Handler], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("capability provider is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	table := routing.NewTable[Handler]()

	if opts.Client == nil {
		opts.Logger.Info("no model configured, using offline specialists")
		for d, h := range offlineHandlers(opts.Provider, opts.Logger) {
			if err := table.Register(d, h); err != nil {
				return nil, err
			}
		}
		return table, table.Verify()
	}

	constructors := map[routing.Destination]func(Options) (*Agent, error){
		routing.Billing:     NewBilling,
		routing.Booking:     NewBooking,
		routing.TechSupport: NewTechSupport,
		routing.Retention:   NewRetention,
	}
	for d, build := range constructors {
		agent, err := build(opts)
		if err != nil {
			return nil, err
		}
		if err := table.Register(d, agent); err != nil {
			return nil, err
		}
	}
	return table, table.Verify()
}
