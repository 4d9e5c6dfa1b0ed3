// ABOUTME: Adapts capability operations into model tool definitions and invokers
// ABOUTME: Every call returns JSON; failures and panics become {"error": code} payloads

package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Tool names as exposed to the model.
const (
	ToolLookupUser         = "lookup_user"
	ToolSubscriptionStatus = "get_subscription_status"
	ToolUpdateSubscription = "update_subscription"
	ToolListReservations   = "get_user_reservations"
	ToolCancelReservation  = "cancel_reservation"
	ToolBookReservation    = "book_reservation"
	ToolRetentionPolicy    = "get_retention_policy"
	ToolSearchKnowledge    = "search_knowledge_base"
)

// Tool is one callable capability.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	// SideEffect marks tools that mutate records.
	SideEffect bool
	invoke     func(ctx context.Context, p Provider, args map[string]any) (any, error)
}

// Result is the outcome of a tool call as seen by the model.
type Result struct {
	Content string // JSON
	IsError bool
	Code    Code
}

func stringParam(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func argString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", Fail(CodeInvalidArgument, "missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", Fail(CodeInvalidArgument, "argument %q must be a string", key)
	}
	return s, nil
}

// catalog lists every tool the gateway knows how to expose.
var catalog = map[string]Tool{
	ToolLookupUser: {
		Name:        ToolLookupUser,
		Description: "Search for a user by email. Returns user_id, full_name, email and is_blocked.",
		Parameters:  objectSchema(map[string]any{"email": stringParam("The member's email address")}, "email"),
		invoke: func(ctx context.Context, p Provider, args map[string]any) (any, error) {
			email, err := argString(args, "email")
			if err != nil {
				return nil, err
			}
			return p.LookupUser(ctx, email)
		},
	},
	ToolSubscriptionStatus: {
		Name:        ToolSubscriptionStatus,
		Description: "Get subscription details (status, tier, monthly quota, expiry) for a user_id.",
		Parameters:  objectSchema(map[string]any{"user_id": stringParam("The member's user_id")}, "user_id"),
		invoke: func(ctx context.Context, p Provider, args map[string]any) (any, error) {
			id, err := argString(args, "user_id")
			if err != nil {
				return nil, err
			}
			return p.SubscriptionStatus(ctx, id)
		},
	},
	ToolUpdateSubscription: {
		Name:        ToolUpdateSubscription,
		Description: "Change a user's subscription tier to 'basic' or 'elite'. Elite includes 20 classes a month, basic 5.",
		Parameters: objectSchema(map[string]any{
			"user_id":  stringParam("The member's user_id"),
			"new_tier": map[string]any{"type": "string", "enum": []string{TierBasic, TierElite}},
		}, "user_id", "new_tier"),
		SideEffect: true,
		invoke: func(ctx context.Context, p Provider, args map[string]any) (any, error) {
			id, err := argString(args, "user_id")
			if err != nil {
				return nil, err
			}
			tier, err := argString(args, "new_tier")
			if err != nil {
				return nil, err
			}
			return p.UpdateSubscription(ctx, id, tier)
		},
	},
	ToolListReservations: {
		Name:        ToolListReservations,
		Description: "List all reservations for a user_id with class name, time and status.",
		Parameters:  objectSchema(map[string]any{"user_id": stringParam("The member's user_id")}, "user_id"),
		invoke: func(ctx context.Context, p Provider, args map[string]any) (any, error) {
			id, err := argString(args, "user_id")
			if err != nil {
				return nil, err
			}
			res, err := p.ListReservations(ctx, id)
			if err != nil {
				return nil, err
			}
			if len(res) == 0 {
				return map[string]string{"message": "No reservations found"}, nil
			}
			return res, nil
		},
	},
	ToolCancelReservation: {
		Name:        ToolCancelReservation,
		Description: "Cancel a single class reservation by reservation_id. This does not cancel the subscription.",
		Parameters:  objectSchema(map[string]any{"reservation_id": stringParam("The reservation to cancel")}, "reservation_id"),
		SideEffect:  true,
		invoke: func(ctx context.Context, p Provider, args map[string]any) (any, error) {
			id, err := argString(args, "reservation_id")
			if err != nil {
				return nil, err
			}
			return p.CancelReservation(ctx, id)
		},
	},
	ToolBookReservation: {
		Name:        ToolBookReservation,
		Description: "Book a class/experience for a user. Fails if the class is full or already booked.",
		Parameters: objectSchema(map[string]any{
			"user_id":       stringParam("The member's user_id"),
			"experience_id": stringParam("The experience to book"),
		}, "user_id", "experience_id"),
		SideEffect: true,
		invoke: func(ctx context.Context, p Provider, args map[string]any) (any, error) {
			id, err := argString(args, "user_id")
			if err != nil {
				return nil, err
			}
			exp, err := argString(args, "experience_id")
			if err != nil {
				return nil, err
			}
			return p.BookReservation(ctx, id, exp)
		},
	},
	ToolRetentionPolicy: {
		Name:        ToolRetentionPolicy,
		Description: "Get the current cancellation, pause, refund and retention offer policy.",
		Parameters:  objectSchema(map[string]any{}),
		invoke: func(ctx context.Context, p Provider, _ map[string]any) (any, error) {
			return p.RetentionPolicy(ctx)
		},
	},
	ToolSearchKnowledge: {
		Name:        ToolSearchKnowledge,
		Description: "Search the help center for articles matching a short keyword query. Returns up to 3 articles.",
		Parameters:  objectSchema(map[string]any{"query": stringParam("A keyword such as 'password' or 'crash'")}, "query"),
		invoke: func(ctx context.Context, p Provider, args map[string]any) (any, error) {
			q, err := argString(args, "query")
			if err != nil {
				return nil, err
			}
			articles, err := p.SearchKnowledge(ctx, q)
			if err != nil {
				return nil, err
			}
			if len(articles) == 0 {
				return map[string]string{"message": "No relevant articles found in knowledge base."}, nil
			}
			return articles, nil
		},
	},
}

// Toolset is a named subset of capabilities bound to one provider.
type Toolset struct {
	provider Provider
	tools    []Tool
	byName   map[string]Tool
	logger   *slog.Logger
}

// NewToolset binds the named tools to provider. Unknown names are an error.
func NewToolset(provider Provider, logger *slog.Logger, names ...string) (*Toolset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ts := &Toolset{
		provider: provider,
		byName:   make(map[string]Tool, len(names)),
		logger:   logger.With("component", "toolset"),
	}
	for _, name := range names {
		tool, ok := catalog[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", name)
		}
		if _, dup := ts.byName[name]; dup {
			continue
		}
		ts.tools = append(ts.tools, tool)
		ts.byName[name] = tool
	}
	return ts, nil
}

// Tools returns the bound tools in registration order.
func (t *Toolset) Tools() []Tool {
	out := make([]Tool, len(t.tools))
	copy(out, t.tools)
	return out
}

// Names returns the bound tool names in registration order.
func (t *Toolset) Names() []string {
	names := make([]string, len(t.tools))
	for i, tool := range t.tools {
		names[i] = tool.Name
	}
	return names
}

// Has reports whether name is bound.
func (t *Toolset) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Call executes a tool with JSON arguments. It never returns an error and
// never panics: every failure is rendered into the JSON result.
func (t *Toolset) Call(ctx context.Context, name, arguments string) (res Result) {
	logger := t.logger.With("tool", name)

	tool, ok := t.byName[name]
	if !ok {
		logger.Warn("model requested unbound tool")
		return errorResult(Fail(CodeUnknownTool, "tool %q is not available", name))
	}

	args := map[string]any{}
	if strings.TrimSpace(arguments) != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return errorResult(Fail(CodeInvalidArgument, "arguments must be a JSON object"))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("tool panicked", "panic", r)
			res = errorResult(&Failure{Code: CodeInternal, Message: "tool failed unexpectedly", Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	out, err := tool.invoke(ctx, t.provider, args)
	if err != nil {
		logger.Info("tool call failed", "code", CodeOf(err), "error", err)
		return errorResult(err)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return errorResult(&Failure{Code: CodeInternal, Message: "result could not be encoded", Err: err})
	}
	logger.Debug("tool call succeeded", "side_effect", tool.SideEffect)
	return Result{Content: string(data)}
}

func errorResult(err error) Result {
	code := CodeOf(err)
	msg := "the operation could not be completed"
	var f *Failure
	if errors.As(err, &f) && code != CodeUnavailable && code != CodeInternal {
		msg = f.Message
	}
	data, _ := json.Marshal(map[string]string{"error": string(code), "message": msg})
	return Result{Content: string(data), IsError: true, Code: code}
}
