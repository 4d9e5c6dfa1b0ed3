// ABOUTME: Bounded tool-calling loop that turns a transcript into one reply
// ABOUTME: Calls the model, runs requested tools, feeds results back, stops on text or step budget

package specialist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/switchboard/internal/capability"
	"github.com/2389/switchboard/internal/conversation"
	"github.com/2389/switchboard/internal/llm"
)

// DefaultMaxSteps bounds model calls per turn.
const DefaultMaxSteps = 6

// Config describes one specialist agent.
type Config struct {
	Name     string
	Prompt   string
	Client   llm.Client
	Tools    *capability.Toolset
	MaxSteps int
	Logger   *slog.Logger
}

// Agent is a Handler backed by a chat model and a toolset.
type Agent struct {
	name     string
	prompt   string
	client   llm.Client
	tools    *capability.Toolset
	defs     []llm.ToolDefinition
	maxSteps int
	logger   *slog.Logger
}

// NewAgent creates an agent from cfg.
func NewAgent(cfg Config) (*Agent, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("specialist %s: model client is required", cfg.Name)
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("specialist %s: toolset is required", cfg.Name)
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Agent{
		name:     cfg.Name,
		prompt:   cfg.Prompt,
		client:   cfg.Client,
		tools:    cfg.Tools,
		maxSteps: cfg.MaxSteps,
		logger:   logger.With("component", "specialist", "specialist", cfg.Name),
	}
	for _, tool := range cfg.Tools.Tools() {
		a.defs = append(a.defs, llm.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	return a, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Tools returns the names of the tools this agent may call.
func (a *Agent) Tools() []string { return a.tools.Names() }

// Handle implements Handler.
func (a *Agent) Handle(ctx context.Context, history conversation.History) (reply conversation.Message) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("specialist panicked", "panic", r)
			reply = Degraded(ctx)
		}
	}()

	system, transcript := a.buildTranscript(history)

	for step := 1; step <= a.maxSteps; step++ {
		resp, err := a.client.Complete(ctx, llm.Request{
			System:   system,
			Messages: transcript,
			Tools:    a.defs,
		})
		if err != nil {
			a.logger.Warn("model call failed", "step", step, "error", err)
			return Degraded(ctx)
		}
		llm.RecordUsage(ctx, resp.Usage)

		if len(resp.ToolCalls) == 0 {
			text := strings.TrimSpace(resp.Text)
			if text == "" {
				a.logger.Warn("model returned an empty reply", "step", step)
				return Degraded(ctx)
			}
			a.logger.Debug("specialist replied", "steps", step)
			return Reply(text)
		}

		transcript = append(transcript, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return Degraded(ctx)
			}
			result := a.tools.Call(ctx, call.Name, call.Arguments)
			a.logger.Info("tool called", "tool", call.Name, "step", step, "is_error", result.IsError, "code", result.Code)
			transcript = append(transcript, llm.Message{
				Role:       llm.RoleTool,
				Content:    result.Content,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	a.logger.Warn("step budget exhausted", "max_steps", a.maxSteps)
	return Reply(ReplyEscalated)
}

// buildTranscript maps the history onto model messages. System messages in
// the history are appended to the agent prompt rather than sent as turns.
func (a *Agent) buildTranscript(history conversation.History) (string, []llm.Message) {
	system := a.prompt
	out := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case conversation.RoleSystem:
			system += "\n\n" + msg.Content
		case conversation.RoleAssistant:
			out = append(out, llm.Message{Role: llm.RoleAssistant, Content: msg.Content})
		default:
			out = append(out, llm.Message{Role: llm.RoleUser, Content: msg.Content})
		}
	}
	return system, out
}
