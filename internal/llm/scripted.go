// ABOUTME: ScriptedClient is a deterministic in-memory Client for tests and offline runs
// ABOUTME: Replays queued responses in order and records every request it receives

package llm

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned when a ScriptedClient has no queued responses left.
var ErrScriptExhausted = errors.New("scripted client has no responses left")

// ScriptedClient returns queued responses in order.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []scripted
	requests  []Request
	info      Info
}

type scripted struct {
	resp *Response
	err  error
}

// NewScriptedClient creates an empty ScriptedClient.
func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{info: Info{Provider: "scripted", Model: "scripted"}}
}

// Reply queues a plain text answer.
func (c *ScriptedClient) Reply(text string) *ScriptedClient {
	return c.Push(&Response{Text: text, FinishReason: "stop"}, nil)
}

// CallTool queues an answer that requests a single tool call.
func (c *ScriptedClient) CallTool(id, name, args string) *ScriptedClient {
	return c.Push(&Response{
		ToolCalls:    []ToolCall{{ID: id, Name: name, Arguments: args}},
		FinishReason: "tool_calls",
	}, nil)
}

// Fail queues an error.
func (c *ScriptedClient) Fail(err error) *ScriptedClient {
	return c.Push(nil, err)
}

// Push queues an arbitrary response/error pair.
func (c *ScriptedClient) Push(resp *Response, err error) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, scripted{resp: resp, err: err})
	return c
}

// Complete implements Client.
func (c *ScriptedClient) Complete(ctx context.Context, req Request) (*Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		c.mu.Unlock()
		return nil, ErrScriptExhausted
	}
	next := c.responses[0]
	c.responses = c.responses[1:]
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if next.err != nil {
		return nil, next.err
	}
	out := *next.resp
	return &out, nil
}

// Requests returns a copy of every request received so far.
func (c *ScriptedClient) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, len(c.requests))
	copy(out, c.requests)
	return out
}

// Info implements Client.
func (c *ScriptedClient) Info() Info { return c.info }
