// ABOUTME: Tests for the OpenAI adapter against a local HTTP stub
// ABOUTME: Verifies request shaping, tool-call decoding, and message conversion

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/switchboard/internal/llm"
)

func newStubServer(t *testing.T, reply string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		body := map[string]any{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		*captured = body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete_Text(t *testing.T) {
	var captured map[string]any
	srv := newStubServer(t, `{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
		"choices": [{"index": 0, "finish_reason": "stop",
			"message": {"role": "assistant", "content": "{\"destination\":\"billing\"}"}}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
	}`, &captured)

	c := New(func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL + "/"
	})
	resp, err := c.Complete(context.Background(), llm.Request{
		System:      "triage",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "refund?"}},
		Temperature: llm.Float(0),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"destination":"billing"}`, resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, int64(12), resp.Usage.InputTokens)
	assert.Equal(t, int64(5), resp.Usage.OutputTokens)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	assert.Equal(t, 0.0, captured["temperature"])
	msgs, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestComplete_ToolCalls(t *testing.T) {
	var captured map[string]any
	srv := newStubServer(t, `{
		"id": "chatcmpl-2", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
		"choices": [{"index": 0, "finish_reason": "tool_calls",
			"message": {"role": "assistant", "content": "",
				"tool_calls": [{"id": "call_1", "type": "function",
					"function": {"name": "lookup_user", "arguments": "{\"email\":\"a@b.c\"}"}}]}}]
	}`, &captured)

	c := New(func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL + "/"
	})
	resp, err := c.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "who am I"}},
		Tools: []llm.ToolDefinition{{
			Name:        "lookup_user",
			Description: "Find a user by email",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{"email": map[string]any{"type": "string"}}},
		}},
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, llm.ToolCall{ID: "call_1", Name: "lookup_user", Arguments: `{"email":"a@b.c"}`}, resp.ToolCalls[0])

	tools, ok := captured["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "lookup_user", fn["name"])
}

func TestComplete_NoChoices(t *testing.T) {
	var captured map[string]any
	srv := newStubServer(t, `{"id": "x", "object": "chat.completion", "created": 1, "model": "m", "choices": []}`, &captured)
	c := New(func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL + "/"
	})
	_, err := c.Complete(context.Background(), llm.Request{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
	assert.ErrorIs(t, err, llm.ErrNoChoices)
}

func TestBuildMessages_ToolRoundTrip(t *testing.T) {
	msgs := buildMessages(llm.Request{
		System: "sys",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "book yoga"},
			{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c1", Name: "book_reservation", Arguments: `{}`}}},
			{Role: llm.RoleTool, ToolCallID: "c1", ToolName: "book_reservation", Content: `{"status":"success"}`},
			{Role: llm.RoleAssistant, Content: "Booked."},
		},
	})
	require.Len(t, msgs, 5)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	assert.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "c1", msgs[3].OfTool.ToolCallID)
	assert.NotNil(t, msgs[4].OfAssistant)
}

func TestInfo(t *testing.T) {
	c := New(func(o *Options) { o.Model = "gpt-4o" })
	assert.Equal(t, llm.Info{Provider: "openai", Model: "gpt-4o"}, c.Info())
}
