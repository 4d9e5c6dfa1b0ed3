// ABOUTME: llm.Client backed by the Google Gemini API via google.golang.org/genai
// ABOUTME: Maps tool calls onto FunctionCall/FunctionResponse parts

package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/2389/switchboard/internal/llm"
)

// Options configure the Gemini client.
type Options struct {
	Model           string
	APIKey          string
	Temperature     float64
	MaxOutputTokens int32
}

// Client adapts the genai SDK to llm.Client.
type Client struct {
	client *genai.Client
	opts   Options
}

// New creates a Gemini client. An API key is required.
func New(ctx context.Context, optFns ...func(o *Options)) (*Client, error) {
	opts := Options{
		Model:           "gemini-2.0-flash",
		Temperature:     0.7,
		MaxOutputTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: client, opts: opts}, nil
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	temp := c.opts.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temp)),
		MaxOutputTokens: c.opts.MaxOutputTokens,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: buildDeclarations(req.Tools)}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.opts.Model, buildContents(req.Messages), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, llm.ErrNoChoices
	}

	cand := resp.Candidates[0]
	out := &llm.Response{FinishReason: string(cand.FinishReason)}
	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	for i, part := range cand.Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" && !part.Thought {
			out.Text += part.Text
		}
		if fc := part.FunctionCall; fc != nil {
			args, err := json.Marshal(fc.Args)
			if err != nil || fc.Args == nil {
				args = []byte("{}")
			}
			id := fc.ID
			if id == "" {
				id = fmt.Sprintf("%s-%d", fc.Name, i)
			}
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: id, Name: fc.Name, Arguments: string(args)})
		}
	}
	return out, nil
}

func buildDeclarations(defs []llm.ToolDefinition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(defs))
	for i, def := range defs {
		decls[i] = &genai.FunctionDeclaration{
			Name:                 def.Name,
			Description:          def.Description,
			ParametersJsonSchema: def.Parameters,
		}
	}
	return decls
}

// buildContents converts the transcript. Gemini answers function calls with
// function responses matched by name, so tool messages carry ToolName.
func buildContents(msgs []llm.Message) []*genai.Content {
	var out []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args := map[string]any{}
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				part := genai.NewPartFromFunctionCall(tc.Name, args)
				part.FunctionCall.ID = tc.ID
				parts = append(parts, part)
			}
			if len(parts) > 0 {
				out = append(out, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case llm.RoleTool:
			var payload map[string]any
			if err := json.Unmarshal([]byte(m.Content), &payload); err != nil {
				payload = map[string]any{"output": m.Content}
			}
			part := genai.NewPartFromFunctionResponse(m.ToolName, payload)
			part.FunctionResponse.ID = m.ToolCallID
			out = append(out, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		default:
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return out
}

// Info implements llm.Client.
func (c *Client) Info() llm.Info {
	return llm.Info{Provider: "gemini", Model: c.opts.Model}
}
