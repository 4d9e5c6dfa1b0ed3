// Package llm is the small chat-model contract the classifier and the
// specialists are written against.
//
// A Client takes a Request (system prompt, transcript, tool definitions,
// optional temperature) and returns one complete Response carrying text,
// tool calls, or both. Streaming is deliberately absent; every caller
// needs the whole answer before it can act.
//
// Provider adapters live in subpackages:
//
//   - llm/openai: OpenAI Chat Completions
//   - llm/anthropic: Anthropic Messages
//   - llm/gemini: Google Gemini through google.golang.org/genai
//
// ScriptedClient replays queued responses and is used by tests and by the
// offline demo mode.
package llm
