// ABOUTME: Package specialist implements the per-destination response handlers
// ABOUTME: Model-driven agents with bounded tool use plus model-free fallbacks

// Package specialist turns a routed conversation into a single assistant
// reply. Agents run a bounded tool-calling loop against a chat model;
// offline handlers answer directly from the capability provider. Handlers
// never return errors: failures become a degraded reply.
package specialist
