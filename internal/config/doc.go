// Package config handles configuration loading for switchboard.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. Unset fields keep the values from Default, which run the
// gateway locally with the keyword classifier and no model provider.
//
// # Configuration File
//
// Default location:
//
//  1. Path from SWITCHBOARD_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/switchboard/switchboard.yaml (~/.config when unset)
//
// Files ending in .toml are decoded as TOML.
//
// # Environment Variable Expansion
//
//	llm:
//	  api_key: "${OPENAI_API_KEY}"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//
//	tailscale:
//	  enabled: false
//	  hostname: "switchboard"
//	  auth_key: "${TS_AUTHKEY}"
//
//	database:
//	  path: "./data/switchboard.db"   # conversation checkpoints
//
//	records:
//	  path: "./data/records.db"       # member records used by specialists
//	  seed_on_start: true
//	  search_cache_ttl: "5m"
//
//	llm:
//	  provider: "openai"              # openai, anthropic, gemini, none
//	  model: "gpt-4o-mini"
//	  api_key: "${OPENAI_API_KEY}"
//	  temperature: 0.2
//	  max_tokens: 1024
//
//	dispatch:
//	  classifier: "llm"               # llm, keyword
//	  keyword_fallback: "tech_support"
//	  classify_timeout: "30s"
//	  handle_timeout: "2m"
//	  commit_timeout: "10s"
//	  max_steps: 6
//
//	replay:
//	  ttl: "10m"
//	  max_entries: 1024
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
