// ABOUTME: Builds the chat model client and classifier selected by configuration
// ABOUTME: Maps llm.provider onto the OpenAI, Anthropic, or Gemini adapters

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/2389/switchboard/internal/config"
	"github.com/2389/switchboard/internal/llm"
	llmanthropic "github.com/2389/switchboard/internal/llm/anthropic"
	"github.com/2389/switchboard/internal/llm/gemini"
	"github.com/2389/switchboard/internal/llm/openai"
	"github.com/2389/switchboard/internal/routing"
)

// NewModelClient returns the configured chat model, or nil when the
// provider is "none".
func NewModelClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case "", config.ProviderNone:
		return nil, nil

	case config.ProviderOpenAI:
		return openai.New(func(o *openai.Options) {
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.Temperature != nil {
				o.Temperature = *cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
		}), nil

	case config.ProviderAnthropic:
		return llmanthropic.New(func(o *llmanthropic.Options) {
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			if cfg.Model != "" {
				o.Model = sdkanthropic.Model(cfg.Model)
			}
			if cfg.Temperature != nil {
				o.Temperature = *cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		}), nil

	case config.ProviderGemini:
		if cfg.MaxTokens > math.MaxInt32 {
			return nil, fmt.Errorf("llm.max_tokens %d exceeds the gemini limit of %d", cfg.MaxTokens, math.MaxInt32)
		}
		client, err := gemini.New(ctx, func(o *gemini.Options) {
			o.APIKey = cfg.APIKey
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.Temperature != nil {
				o.Temperature = *cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxOutputTokens = int32(cfg.MaxTokens)
			}
		})
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewClassifier picks the model classifier when requested and available,
// otherwise the keyword classifier.
func NewClassifier(cfg config.DispatchConfig, model llm.Client, logger *slog.Logger) (routing.Classifier, error) {
	if cfg.Classifier == config.ClassifierLLM && model != nil {
		return routing.NewLLMClassifier(model, logger), nil
	}

	kc := routing.KeywordClassifier{}
	if cfg.KeywordFallback != "" {
		d, err := routing.ParseDestination(cfg.KeywordFallback)
		if err != nil {
			return nil, fmt.Errorf("dispatch.keyword_fallback: %w", err)
		}
		kc.Fallback = d
	}
	return kc, nil
}
