package llm

import (
	"context"
	"fmt"

	"alcyxob/intern-platform/internal/config"
	"alcyxob/intern-platform/internal/logger"
)

// NewProvider creates a Provider from configuration, wrapped as
// caller -> timeout -> retry -> logging -> base.
func NewProvider(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(AnthropicConfig(cfg.Anthropic))
	case "openai":
		base, err = NewOpenAIProvider(OpenAIConfig(cfg.OpenAI))
	case "gemini":
		base, err = NewGeminiProvider(ctx, GeminiConfig(cfg.Gemini))
	case "mock", "":
		return offlineProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, log)
	retried := WithRetry(logged, RetryConfig{
		MaxAttempts: cfg.RetryMaxAttempts,
		InitialWait: cfg.RetryInitialWait,
		MaxWait:     cfg.RetryMaxWait,
		Multiplier:  2.0,
	})
	return WithTimeout(retried, cfg.Timeout), nil
}
