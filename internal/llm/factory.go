package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with timeout, rate limit, retry and
// logging middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → timeout → rate limit → retry → logging → base
	logged := WithLogging(base, eventRepo, log)
	retried := WithRetry(logged, cfg.Retry)
	limited := WithRateLimit(retried, cfg.RateLimit)

	return WithTimeout(limited, cfg.Timeout), nil
}

// NewSynthesizer creates the speech backend matching cfg.Provider.
func NewSynthesizer(ctx context.Context, cfg Config) (SpeechSynthesizer, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "mock":
		// One second of silence.
		return NewMockSynthesizer(make([]byte, speechSampleRate*2)), nil
	default:
		// Chat-only providers can still speak through a configured OpenAI key.
		if cfg.OpenAI.APIKey != "" {
			return NewOpenAIProvider(cfg.OpenAI)
		}
		return nil, speechFailure(cfg.Provider, "", ErrSpeechUnsupported)
	}
}

// TimeoutProvider bounds each Generate call.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so every call gets its own deadline. A zero timeout
// returns p unchanged.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: timeout}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
