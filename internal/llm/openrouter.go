package llm

import (
	"cmp"
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	// Attribution OpenRouter shows for requests from this app.
	openRouterReferer = "https://github.com/abhisek/pathwise"
	openRouterTitle   = "Pathwise"
)

// OpenRouterProvider reaches many hosted models through OpenRouter's
// OpenAI-compatible chat API. Model IDs are passed through as given, e.g.
// "google/gemini-2.0-flash-exp". It has no speech endpoint.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider for cfg. Every request carries
// the app attribution headers.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter API key is required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cmp.Or(cfg.BaseURL, openRouterBaseURL)
	oc.HTTPClient = &http.Client{Transport: attribution{next: http.DefaultTransport}}

	return &OpenRouterProvider{OpenAIProvider: &OpenAIProvider{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
	}}, nil
}

// Synthesize always fails: OpenRouter serves chat models only.
func (p *OpenRouterProvider) Synthesize(context.Context, SpeechRequest) (*SpeechResponse, error) {
	return nil, speechFailure("openrouter", p.model, ErrSpeechUnsupported)
}

// attribution sets the headers OpenRouter uses to credit the calling app.
type attribution struct {
	next http.RoundTripper
}

func (a attribution) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("HTTP-Referer", openRouterReferer)
	r.Header.Set("X-Title", openRouterTitle)
	return a.next.RoundTrip(r)
}
