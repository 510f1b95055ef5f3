package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       "gpt-4o-mini",
		speechModel: "tts-1",
		voice:       "alloy",
	}
}

func TestOpenAIProvider_GeneratesPillars(t *testing.T) {
	var body map[string]any
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		writeJSON(t, w, http.StatusOK, chatCompletion("gpt-4o-mini", pillarsJSON, "stop"))
	})

	resp, err := p.Generate(context.Background(), pillarsRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != pillarsJSON {
		t.Errorf("content = %s", resp.Content)
	}
	if resp.Usage.InputTokens != 120 || resp.Usage.OutputTokens != 48 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != "end" {
		t.Errorf("stop = %q", resp.StopReason)
	}

	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system + user message, got %d", len(msgs))
	}
	if first, _ := msgs[0].(map[string]any); first["role"] != "system" {
		t.Errorf("first message = %v", msgs[0])
	}
}

func TestOpenAIProvider_RejectsOffSchemaPillars(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, chatCompletion("gpt-4o-mini",
			`{"pillars":[{"title":"Wave Mechanics","description":"d","icon":"rocket"}]}`, "stop"))
	})

	_, err := p.Generate(context.Background(), pillarsRequest())
	var invalid *InvalidResponseError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidResponseError, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_TutorTurnIsFreeText(t *testing.T) {
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, chatCompletion("gpt-4o-mini", "A bra is the dual of a ket.", "stop"))
	})

	resp, err := p.Generate(context.Background(), tutorTurn())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "A bra is the dual of a ket." {
		t.Errorf("reply = %q", resp.Text())
	}
}

func TestOpenAIProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate limit", http.StatusTooManyRequests, func(err error) bool {
			var rl *RateLimitError
			return errors.As(err, &rl)
		}},
		{"server error", http.StatusBadGateway, func(err error) bool {
			var u *UnavailableError
			return errors.As(err, &u)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tt.status, map[string]any{
					"error": map[string]any{"type": "server_error", "message": tt.name},
				})
			})
			_, err := p.Generate(context.Background(), curriculumRequest())
			if !tt.check(err) {
				t.Fatalf("unexpected error %T (%v)", err, err)
			}
		})
	}
}

func TestOpenAIProvider_ModelMapping(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4o" {
		t.Errorf("model = %q", p.ModelID())
	}
	if _, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o"}); err == nil {
		t.Error("expected error for empty API key")
	}
}
