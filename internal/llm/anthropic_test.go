package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: "claude-haiku"}, option.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func anthropicMessage(stop string, texts ...string) map[string]any {
	blocks := make([]map[string]any, 0, len(texts))
	for _, s := range texts {
		blocks = append(blocks, map[string]any{"type": "text", "text": s})
	}
	return map[string]any{
		"id":          "msg_pathwise",
		"type":        "message",
		"role":        "assistant",
		"content":     blocks,
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 210, "output_tokens": 64},
	}
}

func TestAnthropicProvider_GeneratesPillars(t *testing.T) {
	var body map[string]any
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		writeJSON(t, w, http.StatusOK, anthropicMessage("end_turn", pillarsJSON))
	})

	resp, err := p.Generate(context.Background(), pillarsRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != pillarsJSON {
		t.Errorf("content = %s", resp.Content)
	}
	if resp.Usage.TotalTokens != 274 || resp.StopReason != "end" {
		t.Errorf("usage = %+v, stop = %q", resp.Usage, resp.StopReason)
	}
	if body["model"] != "claude-haiku-4-5-20251001" {
		t.Errorf("model sent = %v, want the resolved ID", body["model"])
	}
	system, _ := body["system"].([]any)
	if len(system) != 1 {
		t.Errorf("system = %v", body["system"])
	}
}

func TestAnthropicProvider_TutorTurn(t *testing.T) {
	var body struct {
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
		Temperature float64 `json:"temperature"`
	}
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		writeJSON(t, w, http.StatusOK, anthropicMessage("end_turn", "A bra is ", "the conjugate transpose of a ket."))
	})

	resp, err := p.Generate(context.Background(), tutorTurn())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "A bra is the conjugate transpose of a ket." {
		t.Errorf("reply = %q", resp.Text())
	}
	roles := make([]string, 0, len(body.Messages))
	for _, m := range body.Messages {
		roles = append(roles, m.Role)
	}
	if len(roles) != 3 || roles[0] != "user" || roles[1] != "assistant" || roles[2] != "user" {
		t.Errorf("roles = %v", roles)
	}
	if body.Temperature != 0.7 {
		t.Errorf("temperature = %v", body.Temperature)
	}
}

func TestAnthropicProvider_TruncatedCurriculum(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, anthropicMessage("max_tokens", truncatedCurriculum))
	})

	_, err := p.Generate(context.Background(), curriculumRequest())
	var truncated *TruncatedError
	if !errors.As(err, &truncated) {
		t.Fatalf("expected TruncatedError, got %T (%v)", err, err)
	}
}

func TestAnthropicProvider_RateLimitCarriesRetryAfter(t *testing.T) {
	calls := 0
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "7")
		writeJSON(t, w, http.StatusTooManyRequests, map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "rate_limit_error", "message": "Rate limit exceeded"},
		})
	})

	_, err := p.Generate(context.Background(), pillarsRequest())
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %T (%v)", err, err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Errorf("retry after = %v", rl.RetryAfter)
	}
	if calls != 1 {
		t.Errorf("the SDK retried on its own: %d calls", calls)
	}
}

func TestAnthropicProvider_Overloaded(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, 529, map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "overloaded_error", "message": "Overloaded"},
		})
	})

	_, err := p.Generate(context.Background(), tutorTurn())
	var unavail *UnavailableError
	if !errors.As(err, &unavail) {
		t.Fatalf("expected UnavailableError, got %T (%v)", err, err)
	}
}

func TestAnthropicModelMapping(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"claude-sonnet", "claude-sonnet-4-20250514"},
		{"claude-haiku", "claude-haiku-4-5-20251001"},
		{"claude-opus-4-20250514", "claude-opus-4-20250514"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, anthropicModels); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRetryAfterHeader(t *testing.T) {
	at := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	tests := []struct {
		value    string
		min, max time.Duration
	}{
		{"", 0, 0},
		{"12", 12 * time.Second, 12 * time.Second},
		{"-3", 0, 0},
		{"soon", 0, 0},
		{at, 80 * time.Second, 90 * time.Second},
	}
	for _, tt := range tests {
		resp := &http.Response{Header: http.Header{}}
		if tt.value != "" {
			resp.Header.Set("Retry-After", tt.value)
		}
		got := retryAfterHeader(resp)
		if got < tt.min || got > tt.max {
			t.Errorf("Retry-After %q = %v, want within [%v, %v]", tt.value, got, tt.min, tt.max)
		}
	}
	if retryAfterHeader(nil) != 0 {
		t.Error("nil response should give no hint")
	}
}
