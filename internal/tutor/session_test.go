package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/pathwise/internal/content"
	"github.com/abhisek/pathwise/internal/llm"
)

func testContext() Context {
	return Context{
		Subject: "Quantum Physics",
		Pillar:  "Wave Mechanics",
		Path:    "Intro to Superposition",
		Curriculum: &content.Curriculum{
			PathTitle:    "Intro to Superposition",
			Introduction: "States can add.",
			Objectives:   []string{"Define superposition", "Read a ket", "Predict outcomes"},
			SubLessons:   []content.SubLesson{{Title: "Kets"}, {Title: "Amplitudes"}},
		},
	}
}

func textResponse(s string) llm.MockResponse {
	b, _ := json.Marshal(s)
	return llm.MockResponse{Content: b}
}

func TestSend_ReturnsReply(t *testing.T) {
	mock := llm.NewMockProvider(textResponse("A superposition is a sum of states."))
	s := NewSession(mock, testContext(), nil, DefaultConfig(), nil)

	got := s.Send(t.Context(), "What is superposition?")
	if got != "A superposition is a sum of states." {
		t.Fatalf("reply = %q", got)
	}

	req := mock.Calls[0]
	if req.Schema != nil {
		t.Error("chat requests must not carry a schema")
	}
	for _, want := range []string{"Quantum Physics", "Wave Mechanics", "Intro to Superposition", "Amplitudes"} {
		if !strings.Contains(req.System, want) {
			t.Errorf("system instruction missing %q", want)
		}
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "What is superposition?" {
		t.Errorf("messages = %+v", req.Messages)
	}
	if h := s.History(); len(h) != 2 || h[1].Role != llm.RoleAssistant {
		t.Errorf("history = %+v", h)
	}
}

func TestSend_FailureReturnsFallback(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.RateLimitError{Err: errors.New("429")}},
		textResponse("Second try works."),
	)
	s := NewSession(mock, testContext(), nil, DefaultConfig(), nil)

	if got := s.Send(t.Context(), "hello?"); got != Fallback {
		t.Fatalf("reply = %q, want fallback", got)
	}
	if h := s.History(); len(h) != 0 {
		t.Fatalf("unanswered turn kept in context: %+v", h)
	}

	if got := s.Send(t.Context(), "hello again"); got != "Second try works." {
		t.Fatalf("reply = %q", got)
	}
	if n := len(mock.Calls[1].Messages); n != 1 {
		t.Errorf("second request has %d messages, want 1", n)
	}
}

func TestSend_EmptyReplyIsFailure(t *testing.T) {
	mock := llm.NewMockProvider(textResponse("   "))
	s := NewSession(mock, testContext(), nil, DefaultConfig(), nil)

	if got := s.Send(t.Context(), "hi"); got != Fallback {
		t.Errorf("reply = %q, want fallback", got)
	}
}

func TestNewSession_FiltersPriorHistory(t *testing.T) {
	prior := []Message{
		WelcomeMessage("Intro to Superposition"),
		{ID: "1", Role: RoleUser, Text: "first question"},
		{ID: "2", Role: RoleModel, Text: Fallback},
		{ID: "3", Role: RoleUser, Text: "asked again"},
		{ID: "4", Role: RoleModel, Text: "an answer"},
		{ID: "5", Role: RoleModel, IsThinking: true},
		WelcomeBackMessage("Intro to Superposition"),
	}
	mock := llm.NewMockProvider(textResponse("ok"))
	s := NewSession(mock, testContext(), prior, DefaultConfig(), nil)

	h := s.History()
	if len(h) != 2 {
		t.Fatalf("history = %+v", h)
	}
	if h[0].Role != llm.RoleUser || h[0].Content != "first question\n\nasked again" {
		t.Errorf("merged user turn = %+v", h[0])
	}
	if h[1].Role != llm.RoleAssistant || h[1].Content != "an answer" {
		t.Errorf("model turn = %+v", h[1])
	}

	s.Send(t.Context(), "follow up")
	msgs := mock.Calls[0].Messages
	if len(msgs) != 3 || msgs[2].Content != "follow up" {
		t.Errorf("request messages = %+v", msgs)
	}
}

func TestNewSession_PriorEndingWithUserTurn(t *testing.T) {
	prior := []Message{
		{ID: "1", Role: RoleModel, Text: "stray model text"},
		{ID: "2", Role: RoleUser, Text: "unanswered"},
	}
	mock := llm.NewMockProvider(textResponse("ok"))
	s := NewSession(mock, testContext(), prior, DefaultConfig(), nil)

	s.Send(t.Context(), "next")
	msgs := mock.Calls[0].Messages
	if len(msgs) != 1 {
		t.Fatalf("request messages = %+v", msgs)
	}
	if msgs[0].Role != llm.RoleUser || msgs[0].Content != "unanswered\n\nnext" {
		t.Errorf("first message = %+v", msgs[0])
	}
}

// gateProvider blocks each Generate until released.
type gateProvider struct {
	mu      sync.Mutex
	calls   []llm.Request
	entered chan struct{}
	release chan struct{}
}

func (g *gateProvider) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	g.entered <- struct{}{}
	<-g.release
	return &llm.Response{Content: json.RawMessage(`"reply"`)}, nil
}

func (g *gateProvider) ModelID() string { return "gate" }

func (g *gateProvider) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func TestSend_SerializesOverlappingCalls(t *testing.T) {
	g := &gateProvider{entered: make(chan struct{}, 2), release: make(chan struct{})}
	s := NewSession(g, testContext(), nil, DefaultConfig(), nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); s.Send(context.Background(), "one") }()
	<-g.entered
	go func() { defer wg.Done(); s.Send(context.Background(), "two") }()

	time.Sleep(50 * time.Millisecond)
	if n := g.callCount(); n != 1 {
		t.Fatalf("second call reached the model early: %d calls", n)
	}

	g.release <- struct{}{}
	<-g.entered
	g.release <- struct{}{}
	wg.Wait()

	second := g.calls[1].Messages
	if len(second) != 3 || second[0].Content != "one" || second[2].Content != "two" {
		t.Errorf("second request = %+v", second)
	}
}

// purposeProvider answers by request purpose.
type purposeProvider struct {
	mu    sync.Mutex
	calls []llm.Request
}

func (p *purposeProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()
	if llm.PurposeFrom(ctx) == llm.PurposeTutorCompress {
		return &llm.Response{Content: json.RawMessage(`{"summary":"Learner asked about kets."}`)}, nil
	}
	return &llm.Response{Content: json.RawMessage(`"` + strings.Repeat("long answer ", 10) + `"`)}, nil
}

func (p *purposeProvider) ModelID() string { return "purpose" }

func (p *purposeProvider) last() llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.calls) - 1; i >= 0; i-- {
		if p.calls[i].Schema == nil {
			return p.calls[i]
		}
	}
	return llm.Request{}
}

func TestSend_CompressesLongHistory(t *testing.T) {
	p := &purposeProvider{}
	cfg := DefaultConfig()
	cfg.CompressThreshold = 200
	cfg.KeepRecent = 2
	s := NewSession(p, testContext(), nil, cfg, nil)

	for i := 0; i < 3; i++ {
		s.Send(t.Context(), "tell me more about kets")
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.Summary() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Summary() != "Learner asked about kets." {
		t.Fatalf("summary = %q", s.Summary())
	}

	s.Send(t.Context(), "and amplitudes?")
	req := p.last()
	if !strings.Contains(req.System, "Learner asked about kets.") {
		t.Error("expected summary in system instruction")
	}
	if len(req.Messages) >= 8 {
		t.Errorf("expected compressed context, got %d messages", len(req.Messages))
	}
	if req.Messages[0].Role != llm.RoleUser {
		t.Errorf("context must open with a user turn, got %s", req.Messages[0].Role)
	}
}

func TestSend_CompressesWithoutRecentTail(t *testing.T) {
	p := &purposeProvider{}
	cfg := DefaultConfig()
	cfg.CompressThreshold = 200
	cfg.KeepRecent = 0
	s := NewSession(p, testContext(), nil, cfg, nil)

	for i := 0; i < 3; i++ {
		s.Send(t.Context(), "tell me more about kets")
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.Summary() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Summary() != "Learner asked about kets." {
		t.Fatalf("summary = %q", s.Summary())
	}

	s.Send(t.Context(), "and amplitudes?")
	req := p.last()
	if len(req.Messages) == 0 || req.Messages[0].Role != llm.RoleUser {
		t.Fatalf("context must open with a user turn, got %+v", req.Messages)
	}
	if got := req.Messages[len(req.Messages)-1].Content; got != "and amplitudes?" {
		t.Errorf("latest turn = %q", got)
	}
}

func TestCompressor_Compress(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"summary": "Covered kets and bras."}`)})
	c := NewCompressor(mock, DefaultConfig())

	got, err := c.Compress(t.Context(), "Earlier: basics.", []llm.Message{
		{Role: llm.RoleUser, Content: "what is a ket?"},
		{Role: llm.RoleAssistant, Content: "a column vector"},
	})
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if got != "Covered kets and bras." {
		t.Errorf("summary = %q", got)
	}

	req := mock.Calls[0]
	if req.Schema == nil || req.Schema.Name != "chat-summary" {
		t.Error("expected schema name 'chat-summary'")
	}
	msg := req.Messages[0].Content
	if !strings.Contains(msg, "Earlier: basics.") || !strings.Contains(msg, "Tutor: a column vector") {
		t.Errorf("prompt = %q", msg)
	}
}

func TestMessages(t *testing.T) {
	w := WelcomeMessage("Intro to Superposition")
	if w.ID != WelcomeID || !w.IsGreeting() || !strings.Contains(w.Text, "Intro to Superposition") {
		t.Errorf("welcome = %+v", w)
	}
	wb := WelcomeBackMessage("Intro to Superposition")
	if wb.ID != WelcomeBackID || !wb.IsGreeting() {
		t.Errorf("welcome back = %+v", wb)
	}

	msgs := []Message{NewUserMessage("hi"), ThinkingMessage(), NewModelMessage("hello")}
	if got := WithoutThinking(msgs); len(got) != 2 {
		t.Errorf("WithoutThinking kept %d messages", len(got))
	}
	if msgs[0].ID == msgs[2].ID {
		t.Error("expected unique message ids")
	}
}
