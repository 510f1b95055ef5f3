package tutor

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/llm"
)

// Session is one conversational context with the tutor. It is replaced
// wholesale whenever a course is started or resumed.
type Session struct {
	provider   llm.Provider
	compressor *Compressor
	cfg        Config
	log        *zap.Logger
	system     string

	// sendMu serializes Send so turns reach the model in call order.
	sendMu sync.Mutex

	mu          sync.Mutex
	history     []llm.Message
	summary     string
	summarized  int // history[:summarized] is covered by summary
	compressing bool
}

// NewSession builds a session for c. prior is the visible transcript of an
// earlier visit; greetings, placeholders and fallback replies are dropped
// from the model context.
func NewSession(provider llm.Provider, c Context, prior []Message, cfg Config, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	// The latest turn always stays verbatim.
	if cfg.KeepRecent < 1 {
		cfg.KeepRecent = 1
	}
	return &Session{
		provider:   provider,
		compressor: NewCompressor(provider, cfg),
		cfg:        cfg,
		log:        log.With(zap.String("component", "tutor")),
		system:     buildSystemInstruction(c),
		history:    historyFrom(prior),
	}
}

// historyFrom converts a visible transcript into model turns. Consecutive
// turns from the same side are merged so roles alternate.
func historyFrom(msgs []Message) []llm.Message {
	var out []llm.Message
	for _, m := range msgs {
		if m.IsThinking || m.IsGreeting() || strings.TrimSpace(m.Text) == "" {
			continue
		}
		if m.Role == RoleModel && m.Text == Fallback {
			continue
		}
		role := llm.RoleUser
		if m.Role == RoleModel {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Text})
	}
	return mergeTurns(out)
}

// mergeTurns joins consecutive messages from the same side.
func mergeTurns(msgs []llm.Message) []llm.Message {
	var out []llm.Message
	for _, m := range msgs {
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, m)
	}
	return out
}

// Send appends the learner's text, asks the model for a reply and returns
// it. On failure it returns Fallback and forgets the unanswered turn.
// Concurrent calls are answered one at a time in call order.
func (s *Session) Send(ctx context.Context, text string) string {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	s.history = append(s.history, llm.Message{Role: llm.RoleUser, Content: text})
	req := s.requestLocked()
	s.mu.Unlock()

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeTutor), req)
	reply := ""
	if err == nil {
		reply = strings.TrimSpace(resp.Text())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil || reply == "" {
		s.log.Warn("tutor reply failed", zap.Error(err))
		s.history = s.history[:len(s.history)-1]
		return Fallback
	}

	s.history = append(s.history, llm.Message{Role: llm.RoleAssistant, Content: reply})
	s.maybeCompressLocked(ctx)
	return reply
}

func (s *Session) requestLocked() llm.Request {
	system := s.system
	if s.summary != "" {
		system += "\n\nSummary of the conversation so far:\n" + s.summary
	}

	msgs := mergeTurns(s.history[s.summarized:])
	// Providers expect the conversation to open with a user turn.
	for len(msgs) > 0 && msgs[0].Role != llm.RoleUser {
		msgs = msgs[1:]
	}

	return llm.Request{
		System:      system,
		Messages:    msgs,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}
}

func (s *Session) maybeCompressLocked(ctx context.Context) {
	if s.compressing || s.cfg.CompressThreshold <= 0 {
		return
	}

	live := s.history[s.summarized:]
	size := 0
	for _, m := range live {
		size += len(m.Content)
	}
	if size <= s.cfg.CompressThreshold || len(live) <= s.cfg.KeepRecent {
		return
	}

	cut := len(s.history) - s.cfg.KeepRecent
	// Keep the verbatim tail starting on a user turn.
	for cut > s.summarized && s.history[cut].Role != llm.RoleUser {
		cut--
	}
	if cut <= s.summarized {
		return
	}

	turns := append([]llm.Message(nil), s.history[s.summarized:cut]...)
	prev := s.summary
	s.compressing = true

	go func() {
		summary, err := s.compressor.Compress(context.WithoutCancel(ctx), prev, turns)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.compressing = false
		if err != nil {
			s.log.Warn("tutor history compression failed", zap.Error(err))
			return
		}
		s.summary = summary
		s.summarized = cut
		s.log.Debug("tutor history compressed", zap.Int("turns", len(turns)))
	}()
}

// Summary returns the current compressed summary, if any.
func (s *Session) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// History returns a copy of the model context, oldest first.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Message(nil), s.history...)
}
