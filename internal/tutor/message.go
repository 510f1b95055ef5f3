package tutor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who wrote a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

const (
	// WelcomeID marks the greeting shown when a course is created.
	WelcomeID = "welcome"

	// WelcomeBackID marks the greeting shown when a course is resumed.
	WelcomeBackID = "welcome-back"
)

// Fallback is the reply shown when the model cannot be reached.
const Fallback = "I'm having trouble connecting right now. Please try again."

// Message is one entry in the visible chat transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	// IsThinking marks the transient placeholder shown while a reply is
	// pending. Thinking messages are never persisted.
	IsThinking bool `json:"isThinking,omitempty"`
}

// NewUserMessage returns a learner message stamped now.
func NewUserMessage(text string) Message {
	return Message{ID: uuid.NewString(), Role: RoleUser, Text: text, Timestamp: time.Now()}
}

// NewModelMessage returns a tutor reply stamped now.
func NewModelMessage(text string) Message {
	return Message{ID: uuid.NewString(), Role: RoleModel, Text: text, Timestamp: time.Now()}
}

// ThinkingMessage returns the placeholder shown while a reply is pending.
func ThinkingMessage() Message {
	return Message{ID: uuid.NewString(), Role: RoleModel, Timestamp: time.Now(), IsThinking: true}
}

// WelcomeMessage greets the learner at the start of a new course.
func WelcomeMessage(pathTitle string) Message {
	return Message{
		ID:        WelcomeID,
		Role:      RoleModel,
		Text:      fmt.Sprintf("Hi! I'm your AI tutor for **%s**. Ask me anything about this course as you work through it.", pathTitle),
		Timestamp: time.Now(),
	}
}

// WelcomeBackMessage greets the learner when a saved course is resumed.
func WelcomeBackMessage(pathTitle string) Message {
	return Message{
		ID:        WelcomeBackID,
		Role:      RoleModel,
		Text:      fmt.Sprintf("Welcome back to **%s**! Pick up where you left off, or ask me anything.", pathTitle),
		Timestamp: time.Now(),
	}
}

// IsGreeting reports whether m is one of the synthetic welcome messages.
func (m Message) IsGreeting() bool {
	return m.ID == WelcomeID || m.ID == WelcomeBackID
}

// WithoutThinking returns msgs minus transient placeholders.
func WithoutThinking(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.IsThinking {
			out = append(out, m)
		}
	}
	return out
}
