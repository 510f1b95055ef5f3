package screen

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/pathwise/internal/audio"
	"github.com/abhisek/pathwise/internal/library"
	"github.com/abhisek/pathwise/internal/session"
	"github.com/abhisek/pathwise/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// InputCapturer is implemented by screens that are currently taking text
// input, so the app does not treat typed keys as global shortcuts.
type InputCapturer interface {
	CapturingInput() bool
}

// StateMsg carries a new application state to the active screen.
type StateMsg struct {
	State session.AppState
}

// Controller is the set of learner actions screens can trigger.
// *session.Controller implements it.
type Controller interface {
	State() session.AppState

	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error

	StartNewCourse()
	SubmitSubject(ctx context.Context, subject string) error
	SelectPillar(ctx context.Context, pillarID int) error
	SelectPath(ctx context.Context, pathID int) error
	ResumeCourse(courseID string) error
	DeleteCourse(ctx context.Context, courseID string) error

	Back()
	GoToDashboard()
	ToggleSubLesson(i int)
	SetFeedback(i int, f library.Feedback)
	OverviewAudio(ctx context.Context) (audio.Clip, error)
	SendChat(ctx context.Context, text string) string
	DismissError()
}

// Run wraps a blocking controller call as a command. Results reach the
// screens through StateMsg, so the command itself yields no message.
func Run(fn func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		fn(context.Background())
		return nil
	}
}
