package components

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/ui/theme"
)

const spinnerInterval = 120 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// SpinnerTickMsg advances every spinner by one frame.
type SpinnerTickMsg time.Time

// Spinner is a loading indicator with a caption.
type Spinner struct {
	Caption string
	frame   int
}

// NewSpinner creates a spinner showing caption.
func NewSpinner(caption string) Spinner {
	return Spinner{Caption: caption}
}

// Tick schedules the next frame.
func (s Spinner) Tick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return SpinnerTickMsg(t)
	})
}

// Update advances the frame on SpinnerTickMsg and schedules the next one.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if _, ok := msg.(SpinnerTickMsg); !ok {
		return s, nil
	}
	s.frame = (s.frame + 1) % len(spinnerFrames)
	return s, s.Tick()
}

// View renders the current frame and the caption.
func (s Spinner) View() string {
	glyph := lipgloss.NewStyle().Foreground(theme.Accent).Render(spinnerFrames[s.frame])
	return glyph + " " + theme.Hint.Render(s.Caption)
}
