// Package subject is the screen where the learner names what they want to
// learn.
package subject

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/session"
	"github.com/abhisek/pathwise/internal/ui/components"
	"github.com/abhisek/pathwise/internal/ui/layout"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

const maxSubjectLen = 120

var suggestions = []string{"Quantum Physics", "Renaissance Art", "Machine Learning", "Behavioral Economics"}

// SubjectScreen collects the subject and asks for its pillars.
type SubjectScreen struct {
	ctrl  screen.Controller
	state session.AppState
	input components.TextInput
	spin  components.Spinner
}

var _ screen.Screen = (*SubjectScreen)(nil)

// New creates the subject screen, prefilled with the last subject.
func New(ctrl screen.Controller, state session.AppState) *SubjectScreen {
	in := components.NewTextInput("What do you want to learn?", "e.g. Quantum Physics", maxSubjectLen)
	if state.Subject != "" {
		in.SetValue(state.Subject)
	}
	return &SubjectScreen{
		ctrl:  ctrl,
		state: state,
		input: in,
		spin:  components.NewSpinner("Mapping the subject into 30 pillars..."),
	}
}

func (s *SubjectScreen) Init() tea.Cmd {
	cmds := []tea.Cmd{s.input.Init()}
	if s.state.IsLoading {
		cmds = append(cmds, s.spin.Tick())
	}
	return tea.Batch(cmds...)
}

func (s *SubjectScreen) Title() string { return "New Course" }

func (s *SubjectScreen) CapturingInput() bool { return !s.state.IsLoading }

func (s *SubjectScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.StateMsg:
		wasLoading := s.state.IsLoading
		s.state = msg.State
		if s.state.IsLoading && !wasLoading {
			return s, s.spin.Tick()
		}
		return s, nil

	case components.SpinnerTickMsg:
		if !s.state.IsLoading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		if s.state.IsLoading {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			s.ctrl.Back()
			return s, nil
		case "enter":
			return s, s.submit()
		case "tab":
			s.cycleSuggestion()
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *SubjectScreen) submit() tea.Cmd {
	subject := s.input.Value()
	if subject == "" {
		return nil
	}
	ctrl := s.ctrl
	return screen.Run(func(ctx context.Context) {
		_ = ctrl.SubmitSubject(ctx, subject)
	})
}

// cycleSuggestion fills the input with the next example subject.
func (s *SubjectScreen) cycleSuggestion() {
	cur := s.input.Value()
	next := suggestions[0]
	for i, sg := range suggestions {
		if strings.EqualFold(sg, cur) {
			next = suggestions[(i+1)%len(suggestions)]
			break
		}
	}
	s.input.SetValue(next)
}

func (s *SubjectScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	s.input.SetWidth(cw)

	var sections []string
	sections = append(sections, theme.Title.Render("Map a new subject"))
	sections = append(sections, layout.Wrap(theme.Subtitle.Render(
		"Name any subject. Pathwise splits it into 30 pillars, each with its own lesson paths."), cw))
	sections = append(sections, "")
	sections = append(sections, s.input.View())

	if s.state.IsLoading {
		sections = append(sections, "", s.spin.View())
	} else {
		sections = append(sections, "", theme.Hint.Render("Try: "+strings.Join(suggestions, " · ")))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (s *SubjectScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Generate pillars"},
		{Key: "Tab", Description: "Suggestion"},
		{Key: "Esc", Description: "Dashboard"},
	}
}
