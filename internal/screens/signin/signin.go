// Package signin is the signed-out landing screen.
package signin

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/screens/welcome"
	"github.com/abhisek/pathwise/internal/session"
	"github.com/abhisek/pathwise/internal/ui/components"
	"github.com/abhisek/pathwise/internal/ui/layout"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

type signInDoneMsg struct{ err error }

// SignInScreen offers sign-in and quit.
type SignInScreen struct {
	ctrl      screen.Controller
	menu      components.Menu
	spin      components.Spinner
	signingIn bool
	err       string
}

var _ screen.Screen = (*SignInScreen)(nil)

// New creates the sign-in screen.
func New(ctrl screen.Controller, _ session.AppState) *SignInScreen {
	s := &SignInScreen{
		ctrl: ctrl,
		spin: components.NewSpinner("Signing in..."),
	}
	s.menu = components.NewMenu([]components.MenuItem{
		{Label: "Sign in", Hint: "your courses follow your account", Action: s.signIn},
		{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	})
	return s
}

func (s *SignInScreen) signIn() tea.Cmd {
	if s.signingIn {
		return nil
	}
	s.signingIn = true
	s.err = ""
	ctrl := s.ctrl
	return tea.Batch(s.spin.Tick(), func() tea.Msg {
		return signInDoneMsg{err: ctrl.SignIn(context.Background())}
	})
}

func (s *SignInScreen) Init() tea.Cmd { return nil }

func (s *SignInScreen) Title() string { return "" }

func (s *SignInScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case signInDoneMsg:
		s.signingIn = false
		if msg.err != nil {
			s.err = "Sign-in failed: " + msg.err.Error()
		}
		return s, nil

	case components.SpinnerTickMsg:
		if !s.signingIn {
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		if s.signingIn {
			return s, nil
		}
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *SignInScreen) View(width, height int) string {
	var sections []string
	sections = append(sections, welcome.RenderBanner(width))
	sections = append(sections, "")
	sections = append(sections, lipgloss.NewStyle().Foreground(theme.Text).Bold(true).
		Render("Turn any subject into a structured course."))
	sections = append(sections, theme.Subtitle.Render("Pillars, lesson paths, a full curriculum and a tutor to talk to."))
	sections = append(sections, "")

	if s.signingIn {
		sections = append(sections, s.spin.View())
	} else {
		sections = append(sections, strings.TrimRight(s.menu.View(), "\n"))
	}
	if s.err != "" {
		sections = append(sections, "", lipgloss.NewStyle().Foreground(theme.Error).Render(s.err))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (s *SignInScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
