package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/audio"
	"github.com/abhisek/pathwise/internal/imagery"
	"github.com/abhisek/pathwise/internal/router"
	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/screens/curriculum"
	"github.com/abhisek/pathwise/internal/screens/dashboard"
	"github.com/abhisek/pathwise/internal/screens/paths"
	"github.com/abhisek/pathwise/internal/screens/pillars"
	"github.com/abhisek/pathwise/internal/screens/signin"
	"github.com/abhisek/pathwise/internal/screens/subject"
	"github.com/abhisek/pathwise/internal/screens/welcome"
	"github.com/abhisek/pathwise/internal/session"
	"github.com/abhisek/pathwise/internal/ui/layout"
)

// Controller is what the app needs from the session: the screen actions
// plus lifecycle and change notification.
type Controller interface {
	screen.Controller
	Start(ctx context.Context) error
	Subscribe(fn func(session.AppState)) func()
}

// Options holds dependencies for the TUI.
type Options struct {
	Controller Controller
	Player     audio.Player
	Images     imagery.Builder
	Logger     *zap.Logger

	// SkipSplash opens straight onto the current step.
	SkipSplash bool
}

// AppModel is the root Bubble Tea model. The active screen always matches
// the session step; the router stack only grows for dialogs.
type AppModel struct {
	opts   Options
	log    *zap.Logger
	router *router.Router
	state  session.AppState
	step   session.Step
	splash bool
	width  int
	height int
}

func newAppModel(opts Options) *AppModel {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := &AppModel{
		opts:  opts,
		log:   log,
		state: opts.Controller.State(),
	}
	m.step = m.state.Step

	if opts.SkipSplash {
		m.router = router.New(m.screenFor(m.state))
	} else {
		m.splash = true
		m.router = router.New(welcome.New(func() screen.Screen { return m.screenFor(m.state) }))
	}
	return m
}

// screenFor builds the screen for the step of s.
func (m *AppModel) screenFor(s session.AppState) screen.Screen {
	ctrl := m.opts.Controller
	switch s.Step {
	case session.StepDashboard:
		return dashboard.New(ctrl, s)
	case session.StepInput:
		return subject.New(ctrl, s)
	case session.StepPillars:
		return pillars.New(ctrl, s)
	case session.StepPaths:
		return paths.New(ctrl, s)
	case session.StepCurriculum:
		return curriculum.New(ctrl, s, m.opts.Player, m.opts.Images)
	}
	return signin.New(ctrl, s)
}

func (m *AppModel) Init() tea.Cmd {
	ctrl := m.opts.Controller
	log := m.log
	start := func() tea.Msg {
		if err := ctrl.Start(context.Background()); err != nil {
			log.Error("session start failed", zap.Error(err))
		}
		return nil
	}
	return tea.Batch(m.router.Active().Init(), start)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case screen.StateMsg:
		m.state = msg.State
		if m.splash {
			return m, nil
		}
		if m.state.Step != m.step {
			return m, m.showStep()
		}
		return m, m.router.Broadcast(msg)

	case router.ReplaceScreenMsg:
		if m.splash {
			// The splash built its successor from an older state.
			m.splash = false
			return m, m.showStep()
		}

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
		case "ctrl+x":
			m.opts.Controller.DismissError()
			return m, nil
		case "x":
			if m.hasBanner() && !m.capturing() {
				m.opts.Controller.DismissError()
				return m, nil
			}
		}
	}

	return m, m.router.Update(msg)
}

// showStep drops any dialogs and swaps in the screen for the current step.
func (m *AppModel) showStep() tea.Cmd {
	for m.router.Depth() > 1 {
		m.router.Pop()
	}
	m.step = m.state.Step
	m.log.Debug("step changed", zap.String("step", string(m.step)))
	return m.router.Replace(m.screenFor(m.state))
}

func (m *AppModel) hasBanner() bool {
	return m.state.Error != "" || m.state.Notice != ""
}

func (m *AppModel) capturing() bool {
	c, ok := m.router.Active().(screen.InputCapturer)
	return ok && c.CapturingInput()
}

func (m *AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.WindowTitle = "Pathwise"

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	userName := ""
	if m.state.User != nil && !m.splash {
		userName = m.state.User.Name
	}
	header := layout.RenderHeader(title, userName, len(m.state.Library), m.width)

	banner := ""
	if !m.splash {
		banner = layout.RenderBanner(m.state.Error, m.state.Notice, m.width)
	}

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else {
		footerHints = []layout.KeyHint{
			{Key: "Any key", Description: "Continue"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	footer := layout.RenderFooter(footerHints, m.width)

	top := header
	if banner != "" {
		top += "\n" + banner
	}
	contentHeight := m.height - lipgloss.Height(top) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, banner, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until the learner quits.
func Run(opts Options) error {
	m := newAppModel(opts)
	p := tea.NewProgram(m)

	// The controller is also called from inside Update, so the subscriber
	// must not block. The one-slot wake channel coalesces bursts and the
	// pump always sends the latest state.
	wake := make(chan struct{}, 1)
	unsubscribe := opts.Controller.Subscribe(func(session.AppState) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-wake:
				p.Send(screen.StateMsg{State: opts.Controller.State()})
			case <-done:
				return
			}
		}
	}()

	_, err := p.Run()
	close(done)
	unsubscribe()
	if err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}
