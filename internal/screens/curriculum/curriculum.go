// Package curriculum is the course screen: the generated curriculum with
// per-sub-lesson progress and feedback, the spoken overview and the tutor
// chat.
package curriculum

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/pathwise/internal/audio"
	"github.com/abhisek/pathwise/internal/imagery"
	"github.com/abhisek/pathwise/internal/library"
	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/session"
	"github.com/abhisek/pathwise/internal/ui/components"
	"github.com/abhisek/pathwise/internal/ui/layout"
)

type mode int

const (
	modeLesson mode = iota
	modeChat
)

// audioDoneMsg reports the end of an overview playback.
type audioDoneMsg struct {
	err     error
	savedTo string
}

// chatDoneMsg reports that a tutor reply arrived.
type chatDoneMsg struct{}

// CurriculumScreen renders the open course.
type CurriculumScreen struct {
	ctrl   screen.Controller
	player audio.Player
	images imagery.Builder
	state  session.AppState

	mode     mode
	cursor   int
	expanded int
	offset   int
	height   int

	// cursorLines holds the document line of each sub-lesson heading,
	// filled on every render.
	cursorLines []int

	input   components.TextInput
	sending bool
	spin    components.Spinner

	audioBusy   bool
	audioStatus string
}

var _ screen.Screen = (*CurriculumScreen)(nil)

// New creates the course screen. player may be nil, which disables the
// spoken overview.
func New(ctrl screen.Controller, state session.AppState, player audio.Player, images imagery.Builder) *CurriculumScreen {
	in := components.NewTextInput("", "Ask the tutor about this course...", 500)
	in.Blur()

	c := &CurriculumScreen{
		ctrl:     ctrl,
		player:   player,
		images:   images,
		state:    state,
		expanded: -1,
		input:    in,
		spin:     components.NewSpinner("Generating the spoken overview..."),
	}
	c.cursor = library.NextSubLesson(state.CompletedSubLessons, c.subLessonCount())
	if c.cursor < 0 {
		c.cursor = 0
	}
	return c
}

func (c *CurriculumScreen) subLessonCount() int {
	if c.state.Curriculum == nil {
		return 0
	}
	return len(c.state.Curriculum.SubLessons)
}

func (c *CurriculumScreen) Init() tea.Cmd { return nil }

func (c *CurriculumScreen) Title() string {
	if c.state.SelectedPath != nil {
		return c.state.SelectedPath.Title
	}
	if c.state.Curriculum != nil {
		return c.state.Curriculum.PathTitle
	}
	return "Course"
}

// CapturingInput reports whether keys go to the chat input.
func (c *CurriculumScreen) CapturingInput() bool { return c.mode == modeChat }

func (c *CurriculumScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.StateMsg:
		c.state = msg.State
		if n := c.subLessonCount(); c.cursor >= n {
			c.cursor = max(n-1, 0)
		}
		return c, nil

	case components.SpinnerTickMsg:
		if !c.audioBusy && !c.sending {
			return c, nil
		}
		var cmd tea.Cmd
		c.spin, cmd = c.spin.Update(msg)
		return c, cmd

	case audioDoneMsg:
		c.audioBusy = false
		switch {
		case msg.err != nil:
			c.audioStatus = "Audio unavailable: " + msg.err.Error()
		case msg.savedTo != "":
			c.audioStatus = "Overview saved to " + msg.savedTo
		default:
			c.audioStatus = ""
		}
		return c, nil

	case chatDoneMsg:
		c.sending = false
		return c, nil

	case tea.KeyPressMsg:
		if c.mode == modeChat {
			return c.updateChat(msg)
		}
		return c, c.updateLesson(msg)
	}

	if c.mode == modeChat {
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		return c, cmd
	}
	return c, nil
}

func (c *CurriculumScreen) updateLesson(msg tea.KeyPressMsg) tea.Cmd {
	n := c.subLessonCount()
	switch msg.String() {
	case "esc":
		c.stopAudio()
		c.ctrl.GoToDashboard()
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
			c.follow()
		}
	case "down", "j":
		if c.cursor < n-1 {
			c.cursor++
			c.follow()
		}
	case "pgup":
		c.offset = max(c.offset-c.page(), 0)
	case "pgdown":
		c.offset += c.page()
	case "home", "g":
		c.offset = 0
	case "enter":
		if c.expanded == c.cursor {
			c.expanded = -1
		} else if n > 0 {
			c.expanded = c.cursor
		}
		c.follow()
	case "space", " ":
		if n > 0 {
			c.ctrl.ToggleSubLesson(c.cursor)
		}
	case "+", "=":
		if n > 0 {
			c.ctrl.SetFeedback(c.cursor, library.Helpful)
		}
	case "-", "_":
		if n > 0 {
			c.ctrl.SetFeedback(c.cursor, library.Unhelpful)
		}
	case "a":
		return c.toggleAudio()
	case "c", "tab":
		c.mode = modeChat
		return c.input.Focus()
	}
	return nil
}

func (c *CurriculumScreen) updateChat(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc", "tab":
		c.mode = modeLesson
		c.input.Blur()
		return c, nil
	case "enter":
		text := c.input.Value()
		if text == "" || c.sending {
			return c, nil
		}
		c.input.Reset()
		c.sending = true
		ctrl := c.ctrl
		send := func() tea.Msg {
			ctrl.SendChat(context.Background(), text)
			return chatDoneMsg{}
		}
		return c, tea.Batch(send, c.spin.Tick())
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// toggleAudio starts the overview, or stops it while it plays.
func (c *CurriculumScreen) toggleAudio() tea.Cmd {
	if c.player == nil {
		c.audioStatus = "Audio is turned off."
		return nil
	}
	if c.audioBusy {
		c.stopAudio()
		return nil
	}

	c.audioBusy = true
	c.audioStatus = ""
	if c.state.Curriculum.HasAudio() {
		c.spin.Caption = "Playing the overview..."
	} else {
		c.spin.Caption = "Generating the spoken overview..."
	}

	ctrl, player := c.ctrl, c.player
	play := func() tea.Msg {
		clip, err := ctrl.OverviewAudio(context.Background())
		if err != nil {
			return audioDoneMsg{err: err}
		}
		if err := player.Play(clip); err != nil {
			return audioDoneMsg{err: err}
		}
		if fp, ok := player.(interface{ LastPath() string }); ok {
			return audioDoneMsg{savedTo: fp.LastPath()}
		}
		return audioDoneMsg{}
	}
	return tea.Batch(play, c.spin.Tick())
}

func (c *CurriculumScreen) stopAudio() {
	if c.audioBusy && c.player != nil {
		c.player.Stop()
	}
}

func (c *CurriculumScreen) page() int {
	return max(c.height-2, 1)
}

// follow scrolls so the cursor heading is on screen.
func (c *CurriculumScreen) follow() {
	if c.cursor >= len(c.cursorLines) || c.height <= 0 {
		return
	}
	line := c.cursorLines[c.cursor]
	if line < c.offset {
		c.offset = line
	}
	if line >= c.offset+c.height-1 {
		c.offset = line - c.height/3
	}
}

func (c *CurriculumScreen) View(width, height int) string {
	if c.state.Curriculum == nil {
		return ""
	}
	c.height = height
	if c.mode == modeChat {
		return c.chatView(width, height)
	}
	return c.lessonView(width, height)
}

func (c *CurriculumScreen) KeyHints() []layout.KeyHint {
	if c.mode == modeChat {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Send"},
			{Key: "Esc", Description: "Back to lessons"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Sub-lesson"},
		{Key: "Enter", Description: "Open"},
		{Key: "Space", Description: "Done"},
		{Key: "+/-", Description: "Rate"},
		{Key: "a", Description: "Listen"},
		{Key: "c", Description: "Tutor"},
		{Key: "Esc", Description: "Dashboard"},
	}
}
