package curriculum

import (
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pathwise/internal/audio"
	"github.com/abhisek/pathwise/internal/imagery"
	"github.com/abhisek/pathwise/internal/library"
	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/screen/screentest"
	"github.com/abhisek/pathwise/internal/tutor"
)

func press(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

// recordingPlayer records the clips it was asked to play.
type recordingPlayer struct {
	played []audio.Clip
}

func (p *recordingPlayer) Play(c audio.Clip) error {
	p.played = append(p.played, c)
	return nil
}
func (p *recordingPlayer) Stop() {}

func newScreen(t *testing.T, n int) (*CurriculumScreen, *screentest.Controller, *recordingPlayer) {
	t.Helper()
	ctrl := &screentest.Controller{St: screentest.CourseState(n)}
	player := &recordingPlayer{}
	return New(ctrl, ctrl.St, player, imagery.Default), ctrl, player
}

func TestCursorStartsAtFirstUnfinished(t *testing.T) {
	ctrl := &screentest.Controller{St: screentest.CourseState(4)}
	ctrl.St.CompletedSubLessons = []int{0, 1}
	c := New(ctrl, ctrl.St, nil, imagery.Default)
	assert.Equal(t, 2, c.cursor)
}

func TestToggleAndFeedbackUseCursor(t *testing.T) {
	c, ctrl, _ := newScreen(t, 3)
	c.View(100, 40)

	c.Update(press("down"))
	c.Update(press("space"))
	c.Update(press("+"))
	c.Update(press("down"))
	c.Update(press("-"))
	c.Update(press("down")) // clamped at the last sub-lesson
	c.Update(press("space"))

	assert.Equal(t, []string{
		"ToggleSubLesson 1",
		"SetFeedback 1 helpful",
		"SetFeedback 2 unhelpful",
		"ToggleSubLesson 2",
	}, ctrl.Calls())
}

func TestStateMsgRendersProgressAndFeedback(t *testing.T) {
	c, ctrl, _ := newScreen(t, 4)
	st := ctrl.St
	st.CompletedSubLessons = []int{0}
	st.SubLessonFeedback = map[int]library.Feedback{0: library.Helpful}
	c.Update(screen.StateMsg{State: st})

	view := c.View(100, 60)
	assert.Contains(t, view, "25%")
	assert.Contains(t, view, "[✓]")
	assert.Contains(t, view, "helpful")
	assert.Contains(t, view, "Sub-lessons (1/4 done)")
}

func TestExpandShowsIllustrationLink(t *testing.T) {
	c, _, _ := newScreen(t, 2)
	c.View(100, 60)

	c.Update(press("enter"))
	view := c.View(120, 80)
	assert.Contains(t, view, "Body of part 1")
	assert.Contains(t, view, "[illustration: a glowing wave packet]")
	assert.Contains(t, view, "image.pollinations.ai")
	assert.Contains(t, view, "Sketch the wave")

	c.Update(press("enter"))
	assert.NotContains(t, c.View(120, 80), "Body of part 1")
}

func TestEscGoesToDashboard(t *testing.T) {
	c, ctrl, _ := newScreen(t, 2)
	c.Update(press("esc"))
	assert.Equal(t, []string{"GoToDashboard"}, ctrl.Calls())
}

func TestAudioPlaysOverview(t *testing.T) {
	c, ctrl, player := newScreen(t, 2)
	clip := audio.Clip{PCM: make([]byte, 480), Format: audio.DefaultFormat()}
	ctrl.Audio = clip

	_, cmd := c.Update(press("a"))
	require.NotNil(t, cmd)
	assert.True(t, c.audioBusy)

	done := runPlay(t, cmd)
	c.Update(done)
	assert.False(t, c.audioBusy)
	require.Len(t, player.played, 1)
	assert.Equal(t, clip, player.played[0])
	assert.Equal(t, []string{"OverviewAudio"}, ctrl.Calls())
}

func TestAudioFailureShowsStatus(t *testing.T) {
	c, ctrl, player := newScreen(t, 2)
	ctrl.AudioErr = errors.New("speech unsupported")

	_, cmd := c.Update(press("a"))
	c.Update(runPlay(t, cmd))

	assert.Empty(t, player.played)
	assert.Contains(t, c.View(100, 40), "Audio unavailable: speech unsupported")
}

func TestAudioDisabledWithoutPlayer(t *testing.T) {
	ctrl := &screentest.Controller{St: screentest.CourseState(1)}
	c := New(ctrl, ctrl.St, nil, imagery.Default)
	_, cmd := c.Update(press("a"))
	assert.Nil(t, cmd)
	assert.Empty(t, ctrl.Calls())
}

// runPlay runs the batch returned for playback and returns its audioDoneMsg.
func runPlay(t *testing.T, cmd tea.Cmd) audioDoneMsg {
	t.Helper()
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok, "expected a batch")
	for _, c := range batch {
		if c == nil {
			continue
		}
		if done, ok := c().(audioDoneMsg); ok {
			return done
		}
	}
	t.Fatal("no audioDoneMsg in batch")
	return audioDoneMsg{}
}

func TestChatSendsAndReturns(t *testing.T) {
	c, ctrl, _ := newScreen(t, 2)

	c.Update(press("c"))
	require.True(t, c.CapturingInput())

	c.input.SetValue("What is a wavefunction?")
	_, cmd := c.Update(press("enter"))
	require.NotNil(t, cmd)
	assert.True(t, c.sending)
	assert.Empty(t, c.input.Value())

	batch := cmd().(tea.BatchMsg)
	for _, bc := range batch {
		if bc == nil {
			continue
		}
		if msg, ok := bc().(chatDoneMsg); ok {
			c.Update(msg)
		}
	}
	assert.False(t, c.sending)
	assert.Equal(t, []string{"SendChat What is a wavefunction?"}, ctrl.Calls())

	c.Update(press("esc"))
	assert.False(t, c.CapturingInput())
}

func TestChatViewShowsHistory(t *testing.T) {
	c, ctrl, _ := newScreen(t, 2)
	st := ctrl.St
	st.ChatHistory = []tutor.Message{
		tutor.WelcomeMessage("Wave Mechanics"),
		tutor.NewUserMessage("hello tutor"),
		tutor.ThinkingMessage(),
	}
	c.Update(screen.StateMsg{State: st})
	c.Update(press("c"))

	view := c.View(100, 40)
	assert.Contains(t, view, "hello tutor")
	assert.Contains(t, view, "Thinking...")
	assert.True(t, strings.Contains(view, "Tutor"))
}
