package signin

import (
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pathwise/internal/screen/screentest"
	"github.com/abhisek/pathwise/internal/session"
)

// runAll runs cmd and every command of a batch it returns.
func runAll(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, runAll(c)...)
	}
	return out
}

func TestEnterSignsIn(t *testing.T) {
	ctrl := &screentest.Controller{}
	s := New(ctrl, session.DefaultState())

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, s.signingIn)

	// A second press while signing in does nothing.
	_, again := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, again)

	for _, msg := range runAll(cmd) {
		s.Update(msg)
	}
	assert.Equal(t, []string{"SignIn"}, ctrl.Calls())
	assert.False(t, s.signingIn)
}

func TestSignInFailureShown(t *testing.T) {
	ctrl := &screentest.Controller{SignErr: errors.New("no network")}
	s := New(ctrl, session.DefaultState())

	s.Update(signInDoneMsg{err: ctrl.SignErr})
	assert.Contains(t, s.View(100, 40), "Sign-in failed: no network")
}

func TestQuitItem(t *testing.T) {
	s := New(&screentest.Controller{}, session.DefaultState())
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
