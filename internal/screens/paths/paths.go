// Package paths lists the lesson paths of the selected pillar.
package paths

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/session"
	"github.com/abhisek/pathwise/internal/ui/components"
	"github.com/abhisek/pathwise/internal/ui/layout"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

// PathsScreen shows the paths and builds a curriculum for the chosen one.
type PathsScreen struct {
	ctrl  screen.Controller
	state session.AppState
	list  components.List
	spin  components.Spinner
}

var _ screen.Screen = (*PathsScreen)(nil)

// New creates the path list for state.Paths.
func New(ctrl screen.Controller, state session.AppState) *PathsScreen {
	p := &PathsScreen{ctrl: ctrl, spin: components.NewSpinner("")}
	p.setState(state)
	return p
}

func (p *PathsScreen) setState(state session.AppState) {
	sel := p.list.Selected
	p.state = state
	items := make([]components.ListItem, len(state.Paths))
	for i, pa := range state.Paths {
		items[i] = components.ListItem{
			Title:    pa.Title,
			Badge:    string(pa.Difficulty),
			Subtitle: pa.Description,
			Detail:   "Estimated time: " + pa.EstimatedTime,
		}
	}
	p.list = components.NewList(items)
	if sel < len(items) {
		p.list.Selected = sel
	}
}

func (p *PathsScreen) Init() tea.Cmd {
	if p.state.IsLoading {
		return p.spin.Tick()
	}
	return nil
}

func (p *PathsScreen) Title() string {
	if p.state.SelectedPillar != nil {
		return p.state.SelectedPillar.Title
	}
	return "Lesson Paths"
}

func (p *PathsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.StateMsg:
		wasLoading := p.state.IsLoading
		p.setState(msg.State)
		if p.state.IsLoading && !wasLoading {
			return p, p.spin.Tick()
		}
		return p, nil

	case components.SpinnerTickMsg:
		if !p.state.IsLoading {
			return p, nil
		}
		var cmd tea.Cmd
		p.spin, cmd = p.spin.Update(msg)
		return p, cmd

	case tea.KeyPressMsg:
		if p.state.IsLoading {
			return p, nil
		}
		switch msg.String() {
		case "esc":
			p.ctrl.Back()
			return p, nil
		case "enter":
			return p, p.choose()
		}
		var cmd tea.Cmd
		p.list, cmd = p.list.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *PathsScreen) choose() tea.Cmd {
	i := p.list.Current()
	if i < 0 {
		return nil
	}
	path := p.state.Paths[i]
	p.spin.Caption = "Writing the curriculum for " + path.Title + "..."
	ctrl := p.ctrl
	return screen.Run(func(ctx context.Context) {
		_ = ctrl.SelectPath(ctx, path.ID)
	})
}

func (p *PathsScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	pillar := ""
	if p.state.SelectedPillar != nil {
		pillar = p.state.SelectedPillar.Title
	}
	head := theme.Title.Render(pillar) + "\n" +
		theme.Subtitle.Render(fmt.Sprintf("%s · %d lesson paths", p.state.Subject, len(p.state.Paths)))

	if p.state.IsLoading {
		body := head + "\n\n" + p.spin.View()
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
	}

	listHeight := height - lipgloss.Height(head) - 1
	body := head + "\n" + p.list.View(cw, listHeight)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, body)
}

func (p *PathsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Start course"},
		{Key: "Esc", Description: "Pillars"},
	}
}
