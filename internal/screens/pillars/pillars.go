// Package pillars lists the thirty pillars generated for a subject.
package pillars

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/content"
	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/session"
	"github.com/abhisek/pathwise/internal/ui/components"
	"github.com/abhisek/pathwise/internal/ui/layout"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

var iconGlyphs = map[content.Icon]string{
	content.IconCode:        "</>",
	content.IconScience:     "⚛",
	content.IconHistory:     "⌛",
	content.IconArt:         "✎",
	content.IconBusiness:    "$",
	content.IconHealth:      "✚",
	content.IconLanguage:    "¶",
	content.IconMath:        "∑",
	content.IconMusic:       "♪",
	content.IconNature:      "❦",
	content.IconTechnology:  "⚙",
	content.IconPhilosophy:  "?",
	content.IconEngineering: "⚒",
	content.IconSocial:      "☺",
	content.IconGeneral:     "•",
}

// Glyph returns the symbol shown for an icon tag.
func Glyph(ic content.Icon) string {
	if g, ok := iconGlyphs[ic]; ok {
		return g
	}
	return iconGlyphs[content.IconGeneral]
}

// PillarsScreen shows the pillars and asks for lesson paths of the chosen one.
type PillarsScreen struct {
	ctrl    screen.Controller
	state   session.AppState
	list    components.List
	spin    components.Spinner
	pending string
}

var _ screen.Screen = (*PillarsScreen)(nil)

// New creates the pillar list for state.Pillars.
func New(ctrl screen.Controller, state session.AppState) *PillarsScreen {
	p := &PillarsScreen{ctrl: ctrl, spin: components.NewSpinner("")}
	p.setState(state)
	return p
}

func (p *PillarsScreen) setState(state session.AppState) {
	sel := p.list.Selected
	p.state = state
	items := make([]components.ListItem, len(state.Pillars))
	for i, pl := range state.Pillars {
		items[i] = components.ListItem{
			Title:    fmt.Sprintf("%s  %d. %s", Glyph(pl.Icon), i+1, pl.Title),
			Subtitle: pl.Description,
		}
	}
	p.list = components.NewList(items)
	if sel < len(items) {
		p.list.Selected = sel
	}
}

func (p *PillarsScreen) Init() tea.Cmd {
	if p.state.IsLoading {
		return p.spin.Tick()
	}
	return nil
}

func (p *PillarsScreen) Title() string { return p.state.Subject }

func (p *PillarsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
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

func (p *PillarsScreen) choose() tea.Cmd {
	i := p.list.Current()
	if i < 0 {
		return nil
	}
	pillar := p.state.Pillars[i]
	p.spin.Caption = "Designing lesson paths for " + pillar.Title + "..."
	ctrl := p.ctrl
	return screen.Run(func(ctx context.Context) {
		_ = ctrl.SelectPillar(ctx, pillar.ID)
	})
}

func (p *PillarsScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	head := theme.Title.Render(p.state.Subject) + "\n" +
		theme.Subtitle.Render(fmt.Sprintf("%d pillars. Pick one to see its lesson paths.", len(p.state.Pillars)))

	if p.state.IsLoading {
		body := head + "\n\n" + p.spin.View()
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
	}

	listHeight := height - lipgloss.Height(head) - 1
	body := head + "\n" + p.list.View(cw, listHeight)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, body)
}

func (p *PillarsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Lesson paths"},
		{Key: "Esc", Description: "Change subject"},
	}
}
