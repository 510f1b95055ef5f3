// Package confirm is a yes/no dialog pushed over another screen.
package confirm

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/router"
	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/ui/layout"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

// ConfirmScreen asks a question. Either answer pops the dialog; yes also
// runs the action.
type ConfirmScreen struct {
	title    string
	question string
	onYes    func() tea.Cmd
	yes      bool
}

var _ screen.Screen = (*ConfirmScreen)(nil)

// New creates a dialog with "No" preselected.
func New(title, question string, onYes func() tea.Cmd) *ConfirmScreen {
	return &ConfirmScreen{title: title, question: question, onYes: onYes}
}

func pop() tea.Msg { return router.PopScreenMsg{} }

func (c *ConfirmScreen) Init() tea.Cmd { return nil }

func (c *ConfirmScreen) Title() string { return c.title }

func (c *ConfirmScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return c, nil
	}
	switch kmsg.String() {
	case "left", "right", "tab", "h", "l":
		c.yes = !c.yes
	case "y":
		return c, c.accept()
	case "n", "esc":
		return c, pop
	case "enter":
		if c.yes {
			return c, c.accept()
		}
		return c, pop
	}
	return c, nil
}

func (c *ConfirmScreen) accept() tea.Cmd {
	if c.onYes == nil {
		return pop
	}
	return tea.Batch(pop, c.onYes())
}

func (c *ConfirmScreen) View(width, height int) string {
	yes := theme.Unselected.Padding(0, 2).Render("Yes")
	no := theme.Unselected.Padding(0, 2).Render("No")
	if c.yes {
		yes = lipgloss.NewStyle().Background(theme.Error).Foreground(theme.Text).Bold(true).Padding(0, 2).Render("Yes")
	} else {
		no = lipgloss.NewStyle().Background(theme.Primary).Foreground(theme.Text).Bold(true).Padding(0, 2).Render("No")
	}

	box := theme.CardSelected.Padding(1, 3).Render(
		theme.Body.Bold(true).Render(c.question) + "\n\n" +
			lipgloss.JoinHorizontal(lipgloss.Center, yes, "   ", no))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (c *ConfirmScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "y/n", Description: "Answer"},
		{Key: "←→", Description: "Switch"},
		{Key: "Esc", Description: "Cancel"},
	}
}
