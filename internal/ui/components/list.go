package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/ui/theme"
)

// ListItem is one selectable card in a List.
type ListItem struct {
	Title    string
	Badge    string
	Subtitle string
	Detail   string
}

// List is a vertical, scrolling list of cards with one selected.
type List struct {
	Items    []ListItem
	Selected int
	offset   int
}

// NewList creates a list with the first item selected.
func NewList(items []ListItem) List {
	return List{Items: items}
}

// Current returns the selected index, or -1 for an empty list.
func (l List) Current() int {
	if len(l.Items) == 0 {
		return -1
	}
	return l.Selected
}

// Update handles keyboard navigation.
func (l List) Update(msg tea.Msg) (List, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || len(l.Items) == 0 {
		return l, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if l.Selected > 0 {
			l.Selected--
		}
	case "down", "j":
		if l.Selected < len(l.Items)-1 {
			l.Selected++
		}
	case "pgup":
		l.Selected = max(l.Selected-5, 0)
	case "pgdown":
		l.Selected = min(l.Selected+5, len(l.Items)-1)
	case "home", "g":
		l.Selected = 0
	case "end", "G":
		l.Selected = len(l.Items) - 1
	}
	return l, nil
}

// View renders the cards that fit in height, keeping the selection visible.
func (l *List) View(width, height int) string {
	if len(l.Items) == 0 {
		return theme.Hint.Render("Nothing here yet.")
	}

	height-- // position line
	cards := make([]string, len(l.Items))
	for i, it := range l.Items {
		cards[i] = l.renderItem(it, width, i == l.Selected)
	}

	// Scroll by whole cards.
	if l.Selected < l.offset {
		l.offset = l.Selected
	}
	for l.offset < l.Selected && totalHeight(cards[l.offset:l.Selected+1]) > height {
		l.offset++
	}

	var out []string
	used := 0
	for i := l.offset; i < len(cards); i++ {
		h := lipgloss.Height(cards[i])
		if used+h > height && len(out) > 0 {
			break
		}
		out = append(out, cards[i])
		used += h
	}

	view := strings.Join(out, "\n")
	if l.offset > 0 || l.offset+len(out) < len(cards) {
		pos := theme.Hint.Render(positionLabel(l.Selected+1, len(cards)))
		view += "\n" + pos
	}
	return view
}

func (l List) renderItem(it ListItem, width int, selected bool) string {
	title := theme.Unselected.Render(it.Title)
	if selected {
		title = theme.Selected.Render("▸ " + it.Title)
	}
	if it.Badge != "" {
		title += "  " + theme.DifficultyColor(it.Badge).Render(it.Badge)
	}

	lines := []string{title}
	if it.Subtitle != "" {
		lines = append(lines, theme.Body.Render(it.Subtitle))
	}
	if it.Detail != "" {
		lines = append(lines, theme.Hint.Render(it.Detail))
	}
	return Card(strings.Join(lines, "\n"), width, selected)
}

func totalHeight(blocks []string) int {
	h := 0
	for _, b := range blocks {
		h += lipgloss.Height(b)
	}
	return h
}

func positionLabel(i, n int) string {
	return fmt.Sprintf("  %d of %d", i, n)
}
