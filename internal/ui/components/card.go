package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for boxed sections so
// they line up. It is capped to keep long lines readable.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 4
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Card wraps content in a rounded-border box at the given content width.
// The selected card gets the accent border.
func Card(content string, cw int, selected bool) string {
	style := theme.Card
	if selected {
		style = theme.CardSelected
	}
	return style.Width(cw - 2).Render(content)
}

// Badge renders a short inline label.
func Badge(label string, style lipgloss.Style) string {
	return style.Render("[" + label + "]")
}
