package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with the app's prompt styling.
type TextInput struct {
	Model    textinput.Model
	Label    string
	MaxChars int
}

// NewTextInput creates a focused text input.
func NewTextInput(label, placeholder string, maxChars int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	if maxChars > 0 {
		ti.CharLimit = maxChars
	}
	ti.Focus()

	return TextInput{
		Model:    ti,
		Label:    label,
		MaxChars: maxChars,
	}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the label and the input.
func (t TextInput) View() string {
	if t.Label == "" {
		return t.Model.View()
	}
	label := lipgloss.NewStyle().Foreground(theme.TextDim).Render(t.Label)
	return label + "\n" + t.Model.View()
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// Reset clears the input.
func (t *TextInput) Reset() {
	t.Model.Reset()
}

// SetValue replaces the input value.
func (t *TextInput) SetValue(v string) {
	t.Model.SetValue(v)
}

// Focused reports whether the input takes keystrokes.
func (t TextInput) Focused() bool {
	return t.Model.Focused()
}

// Focus gives the input keyboard focus.
func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

// Blur removes keyboard focus.
func (t *TextInput) Blur() {
	t.Model.Blur()
}

// SetWidth sets the visible width of the input.
func (t *TextInput) SetWidth(w int) {
	if w > 4 {
		t.Model.SetWidth(w - 4)
	}
}
