package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursiz/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with Coursiz styling and a validator
// that runs on submit.
type TextInput struct {
	Model    textinput.Model
	Validate func(string) error
	err      error
}

// NewTextInput creates a focused text input.
func NewTextInput(placeholder string, limit int, validate func(string) error) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if limit > 0 {
		ti.CharLimit = limit
	}
	ti.Focus()
	return TextInput{Model: ti, Validate: validate}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages. Typing clears a previous validation error.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		t.err = nil
	}
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// Submit validates the trimmed value. On failure the error is kept and
// shown under the input.
func (t *TextInput) Submit() (string, bool) {
	v := t.Value()
	if t.Validate != nil {
		if err := t.Validate(v); err != nil {
			t.err = err
			return "", false
		}
	}
	return v, true
}

// View renders the text input.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.err != nil {
		view += "\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(t.err.Error())
	}
	return view
}

// Value returns the current input value, trimmed.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}
