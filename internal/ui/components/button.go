package components

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/coursiz/internal/ui/theme"
)

// Button is a styled button bound to a key. An inactive button renders
// dimmed and ignores its key.
type Button struct {
	Label  string
	Key    string
	Active bool
}

// NewButton creates a button triggered by key.
func NewButton(label, key string, active bool) Button {
	return Button{Label: label, Key: key, Active: active}
}

// Pressed reports whether msg triggers the button.
func (b Button) Pressed(msg tea.Msg) bool {
	if !b.Active {
		return false
	}
	kmsg, ok := msg.(tea.KeyMsg)
	return ok && kmsg.String() == b.Key
}

// View renders the button.
func (b Button) View() string {
	if b.Active {
		return theme.ButtonActive.Render("▸ " + b.Label)
	}
	return theme.ButtonInactive.Render(b.Label)
}
