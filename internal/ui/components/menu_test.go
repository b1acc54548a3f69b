package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
)

type picked string

func TestMenu_SkipsDisabledItems(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "Locked", Disabled: true},
		{Label: "Next", Action: func() tea.Cmd { return func() tea.Msg { return picked("next") } }},
		{Label: "Map", Action: func() tea.Cmd { return func() tea.Msg { return picked("map") } }},
	})
	if m.Selected != 1 {
		t.Fatalf("initial selection = %d, want 1", m.Selected)
	}

	m, _ = m.Update(special(tea.KeyUp))
	if m.Selected != 1 {
		t.Errorf("moved onto disabled item: %d", m.Selected)
	}

	_, cmd := m.Update(key('3'))
	if cmd == nil || cmd() != picked("map") {
		t.Error("number key should trigger the third item")
	}
	if _, cmd := m.Update(key('1')); cmd != nil {
		t.Error("number key should not trigger a disabled item")
	}
}

func TestProgressBar_Fraction(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 4, 0},
		{2, 4, 0.5},
		{5, 4, 1},
		{1, 0, 0},
	}
	for _, tt := range tests {
		if got := NewProgressBar("", tt.done, tt.total, 40).Fraction(); got != tt.want {
			t.Errorf("Fraction(%d/%d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestButtonPressed(t *testing.T) {
	enter := tea.KeyPressMsg{Code: tea.KeyEnter}
	if !NewButton("Go", "enter", true).Pressed(enter) {
		t.Error("active button should fire on its key")
	}
	if NewButton("Go", "enter", false).Pressed(enter) {
		t.Error("inactive button should ignore its key")
	}
	if NewButton("Go", "enter", true).Pressed(tea.KeyPressMsg{Code: 'x', Text: "x"}) {
		t.Error("button should ignore other keys")
	}
}
