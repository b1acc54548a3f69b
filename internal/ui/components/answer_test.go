package components

import (
	"reflect"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/coursiz/internal/cards"
)

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func special(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func press(a AnswerInput, keys ...tea.KeyPressMsg) AnswerInput {
	for _, k := range keys {
		a, _ = a.Update(k)
	}
	return a
}

func TestAnswerInput_SingleChoice(t *testing.T) {
	a := NewAnswerInput(cards.Presentation{Type: cards.ArchetypeSingleChoice, Options: []string{"a", "b", "c"}})
	a = press(a, special(tea.KeyDown), special(tea.KeyDown), special(tea.KeyDown))
	if got := a.Answer(); got != (cards.Choice{Index: 2}) {
		t.Errorf("answer after moving past the end = %v, want index 2", got)
	}
	a = press(a, key('1'))
	if got := a.Answer(); got != (cards.Choice{Index: 0}) {
		t.Errorf("answer after pressing 1 = %v", got)
	}
}

func TestAnswerInput_MultiSelect(t *testing.T) {
	a := NewAnswerInput(cards.Presentation{Type: cards.ArchetypeMultiSelect, Options: []string{"a", "b", "c"}})
	a = press(a, key('3'), special(tea.KeyUp), special(tea.KeySpace), key('1'), key('1'))
	want := cards.Selection{Indices: []int{1, 2}}
	if got := a.Answer(); !reflect.DeepEqual(got, want) {
		t.Errorf("answer = %v, want %v", got, want)
	}
}

func TestAnswerInput_TrueFalse(t *testing.T) {
	a := NewAnswerInput(cards.Presentation{Type: cards.ArchetypeTrueFalse, Statements: []string{"x", "y"}})
	a = press(a, key('t'), special(tea.KeyDown), key('f'))
	want := cards.Verdicts{0: true, 1: false}
	if got := a.Answer(); !reflect.DeepEqual(got, want) {
		t.Errorf("answer = %v, want %v", got, want)
	}
}

func TestAnswerInput_Matching(t *testing.T) {
	a := NewAnswerInput(cards.Presentation{
		Type:  cards.ArchetypeMatching,
		Left:  []string{"go", "defer"},
		Right: []string{"run at return", "start goroutine"},
	})
	// Right twice lands on the second target; the second row goes left
	// once, wrapping to the last target, then right once more to unassign
	// and right again to the first.
	a = press(a, special(tea.KeyRight), special(tea.KeyRight),
		special(tea.KeyDown), special(tea.KeyLeft), special(tea.KeyRight), special(tea.KeyRight))
	want := cards.Assignments{"go": "start goroutine", "defer": "run at return"}
	if got := a.Answer(); !reflect.DeepEqual(got, want) {
		t.Errorf("answer = %v, want %v", got, want)
	}

	a = press(a, special(tea.KeyBackspace))
	if got := a.Answer().(cards.Assignments); len(got) != 1 {
		t.Errorf("backspace should clear the row, got %v", got)
	}
}

func TestAnswerInput_OrderingGrabAndMove(t *testing.T) {
	a := NewAnswerInput(cards.Presentation{Type: cards.ArchetypeOrdering, Items: []string{"c", "a", "b"}})
	a = press(a, special(tea.KeySpace), special(tea.KeyDown), special(tea.KeyDown), special(tea.KeySpace))
	want := cards.Sequence{"a", "b", "c"}
	if got := a.Answer(); !reflect.DeepEqual(got, want) {
		t.Errorf("answer = %v, want %v", got, want)
	}

	// Without a grab the cursor moves alone.
	a = press(a, special(tea.KeyUp))
	if got := a.Answer(); !reflect.DeepEqual(got, want) {
		t.Errorf("answer changed without grab: %v", got)
	}
}

func TestAnswerInput_EnterEmitsSubmit(t *testing.T) {
	a := NewAnswerInput(cards.Presentation{Type: cards.ArchetypeSingleChoice, Options: []string{"a", "b"}})
	a = press(a, special(tea.KeyDown))
	_, cmd := a.Update(special(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(SubmitMsg)
	if !ok || msg.Answer != (cards.Choice{Index: 1}) {
		t.Errorf("msg = %#v", msg)
	}
}

func TestAnswerInput_LockedIgnoresKeys(t *testing.T) {
	a := NewAnswerInput(cards.Presentation{Type: cards.ArchetypeSingleChoice, Options: []string{"a", "b"}})
	a.Locked = true
	a, cmd := a.Update(special(tea.KeyEnter))
	if cmd != nil {
		t.Error("locked input should not submit")
	}
	a = press(a, special(tea.KeyDown))
	if a.Cursor() != 0 {
		t.Error("locked input should not move")
	}
}

func TestSolution(t *testing.T) {
	tests := []struct {
		name string
		spec cards.Spec
		want string
	}{
		{"single", cards.SingleChoice{Options: []string{"a", "b"}, Correct: 1}, "b"},
		{"multi", cards.MultiSelect{Options: []string{"a", "b", "c"}, Correct: []int{0, 2}}, "a, c"},
		{"true-false", cards.TrueFalse{Statements: []cards.Statement{{Text: "x", Truth: true}, {Text: "y"}}}, "1:T 2:F"},
		{"matching", cards.Matching{Left: []string{"go"}, Right: []string{"spawn"}, Pairs: map[string]string{"go": "spawn"}}, "go → spawn"},
		{"ordering", cards.Ordering{Items: []string{"a", "b"}}, "a → b"},
		{"info", cards.Info{Body: "hi"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Solution(cards.Card{Spec: tt.spec}); got != tt.want {
				t.Errorf("Solution = %q, want %q", got, tt.want)
			}
		})
	}
}
