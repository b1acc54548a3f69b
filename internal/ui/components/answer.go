package components

import (
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/ui/theme"
)

// SubmitMsg carries an answer the learner confirmed with Enter.
type SubmitMsg struct {
	Answer cards.Answer
}

// AnswerInput collects an answer for one presented card. It knows nothing
// about correctness; the screen submits the answer and locks the input.
type AnswerInput struct {
	P      cards.Presentation
	Locked bool

	cursor   int
	picked   map[int]bool   // multi-select
	verdicts map[int]bool   // true-false
	assigned map[string]int // matching: left item -> index into P.Right
	order    []string       // ordering, current arrangement
	grabbed  bool           // ordering: the cursor item moves with the cursor
}

// NewAnswerInput creates an input for p.
func NewAnswerInput(p cards.Presentation) AnswerInput {
	return AnswerInput{
		P:        p,
		picked:   make(map[int]bool),
		verdicts: make(map[int]bool),
		assigned: make(map[string]int),
		order:    slices.Clone(p.Items),
	}
}

// Cursor returns the highlighted row.
func (a AnswerInput) Cursor() int { return a.cursor }

func (a AnswerInput) rows() int {
	switch a.P.Type {
	case cards.ArchetypeSingleChoice, cards.ArchetypeMultiSelect:
		return len(a.P.Options)
	case cards.ArchetypeTrueFalse:
		return len(a.P.Statements)
	case cards.ArchetypeMatching:
		return len(a.P.Left)
	case cards.ArchetypeOrdering:
		return len(a.order)
	}
	return 0
}

// Update handles keys for the card's archetype. Enter emits a SubmitMsg.
func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || a.Locked || a.P.Type == cards.ArchetypeInfo {
		return a, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		a.move(-1)
		return a, nil
	case "down", "j":
		a.move(1)
		return a, nil
	case "enter":
		ans := a.Answer()
		return a, func() tea.Msg { return SubmitMsg{Answer: ans} }
	}

	switch a.P.Type {
	case cards.ArchetypeSingleChoice:
		if i, ok := digit(key); ok && i < len(a.P.Options) {
			a.cursor = i
		}
	case cards.ArchetypeMultiSelect:
		if i, ok := digit(key); ok && i < len(a.P.Options) {
			a.cursor = i
			a.picked[i] = !a.picked[i]
		} else if key == "space" || key == "x" {
			a.picked[a.cursor] = !a.picked[a.cursor]
		}
	case cards.ArchetypeTrueFalse:
		switch key {
		case "t", "left":
			a.verdicts[a.cursor] = true
		case "f", "right":
			a.verdicts[a.cursor] = false
		}
	case cards.ArchetypeMatching:
		switch key {
		case "right", "l", "space":
			a.cycle(1)
		case "left", "h":
			a.cycle(-1)
		case "backspace":
			delete(a.assigned, a.P.Left[a.cursor])
		}
	case cards.ArchetypeOrdering:
		if key == "space" {
			a.grabbed = !a.grabbed
		}
	}
	return a, nil
}

func (a *AnswerInput) move(delta int) {
	next := a.cursor + delta
	if next < 0 || next >= a.rows() {
		return
	}
	if a.P.Type == cards.ArchetypeOrdering && a.grabbed {
		a.order[a.cursor], a.order[next] = a.order[next], a.order[a.cursor]
	}
	a.cursor = next
}

// cycle steps the highlighted left item through the right-hand targets,
// passing through "unassigned".
func (a *AnswerInput) cycle(delta int) {
	n := len(a.P.Right)
	if n == 0 {
		return
	}
	left := a.P.Left[a.cursor]
	cur, ok := a.assigned[left]
	if !ok {
		cur = -1
	}
	next := cur + delta
	switch {
	case next >= n:
		next = -1
	case next < -1:
		next = n - 1
	}
	if next == -1 {
		delete(a.assigned, left)
		return
	}
	a.assigned[left] = next
}

// Answer builds the answer from the current input state.
func (a AnswerInput) Answer() cards.Answer {
	switch a.P.Type {
	case cards.ArchetypeSingleChoice:
		return cards.Choice{Index: a.cursor}
	case cards.ArchetypeMultiSelect:
		var idx []int
		for i, on := range a.picked {
			if on {
				idx = append(idx, i)
			}
		}
		slices.Sort(idx)
		return cards.Selection{Indices: idx}
	case cards.ArchetypeTrueFalse:
		v := make(cards.Verdicts, len(a.verdicts))
		for i, b := range a.verdicts {
			v[i] = b
		}
		return v
	case cards.ArchetypeMatching:
		m := make(cards.Assignments, len(a.assigned))
		for left, ri := range a.assigned {
			m[left] = a.P.Right[ri]
		}
		return m
	case cards.ArchetypeOrdering:
		return cards.Sequence(slices.Clone(a.order))
	}
	return cards.Acknowledgement{}
}

// Hint returns the key help for the archetype.
func (a AnswerInput) Hint() string {
	switch a.P.Type {
	case cards.ArchetypeSingleChoice:
		return "↑↓ or 1-9 to choose, Enter to answer"
	case cards.ArchetypeMultiSelect:
		return "Space to toggle, Enter to answer"
	case cards.ArchetypeTrueFalse:
		return "T / F for each statement, Enter to answer"
	case cards.ArchetypeMatching:
		return "←→ to pick a match, Enter to answer"
	case cards.ArchetypeOrdering:
		return "Space to grab, ↑↓ to move, Enter to answer"
	}
	return "Enter to continue"
}

// View renders the prompt and the input rows.
func (a AnswerInput) View(width int) string {
	var b strings.Builder
	if a.P.Prompt != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(width).Render(a.P.Prompt))
		b.WriteString("\n\n")
	}

	switch a.P.Type {
	case cards.ArchetypeInfo:
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Width(width).Render(a.P.Body))
	case cards.ArchetypeSingleChoice:
		for i, opt := range a.P.Options {
			mark := "( )"
			if i == a.cursor {
				mark = "(•)"
			}
			b.WriteString(a.row(i, fmt.Sprintf("%s %d. %s", mark, i+1, opt)))
		}
	case cards.ArchetypeMultiSelect:
		for i, opt := range a.P.Options {
			mark := "[ ]"
			if a.picked[i] {
				mark = "[x]"
			}
			b.WriteString(a.row(i, fmt.Sprintf("%s %d. %s", mark, i+1, opt)))
		}
	case cards.ArchetypeTrueFalse:
		for i, st := range a.P.Statements {
			mark := "[ ? ]"
			if v, ok := a.verdicts[i]; ok {
				mark = map[bool]string{true: "[ T ]", false: "[ F ]"}[v]
			}
			b.WriteString(a.row(i, mark+" "+st))
		}
	case cards.ArchetypeMatching:
		leftWidth := 0
		for _, l := range a.P.Left {
			leftWidth = max(leftWidth, lipgloss.Width(l))
		}
		for i, l := range a.P.Left {
			target := "…"
			if ri, ok := a.assigned[l]; ok {
				target = a.P.Right[ri]
			}
			b.WriteString(a.row(i, fmt.Sprintf("%-*s  →  %s", leftWidth, l, target)))
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Targets: " + strings.Join(a.P.Right, " · ")))
		b.WriteString("\n")
	case cards.ArchetypeOrdering:
		for i, item := range a.order {
			label := fmt.Sprintf("%d. %s", i+1, item)
			if a.grabbed && i == a.cursor {
				label += "  ⇅"
			}
			b.WriteString(a.row(i, label))
		}
	}
	return b.String()
}

func (a AnswerInput) row(i int, text string) string {
	if i == a.cursor && !a.Locked {
		return theme.Selected.Render("▸ "+text) + "\n"
	}
	return theme.Unselected.Render("  "+text) + "\n"
}

func digit(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}
