package components

import (
	"fmt"
	"strings"

	"github.com/abhisek/coursiz/internal/cards"
)

// Solution renders the answer key of a graded card for feedback. Info
// cards have none.
func Solution(c cards.Card) string {
	switch s := c.Spec.(type) {
	case cards.SingleChoice:
		if s.Correct >= 0 && s.Correct < len(s.Options) {
			return s.Options[s.Correct]
		}
	case cards.MultiSelect:
		picked := make([]string, 0, len(s.Correct))
		for _, i := range s.Correct {
			if i >= 0 && i < len(s.Options) {
				picked = append(picked, s.Options[i])
			}
		}
		return strings.Join(picked, ", ")
	case cards.TrueFalse:
		parts := make([]string, len(s.Statements))
		for i, st := range s.Statements {
			parts[i] = fmt.Sprintf("%d:%s", i+1, map[bool]string{true: "T", false: "F"}[st.Truth])
		}
		return strings.Join(parts, " ")
	case cards.Matching:
		parts := make([]string, 0, len(s.Left))
		for _, l := range s.Left {
			parts = append(parts, l+" → "+s.Pairs[l])
		}
		return strings.Join(parts, ", ")
	case cards.Ordering:
		return strings.Join(s.Items, " → ")
	}
	return ""
}
