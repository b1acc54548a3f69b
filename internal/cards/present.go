package cards

import (
	"math/rand/v2"
	"slices"
)

// Presentation is the learner-facing part of a card. It never carries the
// answer key.
type Presentation struct {
	ID     string    `json:"id"`
	Type   Archetype `json:"type"`
	Title  string    `json:"title,omitempty"`
	Prompt string    `json:"prompt,omitempty"`
	XP     int       `json:"xp"`

	Body       string   `json:"body,omitempty"`
	Options    []string `json:"options,omitempty"`
	Statements []string `json:"statements,omitempty"`
	Left       []string `json:"left,omitempty"`
	Right      []string `json:"right,omitempty"`
	Items      []string `json:"items,omitempty"`
}

// Present builds the presentation of c. Ordering items come out shuffled
// away from the canonical order and matching targets are shuffled; r fixes
// the arrangement so a driver can re-render it consistently.
func Present(c Card, r *rand.Rand) Presentation {
	p := Presentation{
		ID:     c.ID,
		Type:   c.Archetype(),
		Title:  c.Title,
		Prompt: c.Prompt,
		XP:     c.Reward(),
	}
	switch s := c.Spec.(type) {
	case Info:
		p.Body = s.Body
	case SingleChoice:
		p.Options = slices.Clone(s.Options)
	case MultiSelect:
		p.Options = slices.Clone(s.Options)
	case TrueFalse:
		for _, st := range s.Statements {
			p.Statements = append(p.Statements, st.Text)
		}
	case Matching:
		p.Left = slices.Clone(s.Left)
		p.Right = slices.Clone(s.Right)
		r.Shuffle(len(p.Right), func(i, j int) { p.Right[i], p.Right[j] = p.Right[j], p.Right[i] })
	case Ordering:
		p.Items = s.Shuffled(r)
	}
	return p
}
