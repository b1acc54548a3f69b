package api

import (
	"fmt"

	"github.com/abhisek/coursiz/internal/cards"
)

// answerRequest is the wire form of a submission. Which field is read
// depends on the archetype of the card being answered.
type answerRequest struct {
	Choice      *int              `json:"choice,omitempty"`
	Selection   []int             `json:"selection,omitempty"`
	Verdicts    map[int]bool      `json:"verdicts,omitempty"`
	Assignments map[string]string `json:"assignments,omitempty"`
	Sequence    []string          `json:"sequence,omitempty"`
}

// toAnswer converts req into the answer type card expects. Missing fields
// become empty answers so the card's completeness check reports them.
func (req answerRequest) toAnswer(card cards.Card) (cards.Answer, error) {
	switch card.Archetype() {
	case cards.ArchetypeInfo:
		return cards.Acknowledgement{}, nil
	case cards.ArchetypeSingleChoice:
		if req.Choice == nil {
			return nil, fmt.Errorf("%w: choice is required", cards.ErrIncomplete)
		}
		return cards.Choice{Index: *req.Choice}, nil
	case cards.ArchetypeMultiSelect:
		return cards.Selection{Indices: req.Selection}, nil
	case cards.ArchetypeTrueFalse:
		return cards.Verdicts(req.Verdicts), nil
	case cards.ArchetypeMatching:
		return cards.Assignments(req.Assignments), nil
	case cards.ArchetypeOrdering:
		return cards.Sequence(req.Sequence), nil
	default:
		return nil, fmt.Errorf("unsupported card type %q", card.Archetype())
	}
}
