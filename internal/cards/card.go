// Package cards defines the interactive units a lesson is built from.
//
// Each card carries exactly one archetype payload (a Spec). A Spec knows two
// things: whether a submission is structurally complete enough to be checked,
// and whether a complete submission is correct. Interaction state for a card
// inside a running lesson lives in Run.
package cards

import (
	"errors"
	"fmt"
)

// DefaultGradedXP is the reward for a correct submission when a card does not
// declare its own amount.
const DefaultGradedXP = 10

var (
	// ErrIncomplete is returned when a submission is not structurally
	// complete (e.g. a matching attempt with unassigned items).
	ErrIncomplete = errors.New("submission incomplete")

	// ErrWrongAnswerType is returned when the answer shape does not match
	// the card archetype.
	ErrWrongAnswerType = errors.New("answer type does not match card archetype")

	// ErrCardLocked is returned when a card no longer accepts submissions.
	ErrCardLocked = errors.New("card no longer accepts submissions")
)

// Archetype identifies the kind of interaction a card asks for.
type Archetype string

const (
	ArchetypeInfo         Archetype = "info"
	ArchetypeSingleChoice Archetype = "single-choice"
	ArchetypeMultiSelect  Archetype = "multi-select"
	ArchetypeTrueFalse    Archetype = "true-false"
	ArchetypeMatching     Archetype = "matching"
	ArchetypeOrdering     Archetype = "ordering"
)

// AllArchetypes returns every archetype in display order.
func AllArchetypes() []Archetype {
	return []Archetype{
		ArchetypeInfo,
		ArchetypeSingleChoice,
		ArchetypeMultiSelect,
		ArchetypeTrueFalse,
		ArchetypeMatching,
		ArchetypeOrdering,
	}
}

// ParseArchetype converts a catalog string into an Archetype.
func ParseArchetype(s string) (Archetype, error) {
	for _, a := range AllArchetypes() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown card archetype %q", s)
}

// Label returns a human-readable name.
func (a Archetype) Label() string {
	switch a {
	case ArchetypeInfo:
		return "Info"
	case ArchetypeSingleChoice:
		return "Single choice"
	case ArchetypeMultiSelect:
		return "Multi-select"
	case ArchetypeTrueFalse:
		return "True or false"
	case ArchetypeMatching:
		return "Matching"
	case ArchetypeOrdering:
		return "Ordering"
	default:
		return string(a)
	}
}

// Graded reports whether submissions of this archetype are judged.
func (a Archetype) Graded() bool {
	return a != ArchetypeInfo && a != ""
}

// Card is one interactive unit within a lesson.
type Card struct {
	ID     string
	Title  string
	Prompt string

	// XP overrides the per-card reward. Zero means DefaultGradedXP for
	// graded cards and nothing for info cards.
	XP int

	Spec Spec
}

// Archetype returns the archetype of the card's payload.
func (c Card) Archetype() Archetype {
	if c.Spec == nil {
		return ""
	}
	return c.Spec.Archetype()
}

// Graded reports whether the card is judged.
func (c Card) Graded() bool {
	return c.Archetype().Graded()
}

// Reward returns the XP granted for a correct submission.
func (c Card) Reward() int {
	if !c.Graded() {
		return 0
	}
	if c.XP > 0 {
		return c.XP
	}
	return DefaultGradedXP
}

// Validate checks that the card definition is usable.
func (c Card) Validate() error {
	if c.ID == "" {
		return errors.New("card id is empty")
	}
	if c.Spec == nil {
		return fmt.Errorf("card %q has no archetype payload", c.ID)
	}
	if c.XP < 0 {
		return fmt.Errorf("card %q: xp must be >= 0, got %d", c.ID, c.XP)
	}
	if err := c.Spec.Check(); err != nil {
		return fmt.Errorf("card %q (%s): %w", c.ID, c.Archetype(), err)
	}
	return nil
}
