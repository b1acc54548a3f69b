package cards

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// Spec is the archetype payload of a card. The set of implementations is
// closed: Info, SingleChoice, MultiSelect, TrueFalse, Matching, Ordering.
type Spec interface {
	// Archetype returns the tag of this payload.
	Archetype() Archetype

	// Check validates the card definition itself.
	Check() error

	// Complete returns nil if the answer is structurally complete and of the
	// right shape. It never judges correctness.
	Complete(a Answer) error

	// Grade reports whether a complete answer is correct. Callers must call
	// Complete first; Grade returns false for incomplete answers.
	Grade(a Answer) bool

	sealed()
}

// Answer is a learner submission. Implementations mirror the Spec family.
type Answer interface {
	answer()
}

// Acknowledgement dismisses an info card.
type Acknowledgement struct{}

// Choice selects one option by index.
type Choice struct {
	Index int
}

// Selection selects a set of options by index.
type Selection struct {
	Indices []int
}

// Verdicts assigns true/false to each statement, keyed by statement index.
type Verdicts map[int]bool

// Assignments maps each left item to the chosen right item.
type Assignments map[string]string

// Sequence is a learner-arranged permutation of ordering items.
type Sequence []string

func (Acknowledgement) answer() {}
func (Choice) answer()          {}
func (Selection) answer()       {}
func (Verdicts) answer()        {}
func (Assignments) answer()     {}
func (Sequence) answer()        {}

// --- Info ---

// Info is a non-graded informational screen.
type Info struct {
	Body string
}

func (Info) Archetype() Archetype { return ArchetypeInfo }
func (Info) sealed()              {}

func (i Info) Check() error { return nil }

func (i Info) Complete(a Answer) error {
	if _, ok := a.(Acknowledgement); !ok {
		return ErrWrongAnswerType
	}
	return nil
}

func (i Info) Grade(a Answer) bool {
	return i.Complete(a) == nil
}

// --- Single choice ---

// SingleChoice has exactly one correct option.
type SingleChoice struct {
	Options []string
	Correct int
}

func (SingleChoice) Archetype() Archetype { return ArchetypeSingleChoice }
func (SingleChoice) sealed()              {}

func (s SingleChoice) Check() error {
	if len(s.Options) < 2 {
		return fmt.Errorf("need at least 2 options, got %d", len(s.Options))
	}
	if s.Correct < 0 || s.Correct >= len(s.Options) {
		return fmt.Errorf("correct index %d out of range [0,%d)", s.Correct, len(s.Options))
	}
	return nil
}

func (s SingleChoice) Complete(a Answer) error {
	c, ok := a.(Choice)
	if !ok {
		return ErrWrongAnswerType
	}
	if c.Index < 0 || c.Index >= len(s.Options) {
		return fmt.Errorf("%w: option %d out of range", ErrIncomplete, c.Index)
	}
	return nil
}

func (s SingleChoice) Grade(a Answer) bool {
	if s.Complete(a) != nil {
		return false
	}
	return a.(Choice).Index == s.Correct
}

// --- Multi select ---

// MultiSelect is correct only when exactly the correct set is chosen.
type MultiSelect struct {
	Options []string
	Correct []int
}

func (MultiSelect) Archetype() Archetype { return ArchetypeMultiSelect }
func (MultiSelect) sealed()              {}

func (m MultiSelect) Check() error {
	if len(m.Options) < 2 {
		return fmt.Errorf("need at least 2 options, got %d", len(m.Options))
	}
	if len(m.Correct) == 0 {
		return errors.New("need at least one correct option")
	}
	seen := make(map[int]bool, len(m.Correct))
	for _, idx := range m.Correct {
		if idx < 0 || idx >= len(m.Options) {
			return fmt.Errorf("correct index %d out of range [0,%d)", idx, len(m.Options))
		}
		if seen[idx] {
			return fmt.Errorf("duplicate correct index %d", idx)
		}
		seen[idx] = true
	}
	return nil
}

func (m MultiSelect) Complete(a Answer) error {
	sel, ok := a.(Selection)
	if !ok {
		return ErrWrongAnswerType
	}
	if len(sel.Indices) == 0 {
		return fmt.Errorf("%w: nothing selected", ErrIncomplete)
	}
	seen := make(map[int]bool, len(sel.Indices))
	for _, idx := range sel.Indices {
		if idx < 0 || idx >= len(m.Options) {
			return fmt.Errorf("%w: option %d out of range", ErrIncomplete, idx)
		}
		if seen[idx] {
			return fmt.Errorf("%w: option %d selected twice", ErrIncomplete, idx)
		}
		seen[idx] = true
	}
	return nil
}

func (m MultiSelect) Grade(a Answer) bool {
	if m.Complete(a) != nil {
		return false
	}
	got := slices.Clone(a.(Selection).Indices)
	want := slices.Clone(m.Correct)
	slices.Sort(got)
	slices.Sort(want)
	return slices.Equal(got, want)
}

// --- True/false ---

// Statement is one sub-statement of a true/false card.
type Statement struct {
	Text  string
	Truth bool
}

// TrueFalse is a batch of statements, each judged true or false.
type TrueFalse struct {
	Statements []Statement
}

func (TrueFalse) Archetype() Archetype { return ArchetypeTrueFalse }
func (TrueFalse) sealed()              {}

func (t TrueFalse) Check() error {
	if len(t.Statements) == 0 {
		return errors.New("need at least one statement")
	}
	for i, s := range t.Statements {
		if s.Text == "" {
			return fmt.Errorf("statement %d is empty", i)
		}
	}
	return nil
}

func (t TrueFalse) Complete(a Answer) error {
	v, ok := a.(Verdicts)
	if !ok {
		return ErrWrongAnswerType
	}
	for i := range t.Statements {
		if _, ok := v[i]; !ok {
			return fmt.Errorf("%w: statement %d has no verdict", ErrIncomplete, i)
		}
	}
	if len(v) != len(t.Statements) {
		return fmt.Errorf("%w: verdicts for unknown statements", ErrIncomplete)
	}
	return nil
}

func (t TrueFalse) Grade(a Answer) bool {
	if t.Complete(a) != nil {
		return false
	}
	v := a.(Verdicts)
	for i, s := range t.Statements {
		if v[i] != s.Truth {
			return false
		}
	}
	return true
}

// --- Matching ---

// Matching pairs every left item with exactly one right item.
type Matching struct {
	Left  []string
	Right []string
	Pairs map[string]string
}

func (Matching) Archetype() Archetype { return ArchetypeMatching }
func (Matching) sealed()              {}

func (m Matching) Check() error {
	if len(m.Left) < 2 {
		return fmt.Errorf("need at least 2 items, got %d", len(m.Left))
	}
	if len(m.Left) != len(m.Right) || len(m.Left) != len(m.Pairs) {
		return fmt.Errorf("left (%d), right (%d) and pairs (%d) must have equal size",
			len(m.Left), len(m.Right), len(m.Pairs))
	}
	rights := make(map[string]bool, len(m.Right))
	for _, r := range m.Right {
		if rights[r] {
			return fmt.Errorf("duplicate right item %q", r)
		}
		rights[r] = true
	}
	used := make(map[string]bool, len(m.Pairs))
	for _, l := range m.Left {
		r, ok := m.Pairs[l]
		if !ok {
			return fmt.Errorf("left item %q has no pairing", l)
		}
		if !rights[r] {
			return fmt.Errorf("left item %q pairs with unknown right item %q", l, r)
		}
		if used[r] {
			return fmt.Errorf("right item %q paired twice", r)
		}
		used[r] = true
	}
	return nil
}

func (m Matching) Complete(a Answer) error {
	as, ok := a.(Assignments)
	if !ok {
		return ErrWrongAnswerType
	}
	rights := make(map[string]bool, len(m.Right))
	for _, r := range m.Right {
		rights[r] = true
	}
	for _, l := range m.Left {
		r, ok := as[l]
		if !ok || r == "" {
			return fmt.Errorf("%w: %q is unassigned", ErrIncomplete, l)
		}
		if !rights[r] {
			return fmt.Errorf("%w: %q assigned to unknown item %q", ErrIncomplete, l, r)
		}
	}
	if len(as) != len(m.Left) {
		return fmt.Errorf("%w: assignments for unknown items", ErrIncomplete)
	}
	return nil
}

func (m Matching) Grade(a Answer) bool {
	if m.Complete(a) != nil {
		return false
	}
	as := a.(Assignments)
	for l, r := range m.Pairs {
		if as[l] != r {
			return false
		}
	}
	return true
}

// --- Ordering ---

// Ordering asks the learner to arrange Items in their canonical order.
type Ordering struct {
	Items []string
}

func (Ordering) Archetype() Archetype { return ArchetypeOrdering }
func (Ordering) sealed()              {}

func (o Ordering) Check() error {
	if len(o.Items) < 2 {
		return fmt.Errorf("need at least 2 items, got %d", len(o.Items))
	}
	seen := make(map[string]bool, len(o.Items))
	for _, it := range o.Items {
		if seen[it] {
			return fmt.Errorf("duplicate item %q", it)
		}
		seen[it] = true
	}
	return nil
}

func (o Ordering) Complete(a Answer) error {
	seq, ok := a.(Sequence)
	if !ok {
		return ErrWrongAnswerType
	}
	if len(seq) != len(o.Items) {
		return fmt.Errorf("%w: got %d items, want %d", ErrIncomplete, len(seq), len(o.Items))
	}
	want := slices.Clone(o.Items)
	got := slices.Clone([]string(seq))
	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		return fmt.Errorf("%w: not a permutation of the items", ErrIncomplete)
	}
	return nil
}

func (o Ordering) Grade(a Answer) bool {
	if o.Complete(a) != nil {
		return false
	}
	return slices.Equal([]string(a.(Sequence)), o.Items)
}

// Shuffled returns the items in a presentation order that differs from the
// canonical order whenever more than one arrangement exists.
func (o Ordering) Shuffled(r *rand.Rand) []string {
	out := slices.Clone(o.Items)
	if len(out) < 2 {
		return out
	}
	for {
		r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		if !slices.Equal(out, o.Items) {
			return out
		}
	}
}
