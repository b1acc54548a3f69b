// Package score accumulates XP and correctness during a lesson and records
// the final result.
package score

import (
	"math"
	"sync"
)

// XPEvent is one XP grant raised by a card.
type XPEvent struct {
	CardID string
	Amount int
}

// Result is the finalized outcome of a lesson or quiz.
type Result struct {
	CardXP  int
	Bonus   int
	TotalXP int
	Correct int
	Graded  int

	// Score is the percentage of graded cards answered correctly on the
	// first attempt; nil when the lesson has no graded cards.
	Score *int
}

// Percent returns round(100*correct/total), or 0 when total is 0.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Accumulator sums XP and first-attempt correctness. Totals never decrease
// and nothing changes after Finalize.
type Accumulator struct {
	mu      sync.Mutex
	events  []XPEvent
	xp      int
	correct int
	graded  int
	judged  map[string]bool
	final   *Result
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{judged: make(map[string]bool)}
}

// Judge records the first judgment for cardID. Later judgments of the same
// card are ignored. Returns false if ignored.
func (a *Accumulator) Judge(cardID string, correct bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.final != nil || a.judged[cardID] {
		return false
	}
	a.judged[cardID] = true
	a.graded++
	if correct {
		a.correct++
	}
	return true
}

// AddXP records an XP grant. Non-positive amounts are ignored.
func (a *Accumulator) AddXP(cardID string, amount int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.final != nil || amount <= 0 {
		return false
	}
	a.events = append(a.events, XPEvent{CardID: cardID, Amount: amount})
	a.xp += amount
	return true
}

// XP returns the XP summed so far, excluding any completion bonus.
func (a *Accumulator) XP() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.xp
}

// Correct returns the number of cards judged correct on first attempt.
func (a *Accumulator) Correct() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.correct
}

// Graded returns the number of judged cards.
func (a *Accumulator) Graded() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graded
}

// Events returns a copy of the XP events.
func (a *Accumulator) Events() []XPEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]XPEvent(nil), a.events...)
}

// Finalize freezes the totals and adds bonus. Subsequent calls return the
// first result unchanged.
func (a *Accumulator) Finalize(bonus int) Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.final != nil {
		return *a.final
	}
	r := Result{
		CardXP:  a.xp,
		Bonus:   bonus,
		TotalXP: a.xp + bonus,
		Correct: a.correct,
		Graded:  a.graded,
	}
	if a.graded > 0 {
		s := Percent(a.correct, a.graded)
		r.Score = &s
	}
	a.final = &r
	return r
}

// Finalized reports whether Finalize has been called.
func (a *Accumulator) Finalized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.final != nil
}
