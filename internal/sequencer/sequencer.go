// Package sequencer drives a learner through the ordered cards of a lesson.
package sequencer

import (
	"context"
	"sync"
)

// State is the sequencer phase.
type State int

const (
	StateIdle       State = iota // not started
	StatePresenting              // a card is active
	StateFinished                // terminal
)

func (s State) String() string {
	switch s {
	case StatePresenting:
		return "presenting"
	case StateFinished:
		return "finished"
	default:
		return "idle"
	}
}

// Hooks are invoked synchronously by the sequencer.
type Hooks struct {
	// OnXP receives every XP amount raised by the active card.
	OnXP func(cardID string, amount int)

	// OnFinish runs exactly once, when the last card completes.
	OnFinish func(ctx context.Context)
}

// Sequencer walks an ordered list of card ids. Only the active card may
// raise XP or complete; signals from any other card are ignored.
type Sequencer struct {
	mu    sync.Mutex
	ids   []string
	index int
	state State
	xp    int
	done  map[string]bool
	hooks Hooks
}

// New returns an idle sequencer over cardIDs.
func New(cardIDs []string, hooks Hooks) *Sequencer {
	return &Sequencer{
		ids:   append([]string(nil), cardIDs...),
		done:  make(map[string]bool, len(cardIDs)),
		hooks: hooks,
	}
}

// Start presents the first card. An empty sequence finishes immediately.
func (s *Sequencer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	if len(s.ids) == 0 {
		s.state = StateFinished
		s.mu.Unlock()
		s.finish(ctx)
		return
	}
	s.state = StatePresenting
	s.mu.Unlock()
}

// State returns the current phase.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Finished reports whether the sequencer reached its terminal state.
func (s *Sequencer) Finished() bool {
	return s.State() == StateFinished
}

// Index returns the active card index, or len(cards) once finished.
func (s *Sequencer) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinished {
		return len(s.ids)
	}
	return s.index
}

// Len returns the number of cards.
func (s *Sequencer) Len() int {
	return len(s.ids)
}

// Active returns the id of the card being presented.
func (s *Sequencer) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePresenting {
		return "", false
	}
	return s.ids[s.index], true
}

// XP returns the XP raised so far.
func (s *Sequencer) XP() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.xp
}

// EarnXP adds amount on behalf of cardID. Returns false if cardID is not
// the active card.
func (s *Sequencer) EarnXP(cardID string, amount int) bool {
	s.mu.Lock()
	if s.state != StatePresenting || s.ids[s.index] != cardID || amount <= 0 {
		s.mu.Unlock()
		return false
	}
	s.xp += amount
	onXP := s.hooks.OnXP
	s.mu.Unlock()

	if onXP != nil {
		onXP(cardID, amount)
	}
	return true
}

// Complete advances past cardID. Stale, duplicate or out-of-order ids are
// ignored and return false. Completing the last card finishes the sequence
// and runs OnFinish once.
func (s *Sequencer) Complete(ctx context.Context, cardID string) bool {
	s.mu.Lock()
	if s.state != StatePresenting || s.done[cardID] || s.ids[s.index] != cardID {
		s.mu.Unlock()
		return false
	}
	s.done[cardID] = true
	if s.index < len(s.ids)-1 {
		s.index++
		s.mu.Unlock()
		return true
	}
	s.state = StateFinished
	s.mu.Unlock()

	s.finish(ctx)
	return true
}

func (s *Sequencer) finish(ctx context.Context) {
	if s.hooks.OnFinish != nil {
		s.hooks.OnFinish(ctx)
	}
}
