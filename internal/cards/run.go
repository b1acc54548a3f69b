package cards

import (
	"fmt"
	"time"
)

// Behavior holds the per-archetype interaction flags.
type Behavior struct {
	// Retry keeps the card answerable after an incorrect submission.
	Retry bool

	// ContinueOnIncorrect lets the learner move on after an incorrect,
	// non-retryable submission.
	ContinueOnIncorrect bool

	// AutoAdvance, when positive, completes the card this long after it is
	// judged, without waiting for the learner.
	AutoAdvance time.Duration
}

// Behaviors maps archetypes to their flags.
type Behaviors map[Archetype]Behavior

// DefaultFeedbackDelay is the true/false auto-advance delay.
const DefaultFeedbackDelay = 1500 * time.Millisecond

// DefaultBehaviors returns the stock flag set: matching and ordering retry
// until correct, the choice archetypes lock after one attempt.
func DefaultBehaviors() Behaviors {
	return Behaviors{
		ArchetypeInfo:         {},
		ArchetypeSingleChoice: {ContinueOnIncorrect: true},
		ArchetypeMultiSelect:  {ContinueOnIncorrect: true},
		ArchetypeTrueFalse:    {ContinueOnIncorrect: true, AutoAdvance: DefaultFeedbackDelay},
		ArchetypeMatching:     {Retry: true},
		ArchetypeOrdering:     {Retry: true},
	}
}

// WithFeedbackDelay returns a copy of b with the true/false auto-advance
// delay replaced.
func (b Behaviors) WithFeedbackDelay(d time.Duration) Behaviors {
	out := make(Behaviors, len(b))
	for k, v := range b {
		out[k] = v
	}
	tf := out[ArchetypeTrueFalse]
	tf.AutoAdvance = d
	out[ArchetypeTrueFalse] = tf
	return out
}

// Validate rejects flag sets that would strand a learner on a card that is
// neither retryable nor passable after a wrong answer.
func (b Behaviors) Validate() error {
	for a, v := range b {
		if a.Graded() && !v.Retry && !v.ContinueOnIncorrect {
			return fmt.Errorf("%s: a card without retry must allow continuing on incorrect", a)
		}
		if v.AutoAdvance < 0 {
			return fmt.Errorf("%s: negative auto-advance %s", a, v.AutoAdvance)
		}
	}
	return nil
}

// For returns the flags for a, falling back to the defaults.
func (b Behaviors) For(a Archetype) Behavior {
	if v, ok := b[a]; ok {
		return v
	}
	return DefaultBehaviors()[a]
}

// Phase is the interaction phase of a card.
type Phase int

const (
	PhaseAnswering Phase = iota // accepting submissions
	PhaseJudged                 // locked, feedback shown
)

func (p Phase) String() string {
	if p == PhaseJudged {
		return "judged"
	}
	return "answering"
}

// Attempt records one judged submission.
type Attempt struct {
	CardID  string
	Answer  Answer
	Correct bool
	XP      int
	At      time.Time
}

// Run is the interaction state of one card inside a lesson session.
type Run struct {
	card     Card
	behavior Behavior
	phase    Phase
	attempts []Attempt
	xp       int
}

// NewRun starts a card in the answering phase.
func NewRun(card Card, behavior Behavior) *Run {
	return &Run{card: card, behavior: behavior}
}

func (r *Run) Card() Card          { return r.card }
func (r *Run) Behavior() Behavior  { return r.behavior }
func (r *Run) Phase() Phase        { return r.phase }
func (r *Run) XP() int             { return r.xp }
func (r *Run) Attempts() []Attempt { return append([]Attempt(nil), r.attempts...) }
func (r *Run) Locked() bool        { return r.phase == PhaseJudged }

// AutoAdvance returns the delay after which a judged card completes itself,
// or zero.
func (r *Run) AutoAdvance() time.Duration {
	if r.phase != PhaseJudged {
		return 0
	}
	return r.behavior.AutoAdvance
}

// Last returns the most recent attempt.
func (r *Run) Last() (Attempt, bool) {
	if len(r.attempts) == 0 {
		return Attempt{}, false
	}
	return r.attempts[len(r.attempts)-1], true
}

// Correct reports whether the most recent attempt was correct.
func (r *Run) Correct() bool {
	a, ok := r.Last()
	return ok && a.Correct
}

// FirstTryCorrect reports whether the first judged attempt was correct.
func (r *Run) FirstTryCorrect() bool {
	return len(r.attempts) > 0 && r.attempts[0].Correct
}

// CanSubmit reports whether a would be accepted by Submit.
func (r *Run) CanSubmit(a Answer) bool {
	return r.phase == PhaseAnswering && r.card.Spec.Complete(a) == nil
}

// Submit judges a. Incomplete or mis-shaped answers are rejected without
// recording an attempt. XP is granted only when the card first turns correct.
func (r *Run) Submit(a Answer, now time.Time) (Attempt, error) {
	if r.phase == PhaseJudged {
		return Attempt{}, ErrCardLocked
	}
	if err := r.card.Spec.Complete(a); err != nil {
		return Attempt{}, err
	}

	att := Attempt{
		CardID:  r.card.ID,
		Answer:  a,
		Correct: r.card.Spec.Grade(a),
		At:      now,
	}
	if att.Correct {
		att.XP = r.card.Reward()
		r.xp = att.XP
		r.phase = PhaseJudged
	} else if !r.behavior.Retry {
		r.phase = PhaseJudged
	}
	r.attempts = append(r.attempts, att)
	return att, nil
}

// Acknowledge dismisses an info card.
func (r *Run) Acknowledge(now time.Time) (Attempt, error) {
	if r.card.Graded() {
		return Attempt{}, ErrWrongAnswerType
	}
	return r.Submit(Acknowledgement{}, now)
}

// CanContinue reports whether the learner may move past this card.
func (r *Run) CanContinue() bool {
	if r.phase != PhaseJudged {
		return false
	}
	return r.Correct() || r.behavior.ContinueOnIncorrect
}
