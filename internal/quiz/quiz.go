// Package quiz runs one-attempt, auto-advancing quizzes.
//
// A quiz presents one question at a time. Any complete submission locks the
// question in immediately, without a feedback gate, and the session moves on
// once AdvanceDelay has passed. The driver owns the clock: Submit returns
// when the advance is due and the driver calls Tick at or after that time.
package quiz

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/score"
	"github.com/abhisek/coursiz/internal/sequencer"
)

// DefaultAdvanceDelay is the pause between locking an answer and moving on.
const DefaultAdvanceDelay = 800 * time.Millisecond

var (
	// ErrAlreadyCompleted is returned when the learner already took the quiz.
	ErrAlreadyCompleted = errors.New("quiz already completed")

	// ErrLockedIn is returned when the current question was already answered.
	ErrLockedIn = errors.New("answer already locked in")

	// ErrFinished is returned for interactions after the quiz finished.
	ErrFinished = errors.New("quiz already finished")

	// ErrClosed is returned for interactions after Close.
	ErrClosed = errors.New("quiz session closed")
)

// State is the quiz phase.
type State int

const (
	StateAnswering        State = iota // waiting for a submission
	StateAdvancing                     // locked in, waiting for Tick
	StateFinished                      // all questions answered, result recorded
	StateAlreadyCompleted              // stored result from an earlier attempt
)

func (s State) String() string {
	switch s {
	case StateAnswering:
		return "answering"
	case StateAdvancing:
		return "advancing"
	case StateFinished:
		return "finished"
	case StateAlreadyCompleted:
		return "already_completed"
	default:
		return "unknown"
	}
}

// Result is the quiz outcome shown to the learner.
type Result struct {
	Correct int
	Total   int
	Score   int
	TotalXP int

	// Stored is true when the result was read back from the ledger rather
	// than computed in this session.
	Stored bool

	NextLessonID string
	Entry        ledger.Entry
	Err          error
}

// Config configures a quiz Session.
type Config struct {
	ID           string
	LearnerID    string
	Lesson       catalog.Lesson
	AdvanceDelay time.Duration
	Finisher     sequencer.Finisher
	NextLessonID string

	OnAttempt func(ctx context.Context, a cards.Attempt)

	Clock func() time.Time
}

// Question is a read-only view of the current question.
type Question struct {
	Index  int
	Total  int
	Card   cards.Card
	Locked bool
	Answer cards.Answer
	DueAt  time.Time
}

// Session is one learner's single attempt at a quiz.
type Session struct {
	mu sync.Mutex

	cfg       Config
	questions []cards.Card
	index     int
	state     State
	dueAt     time.Time
	attempts  []cards.Attempt
	acc       *score.Accumulator
	result    *Result
	closed    bool
}

// New starts a quiz session. If prior already marks the quiz completed the
// session opens in StateAlreadyCompleted and never scores again.
func New(cfg Config, prior ledger.Ledger) *Session {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.AdvanceDelay <= 0 {
		cfg.AdvanceDelay = DefaultAdvanceDelay
	}

	s := &Session{cfg: cfg, acc: score.NewAccumulator()}
	for _, c := range cfg.Lesson.Cards {
		if c.Graded() {
			s.questions = append(s.questions, c)
		}
	}

	if e, ok := prior.Entry(cfg.Lesson.ID); ok && e.Completed {
		stored := 0
		if e.Score != nil {
			stored = *e.Score
		}
		s.state = StateAlreadyCompleted
		s.result = &Result{
			Total:        len(s.questions),
			Score:        stored,
			Stored:       true,
			NextLessonID: cfg.NextLessonID,
			Entry:        e,
		}
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.cfg.ID }

// LessonID returns the quiz lesson id.
func (s *Session) LessonID() string { return s.cfg.Lesson.ID }

// LearnerID returns the learner taking the quiz.
func (s *Session) LearnerID() string { return s.cfg.LearnerID }

// Lesson returns the quiz lesson.
func (s *Session) Lesson() catalog.Lesson { return s.cfg.Lesson }

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the outcome once finished or already completed.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// Current returns the question being presented.
func (s *Session) Current() (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnswering && s.state != StateAdvancing {
		return Question{}, false
	}
	q := Question{
		Index:  s.index,
		Total:  len(s.questions),
		Card:   s.questions[s.index],
		Locked: s.state == StateAdvancing,
		DueAt:  s.dueAt,
	}
	if q.Locked {
		q.Answer = s.attempts[len(s.attempts)-1].Answer
	}
	return q, true
}

// Correct returns the number of correct answers so far.
func (s *Session) Correct() int {
	return s.acc.Correct()
}

// Submit locks in an answer for the current question and returns when the
// session will advance. The accumulator is updated before Submit returns.
func (s *Session) Submit(ctx context.Context, a cards.Answer) (cards.Attempt, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return cards.Attempt{}, time.Time{}, ErrClosed
	case s.state == StateAlreadyCompleted:
		return cards.Attempt{}, time.Time{}, ErrAlreadyCompleted
	case s.state == StateFinished:
		return cards.Attempt{}, time.Time{}, ErrFinished
	case s.state == StateAdvancing:
		return cards.Attempt{}, time.Time{}, ErrLockedIn
	}

	card := s.questions[s.index]
	if err := card.Spec.Complete(a); err != nil {
		return cards.Attempt{}, time.Time{}, err
	}

	att := cards.Attempt{
		CardID:  card.ID,
		Answer:  a,
		Correct: card.Spec.Grade(a),
		At:      s.cfg.Clock(),
	}
	s.acc.Judge(card.ID, att.Correct)
	if att.Correct {
		att.XP = card.Reward()
		s.acc.AddXP(card.ID, att.XP)
	}
	s.attempts = append(s.attempts, att)
	s.state = StateAdvancing
	s.dueAt = att.At.Add(s.cfg.AdvanceDelay)

	if s.cfg.OnAttempt != nil {
		s.cfg.OnAttempt(ctx, att)
	}
	return att, s.dueAt, nil
}

// Tick advances if the pending advance is due. On the last question it
// finalizes the quiz and returns the result.
func (s *Session) Tick(ctx context.Context, now time.Time) (advanced bool, res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != StateAdvancing || now.Before(s.dueAt) {
		return false, nil
	}
	s.dueAt = time.Time{}
	if s.index < len(s.questions)-1 {
		s.index++
		s.state = StateAnswering
		return true, nil
	}

	s.finalize(ctx)
	r := *s.result
	return true, &r
}

// Start finalizes a quiz that has no questions. It is a no-op otherwise.
func (s *Session) Start(ctx context.Context) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAnswering && len(s.questions) == 0 {
		s.finalize(ctx)
	}
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

// Close cancels any pending advance. No state changes after Close.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.dueAt = time.Time{}
}

func (s *Session) finalize(ctx context.Context) {
	res := s.acc.Finalize(s.cfg.Lesson.CompletionBonus())
	r := &Result{
		Correct:      res.Correct,
		Total:        len(s.questions),
		Score:        score.Percent(res.Correct, len(s.questions)),
		TotalXP:      res.TotalXP,
		NextLessonID: s.cfg.NextLessonID,
	}
	if s.cfg.Finisher != nil {
		stored := res
		stored.Score = &r.Score
		r.Entry, r.Err = s.cfg.Finisher.Record(ctx, s.cfg.LearnerID, s.cfg.Lesson.ID, stored)
	}
	s.state = StateFinished
	s.result = r
}
