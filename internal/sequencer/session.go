package sequencer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/score"
)

var (
	// ErrFinished is returned for interactions after the lesson finished.
	ErrFinished = errors.New("lesson already finished")

	// ErrClosed is returned for interactions after Close.
	ErrClosed = errors.New("lesson session closed")

	// ErrCannotContinue is returned when the active card has not been
	// resolved enough to move on.
	ErrCannotContinue = errors.New("active card is not ready to continue")
)

// Finisher persists a finalized lesson result.
type Finisher interface {
	Record(ctx context.Context, learnerID, lessonID string, res score.Result) (ledger.Entry, error)
}

// Outcome is what a finished lesson reports to its driver.
type Outcome struct {
	LessonID string
	Result   score.Result
	Entry    ledger.Entry

	// NextLessonID is where the driver should navigate next; empty at the
	// end of the catalog.
	NextLessonID string

	// Err is set when the result could not be recorded.
	Err error
}

// Config configures a lesson Session.
type Config struct {
	ID        string
	LearnerID string
	Lesson    catalog.Lesson
	Behaviors cards.Behaviors
	Finisher  Finisher

	// NextLessonID is copied into the Outcome.
	NextLessonID string

	// OnAttempt observes every judged submission.
	OnAttempt func(ctx context.Context, a cards.Attempt)

	Clock func() time.Time
}

// View is a read-only snapshot of the active card.
type View struct {
	Index       int
	Total       int
	Card        cards.Card
	Phase       cards.Phase
	Attempts    []cards.Attempt
	CanContinue bool
	XP          int

	// AutoAdvanceAt is non-zero while an auto-advance is pending.
	AutoAdvanceAt time.Time
}

// Session is one learner's pass through one lesson.
type Session struct {
	mu sync.Mutex

	cfg  Config
	seq  *Sequencer
	runs []*cards.Run
	acc  *score.Accumulator

	autoAt  time.Time
	closed  bool
	outcome *Outcome
}

// NewSession builds and starts a lesson session. A lesson with no cards is
// finished (and recorded) immediately.
func NewSession(ctx context.Context, cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Behaviors == nil {
		cfg.Behaviors = cards.DefaultBehaviors()
	}

	s := &Session{
		cfg: cfg,
		acc: score.NewAccumulator(),
	}
	ids := make([]string, len(cfg.Lesson.Cards))
	s.runs = make([]*cards.Run, len(cfg.Lesson.Cards))
	for i, c := range cfg.Lesson.Cards {
		ids[i] = c.ID
		s.runs[i] = cards.NewRun(c, cfg.Behaviors.For(c.Archetype()))
	}
	s.seq = New(ids, Hooks{
		OnXP:     func(cardID string, amount int) { s.acc.AddXP(cardID, amount) },
		OnFinish: s.finalize,
	})
	s.seq.Start(ctx)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.cfg.ID }

// LessonID returns the lesson being played.
func (s *Session) LessonID() string { return s.cfg.Lesson.ID }

// LearnerID returns the learner playing.
func (s *Session) LearnerID() string { return s.cfg.LearnerID }

// Lesson returns the lesson being played.
func (s *Session) Lesson() catalog.Lesson { return s.cfg.Lesson }

// Finished reports whether the lesson reached its end.
func (s *Session) Finished() bool {
	return s.seq.Finished()
}

// Outcome returns the finish report once the lesson is done.
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

// XP returns the card XP earned so far.
func (s *Session) XP() int {
	return s.acc.XP()
}

// Active returns a view of the card being presented.
func (s *Session) Active() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() (View, bool) {
	i := s.seq.Index()
	if s.seq.Finished() || i >= len(s.runs) {
		return View{}, false
	}
	r := s.runs[i]
	return View{
		Index:         i,
		Total:         len(s.runs),
		Card:          r.Card(),
		Phase:         r.Phase(),
		Attempts:      r.Attempts(),
		CanContinue:   r.CanContinue() || !r.Card().Graded(),
		XP:            s.acc.XP(),
		AutoAdvanceAt: s.autoAt,
	}, true
}

func (s *Session) active() (*cards.Run, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.seq.Finished() {
		return nil, ErrFinished
	}
	return s.runs[s.seq.Index()], nil
}

// Submit judges an answer for the active card.
func (s *Session) Submit(ctx context.Context, a cards.Answer) (cards.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.active()
	if err != nil {
		return cards.Attempt{}, err
	}
	att, err := r.Submit(a, s.cfg.Clock())
	if err != nil {
		return cards.Attempt{}, err
	}

	if r.Card().Graded() {
		s.acc.Judge(att.CardID, att.Correct)
	}
	if att.XP > 0 {
		s.seq.EarnXP(att.CardID, att.XP)
	}
	if d := r.AutoAdvance(); d > 0 {
		s.autoAt = att.At.Add(d)
	}
	if s.cfg.OnAttempt != nil && r.Card().Graded() {
		s.cfg.OnAttempt(ctx, att)
	}
	return att, nil
}

// Continue moves past the active card. Info cards are acknowledged on the
// way. When the last card completes the lesson is finalized and the
// Outcome is returned.
func (s *Session) Continue(ctx context.Context) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advance(ctx)
}

func (s *Session) advance(ctx context.Context) (*Outcome, error) {
	r, err := s.active()
	if err != nil {
		return nil, err
	}
	if !r.Card().Graded() && !r.Locked() {
		if _, err := r.Acknowledge(s.cfg.Clock()); err != nil {
			return nil, err
		}
	}
	if !r.CanContinue() {
		return nil, ErrCannotContinue
	}

	s.autoAt = time.Time{}
	s.seq.Complete(ctx, r.Card().ID)
	if s.outcome != nil {
		out := *s.outcome
		return &out, out.Err
	}
	return nil, nil
}

// AutoAdvanceAt returns the pending auto-advance time, if any.
func (s *Session) AutoAdvanceAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoAt, !s.autoAt.IsZero()
}

// Tick performs a due auto-advance. Returns advanced=false when nothing was
// due.
func (s *Session) Tick(ctx context.Context, now time.Time) (advanced bool, out *Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.autoAt.IsZero() || now.Before(s.autoAt) {
		return false, nil, nil
	}
	out, err = s.advance(ctx)
	return true, out, err
}

// Close cancels any pending auto-advance; later calls fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.autoAt = time.Time{}
}

// finalize runs from the sequencer's OnFinish hook, with s.mu held by the
// caller (or during construction).
func (s *Session) finalize(ctx context.Context) {
	res := s.acc.Finalize(s.cfg.Lesson.CompletionBonus())
	out := &Outcome{
		LessonID:     s.cfg.Lesson.ID,
		Result:       res,
		NextLessonID: s.cfg.NextLessonID,
	}
	if s.cfg.Finisher != nil {
		out.Entry, out.Err = s.cfg.Finisher.Record(ctx, s.cfg.LearnerID, s.cfg.Lesson.ID, res)
	}
	s.outcome = out
}
