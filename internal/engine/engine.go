// Package engine wires the catalog, gating policy, ledgers and scoring into
// one facade that terminal and HTTP drivers share.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/gating"
	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/logger"
	"github.com/abhisek/coursiz/internal/quiz"
	"github.com/abhisek/coursiz/internal/score"
	"github.com/abhisek/coursiz/internal/sequencer"
	"github.com/abhisek/coursiz/internal/store"
)

var (
	// ErrUnknownLesson is returned for lesson ids not in the catalog.
	ErrUnknownLesson = errors.New("unknown lesson")

	// ErrLocked is returned when the lesson is not unlocked for the learner.
	ErrLocked = errors.New("lesson is locked")

	// ErrSignupRequired is returned when a guest is locked out only by the
	// guest quota.
	ErrSignupRequired = errors.New("sign up to continue")

	// ErrWrongKind is returned when a quiz is started as a lesson or the
	// other way round.
	ErrWrongKind = errors.New("wrong lesson kind")

	// ErrResetUnsupported is returned when the learner's ledger can't be
	// cleared.
	ErrResetUnsupported = errors.New("ledger does not support reset")
)

// Learner identifies who is playing.
type Learner struct {
	ID    string
	Guest bool
}

// Guest returns a guest learner.
func Guest(id string) Learner { return Learner{ID: id, Guest: true} }

// Member returns an authenticated learner.
func Member(id string) Learner { return Learner{ID: id} }

// AnswerLog receives every graded submission.
type AnswerLog interface {
	AppendAnswer(ctx context.Context, data store.AnswerEventData) error
}

// Options configures an Engine.
type Options struct {
	Catalog   *catalog.Catalog
	Behaviors cards.Behaviors

	// Policy defaults to gating.DefaultPolicy when nil.
	Policy *gating.Policy

	QuizAdvanceDelay time.Duration

	// Members holds authenticated learners' progress; Guests holds guest
	// progress. Guests defaults to Members when nil.
	Members ledger.Store
	Guests  ledger.Store

	Awarder score.Awarder
	Answers AnswerLog

	Log   *logger.Logger
	Clock func() time.Time
}

// Engine is safe for concurrent use. Sessions it returns are not shared
// between learners.
type Engine struct {
	cat       *catalog.Catalog
	policy    gating.Policy
	behaviors cards.Behaviors
	quizDelay time.Duration

	members ledger.Store
	guests  ledger.Store

	memberRec *score.Recorder
	guestRec  *score.Recorder

	answers AnswerLog
	log     *logger.Logger
	clock   func() time.Time
}

// New validates opts and returns an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Catalog == nil {
		return nil, errors.New("engine: catalog is required")
	}
	if opts.Members == nil {
		return nil, errors.New("engine: members ledger is required")
	}
	if opts.Behaviors == nil {
		opts.Behaviors = cards.DefaultBehaviors()
	}
	if err := opts.Behaviors.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	policy := gating.DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	if opts.Guests == nil {
		opts.Guests = opts.Members
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Engine{
		cat:       opts.Catalog,
		policy:    policy,
		behaviors: opts.Behaviors,
		quizDelay: opts.QuizAdvanceDelay,
		members:   opts.Members,
		guests:    opts.Guests,
		memberRec: score.NewRecorder(opts.Members, opts.Awarder, opts.Log),
		guestRec:  score.NewRecorder(opts.Guests, opts.Awarder, opts.Log),
		answers:   opts.Answers,
		log:       opts.Log,
		clock:     opts.Clock,
	}, nil
}

// Catalog returns the loaded catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Policy returns the gating policy in force.
func (e *Engine) Policy() gating.Policy { return e.policy }

func (e *Engine) store(l Learner) ledger.Store {
	if l.Guest {
		return e.guests
	}
	return e.members
}

func (e *Engine) recorder(l Learner) *score.Recorder {
	if l.Guest {
		return e.guestRec
	}
	return e.memberRec
}

// Progress reads the learner's ledger. Read failures degrade to an empty
// ledger and are logged.
func (e *Engine) Progress(ctx context.Context, l Learner) ledger.Ledger {
	return ledger.Read(ctx, e.store(l), l.ID, e.log)
}

// Snapshot evaluates gating for every course and lesson.
func (e *Engine) Snapshot(ctx context.Context, l Learner) gating.Snapshot {
	return e.policy.Evaluate(e.cat, e.Progress(ctx, l), l.Guest)
}

// Access returns the lesson and the learner's ledger if the lesson is
// unlocked, or ErrUnknownLesson, ErrSignupRequired or ErrLocked.
func (e *Engine) Access(ctx context.Context, l Learner, lessonID string) (catalog.Lesson, ledger.Ledger, error) {
	lesson, ok := e.cat.Lesson(lessonID)
	if !ok {
		return catalog.Lesson{}, ledger.Ledger{}, fmt.Errorf("%w: %s", ErrUnknownLesson, lessonID)
	}
	progress := e.Progress(ctx, l)
	if !e.policy.IsLessonLocked(e.cat, lessonID, progress, l.Guest) {
		return lesson, progress, nil
	}
	if e.policy.IsQuotaLocked(e.cat, lessonID, l.Guest) && !e.policy.IsLessonLocked(e.cat, lessonID, progress, false) {
		return lesson, progress, fmt.Errorf("%w: %s", ErrSignupRequired, lessonID)
	}
	return lesson, progress, fmt.Errorf("%w: %s", ErrLocked, lessonID)
}

func (e *Engine) nextLessonID(lessonID string) string {
	if next, ok := e.cat.NextLesson(lessonID); ok {
		return next.ID
	}
	return ""
}

func (e *Engine) onAttempt(l Learner, lessonID string) func(context.Context, cards.Attempt) {
	if e.answers == nil {
		return nil
	}
	return func(ctx context.Context, a cards.Attempt) {
		card, _ := e.cardByID(lessonID, a.CardID)
		err := e.answers.AppendAnswer(ctx, store.AnswerEventData{
			LearnerID: l.ID,
			LessonID:  lessonID,
			CardID:    a.CardID,
			Archetype: string(card.Archetype()),
			Correct:   a.Correct,
			XP:        a.XP,
		})
		if err != nil {
			e.log.Warn("append answer event failed", "lesson_id", lessonID, "card_id", a.CardID, "error", err)
		}
	}
}

func (e *Engine) cardByID(lessonID, cardID string) (cards.Card, bool) {
	lesson, ok := e.cat.Lesson(lessonID)
	if !ok {
		return cards.Card{}, false
	}
	for _, c := range lesson.Cards {
		if c.ID == cardID {
			return c, true
		}
	}
	return cards.Card{}, false
}

// StartLesson opens a card-sequence session for a lesson or reading.
func (e *Engine) StartLesson(ctx context.Context, l Learner, lessonID string) (*sequencer.Session, error) {
	lesson, _, err := e.Access(ctx, l, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.IsQuiz() {
		return nil, fmt.Errorf("%w: %s is a quiz", ErrWrongKind, lessonID)
	}

	s := sequencer.NewSession(ctx, sequencer.Config{
		ID:           uuid.NewString(),
		LearnerID:    l.ID,
		Lesson:       lesson,
		Behaviors:    e.behaviors,
		Finisher:     e.recorder(l),
		NextLessonID: e.nextLessonID(lessonID),
		OnAttempt:    e.onAttempt(l, lessonID),
		Clock:        e.clock,
	})
	e.log.Info("lesson started", "session_id", s.ID(), "learner_id", l.ID, "guest", l.Guest, "lesson_id", lessonID)
	return s, nil
}

// StartQuiz opens a quiz session. A quiz the learner already completed
// opens in quiz.StateAlreadyCompleted with the stored score.
func (e *Engine) StartQuiz(ctx context.Context, l Learner, lessonID string) (*quiz.Session, error) {
	lesson, progress, err := e.Access(ctx, l, lessonID)
	if err != nil {
		return nil, err
	}
	if !lesson.IsQuiz() {
		return nil, fmt.Errorf("%w: %s is not a quiz", ErrWrongKind, lessonID)
	}

	s := quiz.New(quiz.Config{
		ID:           uuid.NewString(),
		LearnerID:    l.ID,
		Lesson:       lesson,
		AdvanceDelay: e.quizDelay,
		Finisher:     e.recorder(l),
		NextLessonID: e.nextLessonID(lessonID),
		OnAttempt:    e.onAttempt(l, lessonID),
		Clock:        e.clock,
	}, progress)
	s.Start(ctx)
	e.log.Info("quiz started", "session_id", s.ID(), "learner_id", l.ID, "guest", l.Guest,
		"lesson_id", lessonID, "state", s.State().String())
	return s, nil
}

// Reset clears the learner's ledger.
func (e *Engine) Reset(ctx context.Context, l Learner) error {
	r, ok := e.store(l).(ledger.Resetter)
	if !ok {
		return ErrResetUnsupported
	}
	if err := r.Reset(ctx, l.ID); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	e.log.Info("progress reset", "learner_id", l.ID, "guest", l.Guest)
	return nil
}

// Promote copies a guest's ledger into a member's, as happens when a guest
// signs up. Entries merge under the usual upsert rule, so a member never
// loses a completion. Returns the number of entries copied.
func (e *Engine) Promote(ctx context.Context, guest, member Learner) (int, error) {
	if !guest.Guest || member.Guest {
		return 0, errors.New("promote: want a guest and a member")
	}
	progress, err := e.guests.Load(ctx, guest.ID)
	if err != nil {
		return 0, fmt.Errorf("load guest progress: %w", err)
	}
	for _, entry := range progress.Entries() {
		if err := e.members.Upsert(ctx, member.ID, entry); err != nil {
			return 0, fmt.Errorf("copy %s: %w", entry.LessonID, err)
		}
	}
	e.log.Info("guest promoted", "guest_id", guest.ID, "learner_id", member.ID, "entries", progress.Len())
	return progress.Len(), nil
}

// Wait blocks until dispatched XP awards have returned.
func (e *Engine) Wait() {
	e.memberRec.Wait()
	e.guestRec.Wait()
}
