package api

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/abhisek/coursiz/internal/auth"
	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/logger"
	"github.com/abhisek/coursiz/internal/quiz"
	"github.com/abhisek/coursiz/internal/sequencer"
)

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = time.Hour

// scheduleFunc runs f after d and returns a function that cancels it.
type scheduleFunc func(d time.Duration, f func()) (stop func() bool)

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// entry is one live session owned by one caller. Exactly one of lesson and
// quiz is set.
type entry struct {
	owner  auth.Identity
	lesson *sequencer.Session
	quiz   *quiz.Session

	mu       sync.Mutex
	rng      *rand.Rand
	shown    map[string]cards.Presentation
	stop     func() bool
	lastSeen time.Time
}

func (e *entry) id() string {
	if e.lesson != nil {
		return e.lesson.ID()
	}
	return e.quiz.ID()
}

// present returns a stable presentation of c for this session.
func (e *entry) present(c cards.Card) cards.Presentation {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.shown[c.ID]; ok {
		return p
	}
	p := cards.Present(c, e.rng)
	e.shown[c.ID] = p
	return p
}

// registry holds live sessions and drives their auto-advance timers.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*entry

	ttl      time.Duration
	now      func() time.Time
	schedule scheduleFunc
	log      *logger.Logger
}

func newRegistry(log *logger.Logger) *registry {
	return &registry{
		sessions: make(map[string]*entry),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		schedule: afterFunc,
		log:      log,
	}
}

func (r *registry) add(e *entry) {
	e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	e.shown = make(map[string]cards.Presentation)
	e.lastSeen = r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	r.sessions[e.id()] = e
}

// get returns the session if it exists and belongs to owner.
func (r *registry) get(id string, owner auth.Identity) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok || e.owner != owner {
		return nil, false
	}
	e.lastSeen = r.now()
	return e, true
}

// remove closes and forgets the session.
func (r *registry) remove(id string, owner auth.Identity) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok && e.owner == owner {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok || e.owner != owner {
		return false
	}
	r.close(e)
	return true
}

func (r *registry) close(e *entry) {
	e.mu.Lock()
	if e.stop != nil {
		e.stop()
		e.stop = nil
	}
	e.mu.Unlock()
	if e.lesson != nil {
		e.lesson.Close()
	} else {
		e.quiz.Close()
	}
}

// closeAll tears down every session.
func (r *registry) closeAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()
	for _, e := range all {
		r.close(e)
	}
}

func (r *registry) sweepLocked() {
	cutoff := r.now().Add(-r.ttl)
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			go r.close(e)
		}
	}
}

// arm schedules a Tick for due, replacing any pending one.
func (r *registry) arm(e *entry, due time.Time) {
	if due.IsZero() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		e.stop()
	}
	e.stop = r.schedule(due.Sub(r.now()), func() { r.tick(e) })
}

// tick advances e if its pending advance is due.
func (r *registry) tick(e *entry) {
	ctx := context.Background()
	now := r.now()
	if e.lesson != nil {
		advanced, out, err := e.lesson.Tick(ctx, now)
		if err != nil {
			r.log.Warn("auto-advance failed", "session_id", e.id(), "error", err)
		}
		if advanced && out != nil {
			r.log.Info("lesson finished", "session_id", e.id(), "lesson_id", out.LessonID, "total_xp", out.Result.TotalXP)
		}
		return
	}
	advanced, res := e.quiz.Tick(ctx, now)
	if advanced && res != nil {
		r.log.Info("quiz finished", "session_id", e.id(), "lesson_id", e.quiz.LessonID(), "score", res.Score)
	}
}
