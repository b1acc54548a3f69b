// Package ledger models a learner's progress record: one entry per lesson,
// with a completion flag and an optional score. The engine only reads from
// and upserts into a ledger; the backing store is pluggable.
package ledger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/coursiz/internal/logger"
)

// Entry is a learner's record for one lesson.
type Entry struct {
	LessonID  string    `json:"lesson_id"`
	Completed bool      `json:"completed"`
	Score     *int      `json:"score,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreOf returns a pointer to s, for building entries.
func ScoreOf(s int) *int {
	return &s
}

// Merge applies the upsert rule: incoming overwrites existing, except that
// a completed lesson never reverts to incomplete.
func Merge(existing, incoming Entry) Entry {
	out := incoming
	if existing.Completed {
		out.Completed = true
	}
	if out.Score == nil {
		out.Score = existing.Score
	}
	return out
}

// Ledger is an immutable set of entries keyed by lesson id.
type Ledger struct {
	entries map[string]Entry
}

// New builds a ledger from entries. Later entries for the same lesson are
// merged over earlier ones.
func New(entries ...Entry) Ledger {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if prev, ok := m[e.LessonID]; ok {
			e = Merge(prev, e)
		}
		m[e.LessonID] = e
	}
	return Ledger{entries: m}
}

// Empty returns a ledger with no entries.
func Empty() Ledger {
	return Ledger{}
}

// Completed reports whether lessonID is marked completed.
func (l Ledger) Completed(lessonID string) bool {
	return l.entries[lessonID].Completed
}

// Entry returns the record for lessonID.
func (l Ledger) Entry(lessonID string) (Entry, bool) {
	e, ok := l.entries[lessonID]
	return e, ok
}

// Score returns the stored score for lessonID.
func (l Ledger) Score(lessonID string) (int, bool) {
	e, ok := l.entries[lessonID]
	if !ok || e.Score == nil {
		return 0, false
	}
	return *e.Score, true
}

// Len returns the number of entries.
func (l Ledger) Len() int {
	return len(l.entries)
}

// Entries returns all entries sorted by lesson id.
func (l Ledger) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.LessonID, b.LessonID) })
	return out
}

// With returns a copy of l with e merged in.
func (l Ledger) With(e Entry) Ledger {
	m := make(map[string]Entry, len(l.entries)+1)
	for k, v := range l.entries {
		m[k] = v
	}
	if prev, ok := m[e.LessonID]; ok {
		e = Merge(prev, e)
	}
	m[e.LessonID] = e
	return Ledger{entries: m}
}

// Source loads a learner's ledger.
type Source interface {
	Load(ctx context.Context, learnerID string) (Ledger, error)
}

// Writer upserts one entry into a learner's ledger.
type Writer interface {
	Upsert(ctx context.Context, learnerID string, e Entry) error
}

// Store is a readable and writable ledger backend.
type Store interface {
	Source
	Writer
}

// Resetter clears a learner's ledger.
type Resetter interface {
	Reset(ctx context.Context, learnerID string) error
}

// Read loads a ledger and degrades any failure to an empty ledger. Missing
// or malformed progress data must never block a learner.
func Read(ctx context.Context, src Source, learnerID string, log *logger.Logger) Ledger {
	l, err := src.Load(ctx, learnerID)
	if err != nil {
		log.Warn("progress ledger unavailable, treating as empty",
			"learner_id", learnerID, "error", err)
		return Empty()
	}
	return l
}
