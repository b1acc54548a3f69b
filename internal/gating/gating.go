// Package gating decides which lessons and courses a learner may open.
//
// All functions are pure: they read a catalog snapshot and a ledger and
// never mutate either.
package gating

import (
	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/ledger"
)

// DefaultGuestQuota is how many lessons, by flattened catalog position, a
// guest may open.
const DefaultGuestQuota = 3

// Policy holds the tunable gating parameters.
type Policy struct {
	GuestQuota int
}

// DefaultPolicy returns the stock policy.
func DefaultPolicy() Policy {
	return Policy{GuestQuota: DefaultGuestQuota}
}

// IsCourseCompleted reports whether every lesson of course is completed.
func IsCourseCompleted(course catalog.Course, l ledger.Ledger) bool {
	if len(course.Lessons) == 0 {
		return false
	}
	for _, lesson := range course.Lessons {
		if !l.Completed(lesson.ID) {
			return false
		}
	}
	return true
}

// IsCourseLocked returns true unless courseID is the first course or the
// course before it is completed. Unknown courses are locked.
func IsCourseLocked(cat *catalog.Catalog, courseID string, l ledger.Ledger) bool {
	if _, ok := cat.Course(courseID); !ok {
		return true
	}
	prev, ok := cat.PreviousCourse(courseID)
	if !ok {
		return false
	}
	return !IsCourseCompleted(prev, l)
}

// IsQuotaLocked reports whether a guest is barred from lessonID purely by
// the guest quota.
func (p Policy) IsQuotaLocked(cat *catalog.Catalog, lessonID string, guest bool) bool {
	if !guest {
		return false
	}
	pos := cat.Position(lessonID)
	return pos == 0 || pos > p.GuestQuota
}

// IsLessonLocked applies the full unlock rule: the course must be unlocked,
// the previous lesson in the course must be completed (unless this is the
// first one), and guests must be within quota. Unknown lessons are locked.
func (p Policy) IsLessonLocked(cat *catalog.Catalog, lessonID string, l ledger.Ledger, guest bool) bool {
	lesson, ok := cat.Lesson(lessonID)
	if !ok {
		return true
	}
	if p.IsQuotaLocked(cat, lessonID, guest) {
		return true
	}
	if IsCourseLocked(cat, lesson.CourseID, l) {
		return true
	}
	if prev, ok := cat.PreviousLesson(lessonID); ok && !l.Completed(prev.ID) {
		return true
	}
	return false
}

// LessonState is the gating view of one lesson. Locked and Completed are
// independent: a guest past quota still sees lessons they finished earlier
// as completed.
type LessonState struct {
	LessonID string `json:"lesson_id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Position int    `json:"position"`

	// HasQuiz marks a lesson whose content is followed by a quiz.
	HasQuiz bool `json:"has_quiz"`

	Locked    bool `json:"locked"`
	Completed bool `json:"completed"`
	Score     *int `json:"score,omitempty"`

	// RequiresSignup is set when the lesson is locked for a guest only
	// because of the quota.
	RequiresSignup bool `json:"requires_signup"`
}

// CourseState is the gating view of one course.
type CourseState struct {
	CourseID  string        `json:"course_id"`
	Title     string        `json:"title"`
	Locked    bool          `json:"locked"`
	Completed bool          `json:"completed"`
	Lessons   []LessonState `json:"lessons"`
}

// Snapshot is the full gating output for one learner.
type Snapshot struct {
	Guest   bool          `json:"guest"`
	Courses []CourseState `json:"courses"`
}

// Evaluate computes the gating state of every course and lesson.
func (p Policy) Evaluate(cat *catalog.Catalog, l ledger.Ledger, guest bool) Snapshot {
	snap := Snapshot{Guest: guest, Courses: make([]CourseState, 0, len(cat.Courses))}
	for _, c := range cat.Courses {
		cs := CourseState{
			CourseID:  c.ID,
			Title:     c.Title,
			Locked:    IsCourseLocked(cat, c.ID, l),
			Completed: IsCourseCompleted(c, l),
			Lessons:   make([]LessonState, 0, len(c.Lessons)),
		}
		for _, lesson := range c.Lessons {
			ls := LessonState{
				LessonID:  lesson.ID,
				Title:     lesson.Title,
				Type:      string(lesson.ContentType),
				Position:  cat.Position(lesson.ID),
				HasQuiz:   lesson.HasQuiz,
				Locked:    p.IsLessonLocked(cat, lesson.ID, l, guest),
				Completed: l.Completed(lesson.ID),
			}
			if e, ok := l.Entry(lesson.ID); ok {
				ls.Score = e.Score
			}
			if ls.Locked && p.IsQuotaLocked(cat, lesson.ID, guest) && !p.IsLessonLocked(cat, lesson.ID, l, false) {
				ls.RequiresSignup = true
			}
			cs.Lessons = append(cs.Lessons, ls)
		}
		snap.Courses = append(snap.Courses, cs)
	}
	return snap
}

// Lesson returns the state of lessonID.
func (s Snapshot) Lesson(lessonID string) (LessonState, bool) {
	for _, c := range s.Courses {
		for _, l := range c.Lessons {
			if l.LessonID == lessonID {
				return l, true
			}
		}
	}
	return LessonState{}, false
}

// Unlocked returns the ids of all unlocked lessons in flattened order.
func (s Snapshot) Unlocked() []string {
	var out []string
	for _, c := range s.Courses {
		for _, l := range c.Lessons {
			if !l.Locked {
				out = append(out, l.LessonID)
			}
		}
	}
	return out
}
