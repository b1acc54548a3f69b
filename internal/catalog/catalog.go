// Package catalog holds the static course/lesson/card tree and the ordered
// lookups the gating policy and sequencer need.
package catalog

import (
	"slices"

	"github.com/abhisek/coursiz/internal/cards"
)

// ContentType classifies a lesson.
type ContentType string

const (
	ContentLesson  ContentType = "lesson"
	ContentQuiz    ContentType = "quiz"
	ContentReading ContentType = "reading"
)

// DefaultBonus returns the completion bonus for lessons of this type.
func (c ContentType) DefaultBonus() int {
	switch c {
	case ContentLesson:
		return 100
	case ContentQuiz, ContentReading:
		return 30
	default:
		return 0
	}
}

// Lesson is an ordered unit inside a course.
type Lesson struct {
	ID          string
	CourseID    string
	Order       int
	Title       string
	ContentType ContentType
	HasQuiz     bool

	// Bonus overrides the content-type completion bonus when positive.
	Bonus int

	Cards []cards.Card
}

// CompletionBonus returns the XP granted once when the lesson finishes.
func (l Lesson) CompletionBonus() int {
	if l.Bonus > 0 {
		return l.Bonus
	}
	return l.ContentType.DefaultBonus()
}

// IsQuiz reports whether the lesson runs as an auto-advancing quiz.
func (l Lesson) IsQuiz() bool {
	return l.ContentType == ContentQuiz
}

// GradedCount returns the number of graded cards.
func (l Lesson) GradedCount() int {
	n := 0
	for _, c := range l.Cards {
		if c.Graded() {
			n++
		}
	}
	return n
}

// Course is an ordered group of lessons.
type Course struct {
	ID      string
	Order   int
	Title   string
	Lessons []Lesson
}

// Catalog is an immutable, validated snapshot of all courses.
type Catalog struct {
	Version string
	Courses []Course

	courseIdx map[string]int
	lessonIdx map[string]lessonRef
	flat      []string
}

type lessonRef struct {
	course, lesson int
	position       int
}

// New validates courses and builds the lookup indexes. Courses and lessons
// are sorted by order; the input slices are not modified.
func New(version string, courses []Course) (*Catalog, error) {
	if err := validate(courses); err != nil {
		return nil, err
	}

	sorted := make([]Course, len(courses))
	for i, c := range courses {
		c.Lessons = slices.Clone(c.Lessons)
		slices.SortFunc(c.Lessons, func(a, b Lesson) int { return a.Order - b.Order })
		for j := range c.Lessons {
			c.Lessons[j].CourseID = c.ID
		}
		sorted[i] = c
	}
	slices.SortFunc(sorted, func(a, b Course) int { return a.Order - b.Order })

	cat := &Catalog{
		Version:   version,
		Courses:   sorted,
		courseIdx: make(map[string]int, len(sorted)),
		lessonIdx: make(map[string]lessonRef),
	}
	for ci, c := range sorted {
		cat.courseIdx[c.ID] = ci
		for li, l := range c.Lessons {
			cat.flat = append(cat.flat, l.ID)
			cat.lessonIdx[l.ID] = lessonRef{course: ci, lesson: li, position: len(cat.flat)}
		}
	}
	return cat, nil
}

// Course returns the course with the given id.
func (c *Catalog) Course(id string) (Course, bool) {
	i, ok := c.courseIdx[id]
	if !ok {
		return Course{}, false
	}
	return c.Courses[i], true
}

// Lesson returns the lesson with the given id.
func (c *Catalog) Lesson(id string) (Lesson, bool) {
	ref, ok := c.lessonIdx[id]
	if !ok {
		return Lesson{}, false
	}
	return c.Courses[ref.course].Lessons[ref.lesson], true
}

// Lessons returns every lesson in course-order-then-lesson-order.
func (c *Catalog) Lessons() []Lesson {
	out := make([]Lesson, 0, len(c.flat))
	for _, co := range c.Courses {
		out = append(out, co.Lessons...)
	}
	return out
}

// Position returns the 1-based position of a lesson in the flattened
// course-order-then-lesson-order sequence, or 0 if unknown.
func (c *Catalog) Position(lessonID string) int {
	return c.lessonIdx[lessonID].position
}

// PreviousLesson returns the lesson immediately before id in the same course.
func (c *Catalog) PreviousLesson(id string) (Lesson, bool) {
	ref, ok := c.lessonIdx[id]
	if !ok || ref.lesson == 0 {
		return Lesson{}, false
	}
	return c.Courses[ref.course].Lessons[ref.lesson-1], true
}

// PreviousCourse returns the course immediately before id in global order.
func (c *Catalog) PreviousCourse(id string) (Course, bool) {
	i, ok := c.courseIdx[id]
	if !ok || i == 0 {
		return Course{}, false
	}
	return c.Courses[i-1], true
}

// NextLesson returns the lesson after id in flattened order.
func (c *Catalog) NextLesson(id string) (Lesson, bool) {
	ref, ok := c.lessonIdx[id]
	if !ok || ref.position >= len(c.flat) {
		return Lesson{}, false
	}
	return c.Lesson(c.flat[ref.position])
}

// CardCount returns the total number of cards across the catalog.
func (c *Catalog) CardCount() int {
	n := 0
	for _, co := range c.Courses {
		for _, l := range co.Lessons {
			n += len(l.Cards)
		}
	}
	return n
}
