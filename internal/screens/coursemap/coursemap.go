// Package coursemap is the home screen of the terminal player: every course
// and lesson with its lock and completion state.
package coursemap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursiz/internal/engine"
	"github.com/abhisek/coursiz/internal/gating"
	"github.com/abhisek/coursiz/internal/router"
	"github.com/abhisek/coursiz/internal/screen"
	"github.com/abhisek/coursiz/internal/screens/lesson"
	"github.com/abhisek/coursiz/internal/screens/quiz"
	"github.com/abhisek/coursiz/internal/screens/signup"
	"github.com/abhisek/coursiz/internal/ui/layout"
	"github.com/abhisek/coursiz/internal/ui/theme"
)

type rowKind int

const (
	rowCourseHeader rowKind = iota
	rowLesson
)

type row struct {
	kind   rowKind
	course gating.CourseState
	lesson gating.LessonState
}

// loadedMsg carries a fresh gating snapshot.
type loadedMsg struct {
	snap gating.Snapshot
}

// CourseMapScreen lists the catalog for one learner.
type CourseMapScreen struct {
	eng     *engine.Engine
	learner engine.Learner

	rows         []row
	cursor       int
	scrollOffset int
	notice       string
}

var _ screen.Screen = (*CourseMapScreen)(nil)
var _ screen.KeyHintProvider = (*CourseMapScreen)(nil)

// New creates a CourseMapScreen.
func New(eng *engine.Engine, learner engine.Learner) *CourseMapScreen {
	return &CourseMapScreen{eng: eng, learner: learner}
}

// Learner returns the learner the map is showing.
func (s *CourseMapScreen) Learner() engine.Learner {
	return s.learner
}

func (s *CourseMapScreen) Init() tea.Cmd {
	return s.load()
}

func (s *CourseMapScreen) load() tea.Cmd {
	eng, l := s.eng, s.learner
	return func() tea.Msg {
		return loadedMsg{snap: eng.Snapshot(context.Background(), l)}
	}
}

func (s *CourseMapScreen) Title() string {
	return "Course Map"
}

// KeyHints returns the key binding hints for the footer.
func (s *CourseMapScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Tab", Description: "Course"},
		{Key: "Enter", Description: "Open"},
	}
	if s.learner.Guest {
		hints = append(hints, layout.KeyHint{Key: "S", Description: "Sign up"})
	}
	return append(hints, layout.KeyHint{Key: "Q", Description: "Quit"})
}

func (s *CourseMapScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return s, s.apply(msg.snap)
	case screen.ProgressChangedMsg:
		return s, s.load()
	case screen.OpenLessonMsg:
		return s, s.open(msg.LessonID)
	case signup.SignedUpMsg:
		s.learner = msg.Learner
		s.notice = fmt.Sprintf("Welcome, %s! %d finished lessons carried over.", msg.Learner.ID, msg.Copied)
		return s, s.load()
	case tea.KeyMsg:
		s.notice = ""
		switch msg.String() {
		case "up", "k":
			s.moveCursor(-1)
		case "down", "j":
			s.moveCursor(1)
		case "tab":
			s.nextCourse()
		case "shift+tab":
			s.prevCourse()
		case "enter":
			if r, ok := s.selected(); ok {
				return s, s.open(r.lesson.LessonID)
			}
		case "s", "S":
			if s.learner.Guest {
				return s, s.pushSignup("")
			}
		case "q":
			return s, tea.Quit
		}
	}
	return s, nil
}

// apply rebuilds the rows from snap, keeping the cursor on the same lesson
// when it still exists and otherwise moving it to the first open lesson.
func (s *CourseMapScreen) apply(snap gating.Snapshot) tea.Cmd {
	prev := ""
	if r, ok := s.selected(); ok {
		prev = r.lesson.LessonID
	}

	s.rows = s.rows[:0]
	completed, total := 0, 0
	for _, c := range snap.Courses {
		s.rows = append(s.rows, row{kind: rowCourseHeader, course: c})
		for _, l := range c.Lessons {
			s.rows = append(s.rows, row{kind: rowLesson, course: c, lesson: l})
			total++
			if l.Completed {
				completed++
			}
		}
	}

	s.cursor = -1
	for i, r := range s.rows {
		if r.kind == rowLesson && r.lesson.LessonID == prev {
			s.cursor = i
			break
		}
	}
	if s.cursor < 0 {
		s.cursor = s.firstOpen()
	}

	label := s.learner.ID
	if s.learner.Guest {
		label = "guest"
	}
	return func() tea.Msg {
		return screen.StatusMsg{Learner: label, Completed: completed, Total: total}
	}
}

// firstOpen returns the first unlocked, unfinished lesson, falling back to
// the first lesson row.
func (s *CourseMapScreen) firstOpen() int {
	first := 0
	for i, r := range s.rows {
		if r.kind != rowLesson {
			continue
		}
		if first == 0 {
			first = i
		}
		if !r.lesson.Locked && !r.lesson.Completed {
			return i
		}
	}
	return first
}

func (s *CourseMapScreen) selected() (row, bool) {
	if s.cursor < 0 || s.cursor >= len(s.rows) || s.rows[s.cursor].kind != rowLesson {
		return row{}, false
	}
	return s.rows[s.cursor], true
}

// open starts the lesson or quiz and pushes its player. Locks turn into a
// notice, or the sign-up screen when only the guest quota stands in the way.
func (s *CourseMapScreen) open(lessonID string) tea.Cmd {
	ctx := context.Background()
	l, ok := s.eng.Catalog().Lesson(lessonID)
	if !ok {
		s.notice = "That lesson no longer exists."
		return nil
	}

	var next screen.Screen
	var err error
	if l.IsQuiz() {
		sess, qerr := s.eng.StartQuiz(ctx, s.learner, lessonID)
		if err = qerr; err == nil {
			next = quiz.New(sess)
		}
	} else {
		sess, lerr := s.eng.StartLesson(ctx, s.learner, lessonID)
		if err = lerr; err == nil {
			next = lesson.New(sess)
		}
	}

	switch {
	case errors.Is(err, engine.ErrSignupRequired):
		return s.pushSignup(fmt.Sprintf("%q is for members.", l.Title))
	case errors.Is(err, engine.ErrLocked):
		s.notice = "Finish the lessons before this one to unlock it."
		return nil
	case err != nil:
		s.notice = err.Error()
		return nil
	}
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (s *CourseMapScreen) pushSignup(reason string) tea.Cmd {
	scr := signup.New(s.eng, s.learner, reason)
	return func() tea.Msg { return router.PushScreenMsg{Screen: scr} }
}

// moveCursor moves the cursor by delta, skipping course headers.
func (s *CourseMapScreen) moveCursor(delta int) {
	for next := s.cursor + delta; next >= 0 && next < len(s.rows); next += delta {
		if s.rows[next].kind == rowLesson {
			s.cursor = next
			return
		}
	}
}

// nextCourse jumps the cursor to the first lesson of the next course.
func (s *CourseMapScreen) nextCourse() {
	r, ok := s.selected()
	if !ok {
		return
	}
	for i := s.cursor + 1; i < len(s.rows); i++ {
		if s.rows[i].kind == rowLesson && s.rows[i].course.CourseID != r.course.CourseID {
			s.cursor = i
			return
		}
	}
}

// prevCourse jumps the cursor to the first lesson of the previous course.
func (s *CourseMapScreen) prevCourse() {
	r, ok := s.selected()
	if !ok {
		return
	}
	target := ""
	for i := s.cursor - 1; i >= 0; i-- {
		if s.rows[i].kind == rowLesson && s.rows[i].course.CourseID != r.course.CourseID {
			target = s.rows[i].course.CourseID
			break
		}
	}
	if target == "" {
		return
	}
	for i, r := range s.rows {
		if r.kind == rowLesson && r.course.CourseID == target {
			s.cursor = i
			return
		}
	}
}

// adjustScroll ensures the cursor is visible within the viewport.
func (s *CourseMapScreen) adjustScroll(height int) {
	if height <= 0 {
		return
	}
	// Show the course header above the cursor if possible.
	top := s.cursor
	for top > 0 && s.rows[top-1].kind == rowCourseHeader {
		top--
	}
	if top < s.scrollOffset {
		s.scrollOffset = top
	}
	if s.cursor >= s.scrollOffset+height {
		s.scrollOffset = s.cursor - height + 1
	}
}

func (s *CourseMapScreen) View(width, height int) string {
	if len(s.rows) == 0 {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\nLoading courses…")
	}

	listHeight := height
	if s.notice != "" {
		listHeight -= 2
	}
	s.adjustScroll(listHeight)

	var lines []string
	for i := s.scrollOffset; i < len(s.rows) && len(lines) < listHeight; i++ {
		r := s.rows[i]
		switch r.kind {
		case rowCourseHeader:
			lines = append(lines, s.renderCourseHeader(r.course, width))
		case rowLesson:
			lines = append(lines, s.renderLessonRow(r.lesson, i == s.cursor, width))
		}
	}

	out := strings.Join(lines, "\n")
	if s.notice != "" {
		out += "\n\n" + lipgloss.NewStyle().Foreground(theme.Accent).Padding(0, 2).Render(s.notice)
	}
	return out
}

// renderCourseHeader renders a course section header.
func (s *CourseMapScreen) renderCourseHeader(c gating.CourseState, width int) string {
	name := strings.ToUpper(c.Title)
	switch {
	case c.Completed:
		name += "  ✔"
	case c.Locked:
		name += "  (locked)"
	}
	color := theme.Secondary
	if c.Locked {
		color = theme.TextDim
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Width(width).
		Padding(1, 0, 0, 2).
		Render(name)
}

// lessonIcon returns the marker and status label for a lesson.
func lessonIcon(l gating.LessonState) (string, string) {
	switch {
	case l.Completed && l.Score != nil:
		return "✔", fmt.Sprintf("%d%%", *l.Score)
	case l.Completed:
		return "✔", "Done"
	case l.RequiresSignup:
		return "★", "Members"
	case l.Locked:
		return "◌", "Locked"
	default:
		return "▶", "Start"
	}
}

func lessonType(l gating.LessonState) string {
	if l.HasQuiz {
		return l.Type + "+quiz"
	}
	return l.Type
}

// renderLessonRow renders a single lesson row.
func (s *CourseMapScreen) renderLessonRow(l gating.LessonState, selected bool, width int) string {
	icon, label := lessonIcon(l)

	const typeWidth, labelWidth = 11, 8
	nameWidth := max(width-4-3-typeWidth-labelWidth-6, 10)

	name := l.Title
	if lipgloss.Width(name) > nameWidth {
		name = string([]rune(name)[:nameWidth-1]) + "…"
	}

	var nameStyle, labelStyle lipgloss.Style
	switch {
	case selected:
		nameStyle = theme.Selected
		labelStyle = lipgloss.NewStyle().Foreground(theme.Primary)
	case l.Completed:
		nameStyle = theme.Completed
		labelStyle = theme.Completed
	case l.RequiresSignup:
		nameStyle = theme.Locked
		labelStyle = theme.Members
	case l.Locked:
		nameStyle = theme.Locked
		labelStyle = theme.Locked
	default:
		nameStyle = theme.Unselected
		labelStyle = lipgloss.NewStyle().Foreground(theme.Secondary)
	}

	cursor := "  "
	if selected {
		cursor = "▸ "
	}
	return fmt.Sprintf("  %s%s %s  %s  %s",
		cursor,
		icon,
		nameStyle.Render(fmt.Sprintf("%-*s", nameWidth, name)),
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("%-*s", typeWidth, lessonType(l))),
		labelStyle.Render(fmt.Sprintf("%*s", labelWidth, label)),
	)
}
