package summary

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/quiz"
	"github.com/abhisek/coursiz/internal/router"
	"github.com/abhisek/coursiz/internal/score"
	"github.com/abhisek/coursiz/internal/screen"
	"github.com/abhisek/coursiz/internal/sequencer"
)

// run executes cmd and flattens a tea.Sequence into the messages it
// would deliver, in order.
func run(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Slice {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for i := range v.Len() {
		c, ok := v.Index(i).Interface().(tea.Cmd)
		if !ok {
			t.Fatalf("sequence element %d is %T", i, v.Index(i).Interface())
		}
		out = append(out, run(t, c)...)
	}
	return out
}

func lessonResult() Result {
	s := 75
	return FromLesson(catalog.Lesson{ID: "l1", Title: "Variables"}, sequencer.Outcome{
		LessonID:     "l1",
		Result:       score.Result{CardXP: 30, Bonus: 100, TotalXP: 130, Correct: 3, Graded: 4, Score: &s},
		NextLessonID: "l2",
	})
}

func TestSummaryScreen_Title(t *testing.T) {
	if got := New(lessonResult()).Title(); got != "Lesson Complete" {
		t.Errorf("Title = %q", got)
	}
	if got := New(FromQuiz(catalog.Lesson{}, quiz.Result{})).Title(); got != "Quiz Results" {
		t.Errorf("Title = %q", got)
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	view := New(lessonResult()).View(80, 24)
	for _, want := range []string{"Lesson complete!", "Variables", "Score: 75%", "3 of 4 correct", "+130 XP", "100 completion bonus"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSummaryScreen_NextLesson(t *testing.T) {
	s := New(lessonResult())
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	msgs := run(t, cmd)

	want := []tea.Msg{router.PopScreenMsg{}, screen.ProgressChangedMsg{}, screen.OpenLessonMsg{LessonID: "l2"}}
	if !reflect.DeepEqual(msgs, want) {
		t.Errorf("msgs = %#v, want %#v", msgs, want)
	}
}

func TestSummaryScreen_LastLessonGoesToMap(t *testing.T) {
	r := lessonResult()
	r.NextLessonID = ""
	s := New(r)

	// "Next lesson" is disabled, so Enter lands on "Course map".
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	msgs := run(t, cmd)
	want := []tea.Msg{router.PopScreenMsg{}, screen.ProgressChangedMsg{}}
	if !reflect.DeepEqual(msgs, want) {
		t.Errorf("msgs = %#v, want %#v", msgs, want)
	}
}

func TestFromQuiz_AlreadyCompleted(t *testing.T) {
	r := FromQuiz(catalog.Lesson{Title: "Checkpoint"}, quiz.Result{Score: 50, Stored: true, Err: errors.New("disk full")})
	if !r.AlreadyCompleted || r.Score == nil || *r.Score != 50 {
		t.Fatalf("result = %+v", r)
	}
	view := New(r).View(80, 24)
	if !strings.Contains(view, "already took this quiz") || !strings.Contains(view, "disk full") {
		t.Errorf("view = %s", view)
	}
}

func TestSummaryScreen_KeyHints(t *testing.T) {
	if hints := New(lessonResult()).KeyHints(); len(hints) != 3 {
		t.Errorf("KeyHints length = %d, want 3", len(hints))
	}
}
