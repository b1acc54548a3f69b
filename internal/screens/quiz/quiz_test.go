package quiz

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/ledger"
	qz "github.com/abhisek/coursiz/internal/quiz"
	"github.com/abhisek/coursiz/internal/router"
	"github.com/abhisek/coursiz/internal/score"
	"github.com/abhisek/coursiz/internal/screens/summary"
	"github.com/abhisek/coursiz/internal/ui/components"
)

var t0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type fakeFinisher struct{ results []score.Result }

func (f *fakeFinisher) Record(_ context.Context, _, lessonID string, res score.Result) (ledger.Entry, error) {
	f.results = append(f.results, res)
	return ledger.Entry{LessonID: lessonID, Completed: true, Score: res.Score}, nil
}

func checkpoint() catalog.Lesson {
	single := func(id string) cards.Card {
		return cards.Card{ID: id, Prompt: "Pick yes", Spec: cards.SingleChoice{Options: []string{"no", "yes"}, Correct: 1}}
	}
	return catalog.Lesson{
		ID:          "q1",
		Title:       "Checkpoint",
		ContentType: catalog.ContentQuiz,
		Cards:       []cards.Card{single("a"), single("b")},
	}
}

func newTestScreen(t *testing.T, prior ledger.Ledger) (*QuizScreen, *qz.Session, *fakeFinisher) {
	t.Helper()
	fin := &fakeFinisher{}
	sess := qz.New(qz.Config{
		ID:        "qs1",
		LearnerID: "u1",
		Lesson:    checkpoint(),
		Finisher:  fin,
		Clock:     func() time.Time { return t0 },
	}, prior)
	sess.Start(context.Background())
	s := New(sess)
	s.now = func() time.Time { return t0 }
	return s, sess, fin
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// answer moves the cursor to option and locks it in.
func answer(t *testing.T, s *QuizScreen, option int) tea.Cmd {
	t.Helper()
	for range option {
		s.Update(specialKey(tea.KeyDown))
	}
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("Enter produced no submit")
	}
	sub, ok := cmd().(components.SubmitMsg)
	if !ok {
		t.Fatalf("expected SubmitMsg")
	}
	_, cmd = s.Update(sub)
	return cmd
}

func TestQuizScreen_AutoAdvancesAndScores(t *testing.T) {
	s, sess, fin := newTestScreen(t, ledger.Empty())
	if cmd := s.Init(); cmd != nil {
		t.Fatal("fresh quiz should not jump to summary")
	}

	if cmd := answer(t, s, 1); cmd == nil {
		t.Fatal("expected advance timer")
	}
	if !strings.Contains(s.View(100, 30), "Correct!") {
		t.Error("verdict not shown while locked in")
	}

	// Locked: further keys do nothing.
	if _, cmd := s.Update(specialKey(tea.KeyEnter)); cmd != nil {
		t.Error("locked question accepted another submit")
	}

	s.Update(advanceMsg(t0.Add(qz.DefaultAdvanceDelay)))
	if q, _ := sess.Current(); q.Index != 1 || q.Locked {
		t.Fatalf("current = %+v, want unlocked question 1", q)
	}

	answer(t, s, 0)
	_, cmd := s.Update(advanceMsg(t0.Add(qz.DefaultAdvanceDelay)))
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected summary after the last question")
	}
	view := msg.Screen.(*summary.SummaryScreen).View(80, 24)
	if !strings.Contains(view, "Score: 50%") {
		t.Errorf("summary:\n%s", view)
	}
	if len(fin.results) != 1 {
		t.Errorf("recorded %d results", len(fin.results))
	}
}

func TestQuizScreen_EarlyTickRearms(t *testing.T) {
	s, sess, _ := newTestScreen(t, ledger.Empty())
	s.Init()
	answer(t, s, 1)

	_, cmd := s.Update(advanceMsg(t0.Add(time.Millisecond)))
	if cmd == nil {
		t.Error("early tick should re-arm")
	}
	if q, _ := sess.Current(); q.Index != 0 {
		t.Errorf("advanced early to %d", q.Index)
	}
}

func TestQuizScreen_AlreadyCompleted(t *testing.T) {
	prior := ledger.New(ledger.Entry{LessonID: "q1", Completed: true, Score: ledger.ScoreOf(80)})
	s, _, fin := newTestScreen(t, prior)

	cmd := s.Init()
	if cmd == nil {
		t.Fatal("expected summary for a completed quiz")
	}
	msg := cmd().(router.ReplaceScreenMsg)
	view := msg.Screen.View(80, 24)
	if !strings.Contains(view, "already took this quiz") || !strings.Contains(view, "Score: 80%") {
		t.Errorf("summary:\n%s", view)
	}
	if len(fin.results) != 0 {
		t.Error("completed quiz was scored again")
	}
}

func TestQuizScreen_AbandonClosesSession(t *testing.T) {
	s, sess, _ := newTestScreen(t, ledger.Empty())
	s.Init()

	s.Update(specialKey(tea.KeyEscape))
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'y', Text: "y"})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatal("expected pop")
	}
	if _, _, err := sess.Submit(context.Background(), cards.Choice{Index: 1}); err == nil {
		t.Error("closed quiz accepted an answer")
	}
}

func TestQuizScreen_QuitPromptHoldsAdvance(t *testing.T) {
	s, sess, fin := newTestScreen(t, ledger.Empty())
	s.Init()
	answer(t, s, 1)
	s.Update(advanceMsg(t0.Add(qz.DefaultAdvanceDelay)))
	answer(t, s, 1)

	s.Update(specialKey(tea.KeyEscape))
	_, cmd := s.Update(advanceMsg(t0.Add(qz.DefaultAdvanceDelay)))
	if cmd != nil {
		t.Fatal("advance ran behind the quit prompt")
	}
	if len(fin.results) != 0 {
		t.Fatal("quiz was scored while the quit prompt was open")
	}
	if q, _ := sess.Current(); q.Index != 1 {
		t.Fatalf("current = %d, want 1", q.Index)
	}

	_, cmd = s.Update(tea.KeyPressMsg{Code: 'n', Text: "n"})
	if cmd == nil {
		t.Fatal("keeping going should re-arm the held advance")
	}
	_, cmd = s.Update(advanceMsg(t0.Add(qz.DefaultAdvanceDelay)))
	if _, ok := cmd().(router.ReplaceScreenMsg); !ok {
		t.Fatal("expected summary once the held advance fires")
	}
	if len(fin.results) != 1 {
		t.Errorf("recorded %d results", len(fin.results))
	}
}

func TestQuizScreen_AbandonAfterLastAnswerDoesNotScore(t *testing.T) {
	s, _, fin := newTestScreen(t, ledger.Empty())
	s.Init()
	answer(t, s, 1)
	s.Update(advanceMsg(t0.Add(qz.DefaultAdvanceDelay)))
	answer(t, s, 1)

	s.Update(specialKey(tea.KeyEscape))
	s.Update(advanceMsg(t0.Add(qz.DefaultAdvanceDelay)))
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'y', Text: "y"})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatal("expected pop")
	}
	if len(fin.results) != 0 {
		t.Errorf("abandoned quiz recorded %d results", len(fin.results))
	}
}
