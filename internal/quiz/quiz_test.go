package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/score"
)

type recordingFinisher struct {
	calls  int
	scores []int
}

func (f *recordingFinisher) Record(_ context.Context, _, lessonID string, res score.Result) (ledger.Entry, error) {
	f.calls++
	s := -1
	if res.Score != nil {
		s = *res.Score
	}
	f.scores = append(f.scores, s)
	return ledger.Entry{LessonID: lessonID, Completed: true, Score: res.Score}, nil
}

func quizLesson(n int) catalog.Lesson {
	l := catalog.Lesson{ID: "quiz", ContentType: catalog.ContentQuiz}
	for i := 0; i < n; i++ {
		l.Cards = append(l.Cards, cards.Card{
			ID:   fmt.Sprintf("q%02d", i+1),
			Spec: cards.SingleChoice{Options: []string{"wrong", "right"}, Correct: 1},
		})
	}
	return l
}

var start = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func TestFinalize_IncludesLastAnswer(t *testing.T) {
	ctx := context.Background()
	fin := &recordingFinisher{}
	now := start
	s := New(Config{
		LearnerID: "u1",
		Lesson:    quizLesson(15),
		Finisher:  fin,
		Clock:     func() time.Time { return now },
	}, ledger.Empty())

	var res *Result
	for i := 0; i < 15; i++ {
		q, ok := s.Current()
		if !ok || q.Index != i {
			t.Fatalf("question %d: Current = %+v, %v", i, q, ok)
		}
		_, due, err := s.Submit(ctx, cards.Choice{Index: 1})
		if err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		now = due
		var advanced bool
		advanced, res = s.Tick(ctx, now)
		if !advanced {
			t.Fatalf("Tick %d did not advance", i)
		}
	}

	if res == nil {
		t.Fatal("expected result after last Tick")
	}
	if res.Correct != 15 || res.Score != 100 {
		t.Errorf("result = %+v, want 15/15 = 100", res)
	}
	if fin.calls != 1 || fin.scores[0] != 100 {
		t.Errorf("finisher calls=%d scores=%v, want one call with 100", fin.calls, fin.scores)
	}
	if s.State() != StateFinished {
		t.Errorf("State = %s, want finished", s.State())
	}
}

func TestSubmit_LocksInImmediately(t *testing.T) {
	ctx := context.Background()
	s := New(Config{Lesson: quizLesson(2), Clock: func() time.Time { return start }}, ledger.Empty())

	att, due, err := s.Submit(ctx, cards.Choice{Index: 0})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if att.Correct {
		t.Error("expected incorrect")
	}
	if !due.Equal(start.Add(DefaultAdvanceDelay)) {
		t.Errorf("due = %v, want start+%s", due, DefaultAdvanceDelay)
	}
	if _, _, err := s.Submit(ctx, cards.Choice{Index: 1}); !errors.Is(err, ErrLockedIn) {
		t.Errorf("second Submit = %v, want ErrLockedIn", err)
	}
	q, _ := s.Current()
	if !q.Locked || q.Answer != (cards.Choice{Index: 0}) {
		t.Errorf("Current = %+v, want locked with first answer", q)
	}

	if advanced, _ := s.Tick(ctx, start.Add(100*time.Millisecond)); advanced {
		t.Error("Tick before due should not advance")
	}
	if advanced, _ := s.Tick(ctx, due); !advanced {
		t.Error("Tick at due should advance")
	}
	if q, _ := s.Current(); q.Index != 1 || q.Locked {
		t.Errorf("after advance Current = %+v", q)
	}
}

func TestSubmit_IncompleteRejected(t *testing.T) {
	l := catalog.Lesson{ID: "quiz", ContentType: catalog.ContentQuiz, Cards: []cards.Card{
		{ID: "ms", Spec: cards.MultiSelect{Options: []string{"a", "b"}, Correct: []int{0}}},
	}}
	s := New(Config{Lesson: l}, ledger.Empty())
	if _, _, err := s.Submit(context.Background(), cards.Selection{}); !errors.Is(err, cards.ErrIncomplete) {
		t.Errorf("Submit = %v, want ErrIncomplete", err)
	}
	if s.State() != StateAnswering {
		t.Errorf("State = %s, want answering", s.State())
	}
}

func TestAlreadyCompleted_ReturnsStoredScore(t *testing.T) {
	fin := &recordingFinisher{}
	prior := ledger.New(ledger.Entry{LessonID: "quiz", Completed: true, Score: ledger.ScoreOf(73)})
	s := New(Config{Lesson: quizLesson(15), Finisher: fin}, prior)

	if s.State() != StateAlreadyCompleted {
		t.Fatalf("State = %s, want already_completed", s.State())
	}
	for range 2 {
		res, ok := s.Result()
		if !ok || res.Score != 73 || !res.Stored {
			t.Errorf("Result = %+v, %v; want stored 73", res, ok)
		}
	}
	if _, _, err := s.Submit(context.Background(), cards.Choice{Index: 1}); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("Submit = %v, want ErrAlreadyCompleted", err)
	}
	if advanced, _ := s.Tick(context.Background(), time.Now().Add(time.Hour)); advanced {
		t.Error("Tick should not advance a completed quiz")
	}
	if fin.calls != 0 {
		t.Errorf("finisher calls = %d, want 0", fin.calls)
	}
	if _, ok := s.Current(); ok {
		t.Error("no question should be presented")
	}
}

func TestClose_CancelsPendingAdvance(t *testing.T) {
	ctx := context.Background()
	fin := &recordingFinisher{}
	s := New(Config{Lesson: quizLesson(1), Finisher: fin, Clock: func() time.Time { return start }}, ledger.Empty())

	_, due, err := s.Submit(ctx, cards.Choice{Index: 1})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s.Close()
	if advanced, _ := s.Tick(ctx, due.Add(time.Second)); advanced {
		t.Error("Tick after Close should not advance")
	}
	if fin.calls != 0 {
		t.Errorf("finisher calls = %d, want 0", fin.calls)
	}
	if _, _, err := s.Submit(ctx, cards.Choice{Index: 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit after Close = %v, want ErrClosed", err)
	}
}

func TestScore_Rounding(t *testing.T) {
	ctx := context.Background()
	now := start
	s := New(Config{Lesson: quizLesson(3), AdvanceDelay: time.Millisecond, Clock: func() time.Time { return now }}, ledger.Empty())

	answers := []int{1, 1, 0}
	var res *Result
	for _, a := range answers {
		_, due, err := s.Submit(ctx, cards.Choice{Index: a})
		if err != nil {
			t.Fatal(err)
		}
		now = due
		_, res = s.Tick(ctx, now)
	}
	if res == nil || res.Score != 67 || res.Correct != 2 {
		t.Errorf("result = %+v, want 2/3 = 67", res)
	}
	// 2 x 10 XP + quiz bonus 30.
	if res.TotalXP != 50 {
		t.Errorf("TotalXP = %d, want 50", res.TotalXP)
	}
}

func TestStart_EmptyQuizFinalizes(t *testing.T) {
	fin := &recordingFinisher{}
	s := New(Config{Lesson: catalog.Lesson{ID: "quiz", ContentType: catalog.ContentQuiz}, Finisher: fin}, ledger.Empty())
	res := s.Start(context.Background())
	if res == nil || s.State() != StateFinished {
		t.Fatalf("Start = %v, state %s", res, s.State())
	}
	if fin.calls != 1 {
		t.Errorf("finisher calls = %d, want 1", fin.calls)
	}
}
