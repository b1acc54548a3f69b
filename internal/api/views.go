package api

import (
	"time"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/quiz"
	"github.com/abhisek/coursiz/internal/sequencer"
)

type attemptView struct {
	Correct bool      `json:"correct"`
	XP      int       `json:"xp"`
	At      time.Time `json:"at"`
}

type outcomeView struct {
	TotalXP      int           `json:"total_xp"`
	CardXP       int           `json:"card_xp"`
	Bonus        int           `json:"bonus"`
	Correct      int           `json:"correct"`
	Graded       int           `json:"graded"`
	Score        *int          `json:"score,omitempty"`
	NextLessonID string        `json:"next_lesson_id,omitempty"`
	Entry        *ledger.Entry `json:"entry,omitempty"`
	Error        string        `json:"error,omitempty"`
}

type lessonCardView struct {
	Index         int                `json:"index"`
	Total         int                `json:"total"`
	Card          cards.Presentation `json:"card"`
	Phase         string             `json:"phase"`
	Attempts      []attemptView      `json:"attempts"`
	CanContinue   bool               `json:"can_continue"`
	AutoAdvanceAt *time.Time         `json:"auto_advance_at,omitempty"`
}

type questionView struct {
	Index  int                `json:"index"`
	Total  int                `json:"total"`
	Card   cards.Presentation `json:"card"`
	Locked bool               `json:"locked"`
	DueAt  *time.Time         `json:"due_at,omitempty"`
}

type quizResultView struct {
	Correct      int    `json:"correct"`
	Total        int    `json:"total"`
	Score        int    `json:"score"`
	TotalXP      int    `json:"total_xp"`
	Stored       bool   `json:"stored"`
	NextLessonID string `json:"next_lesson_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// sessionView is the JSON body for every session endpoint.
type sessionView struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	LessonID  string `json:"lesson_id"`
	Finished  bool   `json:"finished"`
	XP        int    `json:"xp"`

	Card    *lessonCardView `json:"card,omitempty"`
	Outcome *outcomeView    `json:"outcome,omitempty"`

	State    string          `json:"state,omitempty"`
	Question *questionView   `json:"question,omitempty"`
	Result   *quizResultView `json:"result,omitempty"`
}

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (e *entry) view() sessionView {
	if e.lesson != nil {
		return e.lessonView(e.lesson)
	}
	return e.quizView(e.quiz)
}

func (e *entry) lessonView(s *sequencer.Session) sessionView {
	v := sessionView{
		SessionID: s.ID(),
		Kind:      "lesson",
		LessonID:  s.LessonID(),
		Finished:  s.Finished(),
		XP:        s.XP(),
	}
	if cv, ok := s.Active(); ok {
		lv := &lessonCardView{
			Index:         cv.Index,
			Total:         cv.Total,
			Card:          e.present(cv.Card),
			Phase:         cv.Phase.String(),
			Attempts:      make([]attemptView, 0, len(cv.Attempts)),
			CanContinue:   cv.CanContinue,
			AutoAdvanceAt: optTime(cv.AutoAdvanceAt),
		}
		for _, a := range cv.Attempts {
			lv.Attempts = append(lv.Attempts, attemptView{Correct: a.Correct, XP: a.XP, At: a.At})
		}
		v.Card = lv
	}
	if out, ok := s.Outcome(); ok {
		ov := &outcomeView{
			TotalXP:      out.Result.TotalXP,
			CardXP:       out.Result.CardXP,
			Bonus:        out.Result.Bonus,
			Correct:      out.Result.Correct,
			Graded:       out.Result.Graded,
			Score:        out.Result.Score,
			NextLessonID: out.NextLessonID,
			Error:        errString(out.Err),
		}
		if out.Err == nil {
			entry := out.Entry
			ov.Entry = &entry
		}
		v.Outcome = ov
	}
	return v
}

func (e *entry) quizView(s *quiz.Session) sessionView {
	state := s.State()
	v := sessionView{
		SessionID: s.ID(),
		Kind:      "quiz",
		LessonID:  s.LessonID(),
		State:     state.String(),
		Finished:  state == quiz.StateFinished || state == quiz.StateAlreadyCompleted,
	}
	if q, ok := s.Current(); ok {
		v.Question = &questionView{
			Index:  q.Index,
			Total:  q.Total,
			Card:   e.present(q.Card),
			Locked: q.Locked,
			DueAt:  optTime(q.DueAt),
		}
	}
	if r, ok := s.Result(); ok {
		v.XP = r.TotalXP
		v.Result = &quizResultView{
			Correct:      r.Correct,
			Total:        r.Total,
			Score:        r.Score,
			TotalXP:      r.TotalXP,
			Stored:       r.Stored,
			NextLessonID: r.NextLessonID,
			Error:        errString(r.Err),
		}
	}
	return v
}
