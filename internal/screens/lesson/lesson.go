// Package lesson is the card-by-card player for lessons and readings.
package lesson

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/router"
	"github.com/abhisek/coursiz/internal/screen"
	"github.com/abhisek/coursiz/internal/screens/summary"
	"github.com/abhisek/coursiz/internal/sequencer"
	"github.com/abhisek/coursiz/internal/ui/components"
	"github.com/abhisek/coursiz/internal/ui/layout"
	"github.com/abhisek/coursiz/internal/ui/theme"
)

// autoAdvanceMsg fires when a pending auto-advance may be due.
type autoAdvanceMsg time.Time

// LessonScreen plays one lesson session.
type LessonScreen struct {
	sess *sequencer.Session
	rng  *rand.Rand
	now  func() time.Time

	cardID   string
	input    components.AnswerInput
	last     *cards.Attempt
	note     string
	errMsg   string
	quitting bool
	// held is set when an auto-advance tick arrived during the quit prompt.
	held bool
}

var _ screen.Screen = (*LessonScreen)(nil)
var _ screen.KeyHintProvider = (*LessonScreen)(nil)
var _ screen.BackGuard = (*LessonScreen)(nil)

// New creates a LessonScreen for an open session.
func New(sess *sequencer.Session) *LessonScreen {
	seed := uint64(time.Now().UnixNano())
	return &LessonScreen{
		sess: sess,
		rng:  rand.New(rand.NewPCG(seed, seed>>7)),
		now:  time.Now,
	}
}

func (s *LessonScreen) Init() tea.Cmd {
	s.sync()
	return s.schedule()
}

func (s *LessonScreen) Title() string {
	return s.sess.Lesson().Title
}

// GuardBack keeps Esc for the quit confirmation while cards remain.
func (s *LessonScreen) GuardBack() bool {
	return !s.sess.Finished() && s.errMsg == ""
}

func (s *LessonScreen) KeyHints() []layout.KeyHint {
	if s.quitting {
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave lesson"},
			{Key: "N", Description: "Keep going"},
		}
	}
	v, ok := s.sess.Active()
	if !ok {
		return nil
	}
	if v.CanContinue && (v.Phase == cards.PhaseJudged || !v.Card.Graded()) {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Continue"},
			{Key: "Esc", Description: "Leave"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Answer"},
		{Key: "Esc", Description: "Leave"},
	}
}

func (s *LessonScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case autoAdvanceMsg:
		if s.quitting {
			s.held = true
			return s, nil
		}
		return s.handleAutoAdvance(time.Time(msg))
	case components.SubmitMsg:
		return s.handleSubmit(msg.Answer)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

// sync refreshes the input from the session's active card. A new card gets
// a fresh presentation; the same card keeps the learner's input.
func (s *LessonScreen) sync() {
	v, ok := s.sess.Active()
	if !ok {
		return
	}
	if v.Card.ID != s.cardID {
		s.cardID = v.Card.ID
		s.input = components.NewAnswerInput(cards.Present(v.Card, s.rng))
		s.last = nil
		s.note = ""
	}
	s.input.Locked = v.Phase == cards.PhaseJudged
}

// schedule arms a timer for the pending auto-advance, if any.
func (s *LessonScreen) schedule() tea.Cmd {
	at, ok := s.sess.AutoAdvanceAt()
	if !ok {
		return nil
	}
	d := max(at.Sub(s.now()), time.Millisecond)
	return tea.Tick(d, func(t time.Time) tea.Msg { return autoAdvanceMsg(t) })
}

func (s *LessonScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	if s.quitting {
		switch key {
		case "y", "Y":
			s.sess.Close()
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.quitting = false
			if s.held {
				s.held = false
				return s, s.schedule()
			}
		}
		return s, nil
	}

	if key == "esc" {
		s.quitting = true
		return s, nil
	}

	v, ok := s.sess.Active()
	if !ok {
		return s, nil
	}
	if continueButton(v).Pressed(msg) {
		return s.advance()
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *LessonScreen) handleSubmit(a cards.Answer) (screen.Screen, tea.Cmd) {
	att, err := s.sess.Submit(context.Background(), a)
	switch {
	case errors.Is(err, cards.ErrIncomplete):
		s.note = "Finish your answer first."
		return s, nil
	case errors.Is(err, cards.ErrCardLocked):
		return s, nil
	case err != nil:
		s.errMsg = err.Error()
		return s, nil
	}
	s.last = &att
	s.note = ""
	s.sync()
	return s, s.schedule()
}

func (s *LessonScreen) handleAutoAdvance(now time.Time) (screen.Screen, tea.Cmd) {
	advanced, out, err := s.sess.Tick(context.Background(), now)
	if !advanced {
		// Early or stale timer: re-arm for whatever is still pending.
		return s, s.schedule()
	}
	return s.afterAdvance(out, err)
}

func (s *LessonScreen) advance() (screen.Screen, tea.Cmd) {
	out, err := s.sess.Continue(context.Background())
	if errors.Is(err, sequencer.ErrCannotContinue) {
		return s, nil
	}
	return s.afterAdvance(out, err)
}

func (s *LessonScreen) afterAdvance(out *sequencer.Outcome, err error) (screen.Screen, tea.Cmd) {
	if out != nil {
		res := summary.FromLesson(s.sess.Lesson(), *out)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: summary.New(res)} }
	}
	if err != nil {
		s.errMsg = err.Error()
		return s, nil
	}
	s.sync()
	return s, s.schedule()
}

func (s *LessonScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render("\n\n" + s.errMsg + "\n\nPress any key to go back.")
	}
	if s.quitting {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Text).
			Render("\n\nLeave this lesson? Progress on it will be lost.\n\n[Y]es   [N]o")
	}
	v, ok := s.sess.Active()
	if !ok {
		return ""
	}

	var b strings.Builder
	bar := components.NewProgressBar("Card", v.Index, v.Total, min(width-20, 60))
	top := bar.View() + "   " + theme.XP.Render(fmt.Sprintf("%d XP", v.XP))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, top))
	b.WriteString("\n\n")

	cw := components.ContentWidth(width)
	body := s.input.View(cw)
	if fb := s.feedback(v); fb != "" {
		body += "\n" + fb
	}
	b.WriteString(components.CardFrame(v.Card.Title, body, width))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, continueButton(v).View()))
	b.WriteString("\n")

	hint := s.input.Hint()
	if v.Phase == cards.PhaseJudged || !v.Card.Graded() {
		hint = "Enter to continue"
		if !v.AutoAdvanceAt.IsZero() {
			hint = "Moving on in a moment… (Enter to skip)"
		}
	}
	if s.note != "" {
		hint = s.note
	}
	b.WriteString(theme.Hint.Width(width).Align(lipgloss.Center).Render(hint))
	return b.String()
}

// continueButton is live on info cards and once a graded card allows
// moving on.
func continueButton(v sequencer.View) components.Button {
	return components.NewButton("Continue", "enter", !v.Card.Graded() || v.CanContinue)
}

// feedback renders the verdict for the last attempt on the active card.
func (s *LessonScreen) feedback(v sequencer.View) string {
	if s.last == nil || !v.Card.Graded() {
		return ""
	}
	if s.last.Correct {
		line := theme.Correct.Render("Correct!")
		if s.last.XP > 0 {
			line += "  " + theme.XP.Render(fmt.Sprintf("+%d XP", s.last.XP))
		}
		return line
	}
	if v.Phase == cards.PhaseAnswering {
		return theme.Incorrect.Render("Not quite. Try again.")
	}
	return theme.Incorrect.Render("Not quite.") + "\n" +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("Answer: "+components.Solution(v.Card))
}
