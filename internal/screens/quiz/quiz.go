// Package quiz is the one-attempt quiz player. Each answer locks in, shows
// its verdict briefly and moves on by itself.
package quiz

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
	qz "github.com/abhisek/coursiz/internal/quiz"
	"github.com/abhisek/coursiz/internal/router"
	"github.com/abhisek/coursiz/internal/screen"
	"github.com/abhisek/coursiz/internal/screens/summary"
	"github.com/abhisek/coursiz/internal/ui/components"
	"github.com/abhisek/coursiz/internal/ui/layout"
	"github.com/abhisek/coursiz/internal/ui/theme"
)

// advanceMsg fires when the locked-in question may move on.
type advanceMsg time.Time

// QuizScreen plays one quiz session.
type QuizScreen struct {
	sess *qz.Session
	rng  *rand.Rand
	now  func() time.Time

	index    int
	input    components.AnswerInput
	last     *cards.Attempt
	note     string
	errMsg   string
	quitting bool
	// held is set when an advance tick arrived during the quit prompt.
	held bool
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.BackGuard = (*QuizScreen)(nil)

// New creates a QuizScreen for a started session.
func New(sess *qz.Session) *QuizScreen {
	seed := uint64(time.Now().UnixNano())
	return &QuizScreen{
		sess:  sess,
		rng:   rand.New(rand.NewPCG(seed, seed>>7)),
		now:   time.Now,
		index: -1,
	}
}

// Init shows the first question, or goes straight to the summary when the
// quiz was already taken.
func (s *QuizScreen) Init() tea.Cmd {
	if res, ok := s.sess.Result(); ok {
		return s.toSummary(res)
	}
	s.sync()
	return nil
}

func (s *QuizScreen) Title() string {
	return s.sess.Lesson().Title
}

// GuardBack keeps Esc for the quit confirmation while the quiz runs.
func (s *QuizScreen) GuardBack() bool {
	st := s.sess.State()
	return (st == qz.StateAnswering || st == qz.StateAdvancing) && s.errMsg == ""
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	if s.quitting {
		return []layout.KeyHint{
			{Key: "Y", Description: "Abandon quiz"},
			{Key: "N", Description: "Keep going"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Lock in"},
		{Key: "Esc", Description: "Leave"},
	}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case advanceMsg:
		if s.quitting {
			s.held = true
			return s, nil
		}
		return s.handleAdvance(time.Time(msg))
	case components.SubmitMsg:
		return s.handleSubmit(msg.Answer)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *QuizScreen) sync() {
	q, ok := s.sess.Current()
	if !ok {
		return
	}
	if q.Index != s.index {
		s.index = q.Index
		s.input = components.NewAnswerInput(cards.Present(q.Card, s.rng))
		s.last = nil
		s.note = ""
	}
	s.input.Locked = q.Locked
}

func (s *QuizScreen) toSummary(res qz.Result) tea.Cmd {
	r := summary.FromQuiz(s.sess.Lesson(), res)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: summary.New(r)} }
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
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
			return s, s.resume()
		}
		return s, nil
	}

	if key == "esc" {
		s.quitting = true
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *QuizScreen) handleSubmit(a cards.Answer) (screen.Screen, tea.Cmd) {
	att, due, err := s.sess.Submit(context.Background(), a)
	switch {
	case errors.Is(err, cards.ErrIncomplete):
		s.note = "Finish your answer first."
		return s, nil
	case errors.Is(err, qz.ErrLockedIn):
		return s, nil
	case err != nil:
		s.errMsg = err.Error()
		return s, nil
	}
	s.last = &att
	s.note = ""
	s.sync()
	return s, s.timer(due)
}

func (s *QuizScreen) timer(due time.Time) tea.Cmd {
	d := max(due.Sub(s.now()), time.Millisecond)
	return tea.Tick(d, func(t time.Time) tea.Msg { return advanceMsg(t) })
}

// resume re-arms an advance that was held back by the quit prompt.
func (s *QuizScreen) resume() tea.Cmd {
	if !s.held {
		return nil
	}
	s.held = false
	if q, ok := s.sess.Current(); ok && q.Locked {
		return s.timer(q.DueAt)
	}
	return nil
}

func (s *QuizScreen) handleAdvance(now time.Time) (screen.Screen, tea.Cmd) {
	advanced, res := s.sess.Tick(context.Background(), now)
	if res != nil {
		return s, s.toSummary(*res)
	}
	if !advanced {
		if q, ok := s.sess.Current(); ok && q.Locked {
			return s, s.timer(q.DueAt)
		}
		return s, nil
	}
	s.sync()
	return s, nil
}

func (s *QuizScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render("\n\n" + s.errMsg + "\n\nPress any key to go back.")
	}
	if s.quitting {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Text).
			Render("\n\nAbandon this quiz? Answers so far will not count.\n\n[Y]es   [N]o")
	}
	q, ok := s.sess.Current()
	if !ok {
		return ""
	}

	var b strings.Builder
	bar := components.NewProgressBar("Question", q.Index, q.Total, min(width-24, 60))
	top := bar.View() + "   " + theme.Correct.Render(fmt.Sprintf("✔ %d", s.sess.Correct()))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, top))
	b.WriteString("\n\n")

	body := s.input.View(components.ContentWidth(width))
	if s.last != nil {
		if s.last.Correct {
			body += "\n" + theme.Correct.Render("Correct!")
		} else {
			body += "\n" + theme.Incorrect.Render("Not quite.")
		}
	}
	b.WriteString(components.CardFrame(q.Card.Title, body, width))
	b.WriteString("\n")

	hint := s.input.Hint()
	switch {
	case s.note != "":
		hint = s.note
	case q.Locked:
		hint = "Locked in. Next question coming up…"
	}
	b.WriteString(theme.Hint.Width(width).Align(lipgloss.Center).Render(hint))
	return b.String()
}
