package summary

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/quiz"
	"github.com/abhisek/coursiz/internal/router"
	"github.com/abhisek/coursiz/internal/screen"
	"github.com/abhisek/coursiz/internal/sequencer"
	"github.com/abhisek/coursiz/internal/ui/components"
	"github.com/abhisek/coursiz/internal/ui/layout"
	"github.com/abhisek/coursiz/internal/ui/theme"
)

// Result is what the summary shows for a finished lesson or quiz.
type Result struct {
	LessonTitle string
	Quiz        bool

	Correct int
	Graded  int
	Score   *int

	CardXP  int
	Bonus   int
	TotalXP int

	NextLessonID string

	// AlreadyCompleted marks a quiz opened after it was taken; only the
	// stored score is known.
	AlreadyCompleted bool

	// Warning is set when the result could not be saved.
	Warning string
}

// FromLesson builds a Result from a finished card sequence.
func FromLesson(l catalog.Lesson, out sequencer.Outcome) Result {
	r := Result{
		LessonTitle:  l.Title,
		Correct:      out.Result.Correct,
		Graded:       out.Result.Graded,
		Score:        out.Result.Score,
		CardXP:       out.Result.CardXP,
		Bonus:        out.Result.Bonus,
		TotalXP:      out.Result.TotalXP,
		NextLessonID: out.NextLessonID,
	}
	if out.Err != nil {
		r.Warning = "Progress could not be saved: " + out.Err.Error()
	}
	return r
}

// FromQuiz builds a Result from a quiz result.
func FromQuiz(l catalog.Lesson, res quiz.Result) Result {
	s := res.Score
	r := Result{
		LessonTitle:      l.Title,
		Quiz:             true,
		Correct:          res.Correct,
		Graded:           res.Total,
		Score:            &s,
		TotalXP:          res.TotalXP,
		NextLessonID:     res.NextLessonID,
		AlreadyCompleted: res.Stored,
	}
	if res.Err != nil {
		r.Warning = "Progress could not be saved: " + res.Err.Error()
	}
	return r
}

// SummaryScreen displays the result of a lesson or quiz.
type SummaryScreen struct {
	result Result
	menu   components.Menu
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(r Result) *SummaryScreen {
	next := r.NextLessonID
	return &SummaryScreen{
		result: r,
		menu: components.NewMenu([]components.MenuItem{
			{
				Label:    "Next lesson",
				Disabled: next == "",
				Action: func() tea.Cmd {
					return leave(func() tea.Msg { return screen.OpenLessonMsg{LessonID: next} })
				},
			},
			{
				Label:  "Course map",
				Action: func() tea.Cmd { return leave() },
			},
		}),
	}
}

// leave pops the summary, refreshes the screen underneath, then runs then.
func leave(then ...tea.Cmd) tea.Cmd {
	cmds := []tea.Cmd{
		func() tea.Msg { return router.PopScreenMsg{} },
		func() tea.Msg { return screen.ProgressChangedMsg{} },
	}
	return tea.Sequence(append(cmds, then...)...)
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	if s.result.Quiz {
		return "Quiz Results"
	}
	return "Lesson Complete"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Esc", Description: "Course map"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *SummaryScreen) View(width, height int) string {
	r := s.result
	center := func(style lipgloss.Style, text string) string {
		return style.Width(width).Align(lipgloss.Center).Render(text) + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")

	heading := "Lesson complete!"
	switch {
	case r.AlreadyCompleted:
		heading = "You already took this quiz"
	case r.Quiz:
		heading = "Quiz complete!"
	}
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), heading))
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim), r.LessonTitle))
	b.WriteString("\n")

	if r.Score != nil {
		b.WriteString(center(lipgloss.NewStyle().Foreground(scoreColor(*r.Score)).Bold(true),
			fmt.Sprintf("Score: %d%%", *r.Score)))
	}
	if r.Graded > 0 && !r.AlreadyCompleted {
		b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Text),
			fmt.Sprintf("%d of %d correct", r.Correct, r.Graded)))
		bar := components.NewProgressBar("", r.Correct, r.Graded, min(width-8, 40))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
		b.WriteString("\n")
	}

	if r.TotalXP > 0 {
		b.WriteString("\n")
		xp := fmt.Sprintf("+%d XP", r.TotalXP)
		if r.Bonus > 0 {
			xp += fmt.Sprintf("  (%d from cards, %d completion bonus)", r.CardXP, r.Bonus)
		}
		b.WriteString(center(theme.XP, xp))
	}

	if r.Warning != "" {
		b.WriteString("\n")
		b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Error), r.Warning))
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.menu.View()))
	return b.String()
}

// scoreColor returns the theme color for a percentage score.
func scoreColor(score int) color.Color {
	switch {
	case score >= 80:
		return theme.Success
	case score >= 50:
		return theme.Accent
	default:
		return theme.Error
	}
}
