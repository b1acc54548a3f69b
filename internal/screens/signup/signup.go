// Package signup turns a terminal guest into a member. The guest's progress
// is copied over so nothing already completed is lost.
package signup

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursiz/internal/engine"
	"github.com/abhisek/coursiz/internal/router"
	"github.com/abhisek/coursiz/internal/screen"
	"github.com/abhisek/coursiz/internal/ui/components"
	"github.com/abhisek/coursiz/internal/ui/layout"
	"github.com/abhisek/coursiz/internal/ui/theme"
)

// SignedUpMsg is delivered to the screen underneath after a successful
// sign-up.
type SignedUpMsg struct {
	Learner engine.Learner
	Copied  int
}

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{1,31}$`)

// ValidateName checks a member name: 2-32 lowercase letters, digits, dots,
// dashes or underscores, starting with a letter or digit.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name is required")
	}
	if !namePattern.MatchString(name) {
		return errors.New("use 2-32 letters, digits, '.', '-' or '_'")
	}
	return nil
}

// SignupScreen asks the guest for a member name.
type SignupScreen struct {
	eng    *engine.Engine
	guest  engine.Learner
	reason string
	input  components.TextInput
	errMsg string
}

var _ screen.Screen = (*SignupScreen)(nil)
var _ screen.KeyHintProvider = (*SignupScreen)(nil)

// New creates a SignupScreen. reason explains what triggered it, for
// example the lesson the guest tried to open.
func New(eng *engine.Engine, guest engine.Learner, reason string) *SignupScreen {
	return &SignupScreen{
		eng:    eng,
		guest:  guest,
		reason: reason,
		input: components.NewTextInput("your-name", 32, func(v string) error {
			return ValidateName(strings.ToLower(v))
		}),
	}
}

func (s *SignupScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *SignupScreen) Title() string {
	return "Sign Up"
}

func (s *SignupScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Sign up"},
		{Key: "Esc", Description: "Not now"},
	}
}

func (s *SignupScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && kmsg.String() == "enter" {
		return s.submit()
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *SignupScreen) submit() (screen.Screen, tea.Cmd) {
	raw, ok := s.input.Submit()
	if !ok {
		return s, nil
	}
	member := engine.Member(strings.ToLower(raw))
	copied, err := s.eng.Promote(context.Background(), s.guest, member)
	if err != nil {
		s.errMsg = fmt.Sprintf("Sign-up failed: %v", err)
		return s, nil
	}
	return s, tea.Sequence(
		func() tea.Msg { return router.PopScreenMsg{} },
		func() tea.Msg { return SignedUpMsg{Learner: member, Copied: copied} },
	)
}

func (s *SignupScreen) View(width, height int) string {
	center := func(style lipgloss.Style, text string) string {
		return style.Width(width).Align(lipgloss.Center).Render(text) + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), "Sign up to keep going"))
	b.WriteString("\n")
	if s.reason != "" {
		b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Text), s.reason))
	}
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim),
		"Guests can try the first few lessons. Members unlock the whole catalog,\nand the lessons you've finished come with you."))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, "Name: "+s.input.View()))
	b.WriteString("\n")
	if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Error), s.errMsg))
	}
	return b.String()
}
