// Package app is the root Bubble Tea model of the terminal player.
package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursiz/internal/engine"
	"github.com/abhisek/coursiz/internal/router"
	"github.com/abhisek/coursiz/internal/screen"
	"github.com/abhisek/coursiz/internal/screens/coursemap"
	"github.com/abhisek/coursiz/internal/screens/signup"
	"github.com/abhisek/coursiz/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	width   int
	height  int
	status  layout.Status
	learner engine.Learner
}

// newAppModel creates a new AppModel rooted at the course map.
func newAppModel(eng *engine.Engine, learner engine.Learner) AppModel {
	return AppModel{
		router:  router.New(coursemap.New(eng, learner)),
		learner: learner,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case screen.StatusMsg:
		m.status = layout.Status(msg)
		return m, nil

	case signup.SignedUpMsg:
		m.learner = msg.Learner

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if g, ok := m.router.Active().(screen.BackGuard); ok && g.GuardBack() {
				break
			}
			if m.router.Depth() > 1 {
				return m, tea.Sequence(
					func() tea.Msg { return router.PopScreenMsg{} },
					func() tea.Msg { return screen.ProgressChangedMsg{} },
				)
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// Learner returns the learner currently playing, which changes after a
// guest signs up.
func (m AppModel) Learner() engine.Learner {
	return m.learner
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status, m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(m.height-headerHeight-footerHeight, 0)

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program and returns the learner at exit.
func Run(eng *engine.Engine, learner engine.Learner) (engine.Learner, error) {
	p := tea.NewProgram(newAppModel(eng, learner))
	final, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return learner, err
	}
	if m, ok := final.(AppModel); ok {
		return m.learner, nil
	}
	return learner, nil
}
