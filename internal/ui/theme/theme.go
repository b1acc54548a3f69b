// Package theme holds the player's palette and shared styles.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette. Calm on dark terminals; green and rose are kept for answer
// feedback and amber for XP and members-only content.
var (
	Primary   = lipgloss.Color("#6366F1") // indigo
	Secondary = lipgloss.Color("#0EA5E9") // sky
	Accent    = lipgloss.Color("#F59E0B") // amber
	Success   = lipgloss.Color("#22C55E")
	Error     = lipgloss.Color("#F43F5E")
	Text      = lipgloss.Color("#F8FAFC")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

var (
	// Title is a card or screen heading.
	Title = lipgloss.NewStyle().Bold(true).Foreground(Primary).Align(lipgloss.Center)

	Hint = lipgloss.NewStyle().Foreground(TextDim).Italic(true)
	XP   = lipgloss.NewStyle().Foreground(Accent).Bold(true)

	// Bar frames the header and footer.
	Bar = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border)

	// CardBox frames the active card.
	CardBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// Course map row states.
var (
	Selected   = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Unselected = lipgloss.NewStyle().Foreground(Text)
	Locked     = lipgloss.NewStyle().Foreground(TextDim)
	Completed  = lipgloss.NewStyle().Foreground(Success)
	Members    = lipgloss.NewStyle().Foreground(Accent)
)

// Answer feedback.
var (
	Correct   = lipgloss.NewStyle().Foreground(Success).Bold(true)
	Incorrect = lipgloss.NewStyle().Foreground(Error).Bold(true)
)

var (
	ProgressFilled = lipgloss.NewStyle().Background(Secondary)
	ProgressEmpty  = lipgloss.NewStyle().Background(Border)

	ButtonActive = lipgloss.NewStyle().
			Background(Primary).
			Foreground(Text).
			Bold(true).
			Padding(0, 2)
	ButtonInactive = lipgloss.NewStyle().
			Background(BgCard).
			Foreground(TextDim).
			Padding(0, 2)
)
