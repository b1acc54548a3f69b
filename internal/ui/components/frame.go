package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursiz/internal/ui/theme"
)

// ContentWidth returns the inner width used for card bodies: the frame
// width minus border and padding, kept between 30 and 72 columns.
func ContentWidth(frameWidth int) int {
	return min(max(frameWidth-8, 30), 72)
}

// CardFrame wraps a card body in a rounded border with its title on top,
// centered in width columns.
func CardFrame(title, body string, width int) string {
	cw := ContentWidth(width)
	content := body
	if title != "" {
		content = theme.Title.Width(cw).Render(title) + "\n\n" + body
	}
	box := theme.CardBox.Width(cw + 4).Render(content)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}
