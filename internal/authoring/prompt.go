package authoring

import (
	"fmt"
	"strings"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/catalog"
)

const systemPrompt = `You are an instructional designer writing cards for a self-paced online course.

Rules:
- Write the requested number of cards for the lesson described. Keep them in teaching order.
- Only use the card types listed as allowed.
- Info cards explain one idea in 2 to 4 sentences in "body". Leave "prompt" empty.
- single-choice: 3 or 4 options, exactly one correct, "answer" is its zero-based index.
- multi-select: 4 or 5 options, at least one correct, "answers" lists the zero-based indices.
- true-false: 2 to 4 statements, each marked true or false.
- matching: 3 or 4 pairs. "left" and "right" have the same length, every right item is used once, and "pairs" gives the correct pairing using the exact strings.
- ordering: 3 to 6 items listed in their correct order. Make the order unambiguous.
- Distractors should reflect real misconceptions, not nonsense.
- Leave every field that does not apply to a card's type empty (empty string, empty list or 0).
- Do not repeat any card listed under "Existing cards".`

// buildUserMessage describes the lesson and what to draft.
func buildUserMessage(req Request, cfg Config) string {
	var b strings.Builder

	if req.CourseTitle != "" {
		fmt.Fprintf(&b, "Course: %s\n", req.CourseTitle)
	}
	fmt.Fprintf(&b, "Lesson: %s\n", lessonTitle(req.Lesson))
	fmt.Fprintf(&b, "Lesson type: %s\n", req.Lesson.ContentType)
	fmt.Fprintf(&b, "Cards to write: %d\n", req.Count)

	names := make([]string, len(req.Archetypes))
	for i, a := range req.Archetypes {
		names[i] = string(a)
	}
	fmt.Fprintf(&b, "Allowed card types: %s\n", strings.Join(names, ", "))

	if req.Notes != "" {
		b.WriteString("\nAuthor notes:\n")
		b.WriteString(req.Notes)
		b.WriteString("\n")
	}

	b.WriteString("\nExisting cards:\n")
	b.WriteString(describeExisting(req.Lesson.Cards, cfg.MaxExisting))
	return b.String()
}

func lessonTitle(l catalog.Lesson) string {
	if l.Title != "" {
		return l.Title
	}
	return l.ID
}

// describeExisting lists the most recent max cards, one per line.
func describeExisting(cs []cards.Card, max int) string {
	if len(cs) == 0 {
		return "None"
	}
	if max > 0 && len(cs) > max {
		cs = cs[len(cs)-max:]
	}

	var b strings.Builder
	for i, c := range cs {
		text := c.Prompt
		if text == "" {
			text = c.Title
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, c.Archetype(), text)
	}
	return strings.TrimRight(b.String(), "\n")
}
