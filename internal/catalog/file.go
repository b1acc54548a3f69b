package catalog

import (
	"fmt"

	"github.com/abhisek/coursiz/internal/cards"
)

// File is the on-disk YAML layout of a catalog.
type File struct {
	Version string       `yaml:"version" json:"version"`
	Courses []CourseFile `yaml:"courses" json:"courses"`
}

// CourseFile is one course entry in a catalog file.
type CourseFile struct {
	ID      string       `yaml:"id" json:"id"`
	Order   int          `yaml:"order" json:"order"`
	Title   string       `yaml:"title" json:"title"`
	Lessons []LessonFile `yaml:"lessons" json:"lessons"`
}

// LessonFile is one lesson entry in a catalog file.
type LessonFile struct {
	ID      string     `yaml:"id" json:"id"`
	Order   int        `yaml:"order" json:"order"`
	Title   string     `yaml:"title" json:"title"`
	Type    string     `yaml:"type" json:"type"`
	HasQuiz bool       `yaml:"has_quiz,omitempty" json:"has_quiz,omitempty"`
	Bonus   int        `yaml:"bonus,omitempty" json:"bonus,omitempty"`
	Cards   []CardFile `yaml:"cards" json:"cards"`
}

// CardFile is the flattened representation of every card archetype. Only
// the fields relevant to Type are populated.
type CardFile struct {
	ID     string `yaml:"id" json:"id"`
	Type   string `yaml:"type" json:"type"`
	Title  string `yaml:"title,omitempty" json:"title,omitempty"`
	Prompt string `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	XP     int    `yaml:"xp,omitempty" json:"xp,omitempty"`

	Body       string            `yaml:"body,omitempty" json:"body,omitempty"`
	Options    []string          `yaml:"options,omitempty" json:"options,omitempty"`
	Answer     *int              `yaml:"answer,omitempty" json:"answer,omitempty"`
	Answers    []int             `yaml:"answers,omitempty" json:"answers,omitempty"`
	Statements []StatementFile   `yaml:"statements,omitempty" json:"statements,omitempty"`
	Left       []string          `yaml:"left,omitempty" json:"left,omitempty"`
	Right      []string          `yaml:"right,omitempty" json:"right,omitempty"`
	Pairs      map[string]string `yaml:"pairs,omitempty" json:"pairs,omitempty"`
	Items      []string          `yaml:"items,omitempty" json:"items,omitempty"`
}

// StatementFile is one true/false statement.
type StatementFile struct {
	Text  string `yaml:"text" json:"text"`
	Truth bool   `yaml:"truth" json:"truth"`
}

// ToCourses converts the file layout into catalog courses.
func (f File) ToCourses() ([]Course, error) {
	courses := make([]Course, 0, len(f.Courses))
	for _, cf := range f.Courses {
		c := Course{ID: cf.ID, Order: cf.Order, Title: cf.Title}
		for _, lf := range cf.Lessons {
			l := Lesson{
				ID:          lf.ID,
				CourseID:    cf.ID,
				Order:       lf.Order,
				Title:       lf.Title,
				ContentType: ContentType(lf.Type),
				HasQuiz:     lf.HasQuiz,
				Bonus:       lf.Bonus,
			}
			if l.ContentType == "" {
				l.ContentType = ContentLesson
			}
			for _, kf := range lf.Cards {
				card, err := kf.ToCard()
				if err != nil {
					return nil, fmt.Errorf("lesson %q: %w", lf.ID, err)
				}
				l.Cards = append(l.Cards, card)
			}
			c.Lessons = append(c.Lessons, l)
		}
		courses = append(courses, c)
	}
	return courses, nil
}

// ToCard converts a card entry into a cards.Card.
func (f CardFile) ToCard() (cards.Card, error) {
	arch, err := cards.ParseArchetype(f.Type)
	if err != nil {
		return cards.Card{}, fmt.Errorf("card %q: %w", f.ID, err)
	}

	card := cards.Card{ID: f.ID, Title: f.Title, Prompt: f.Prompt, XP: f.XP}
	switch arch {
	case cards.ArchetypeInfo:
		card.Spec = cards.Info{Body: f.Body}
	case cards.ArchetypeSingleChoice:
		if f.Answer == nil {
			return cards.Card{}, fmt.Errorf("card %q: single-choice requires answer", f.ID)
		}
		card.Spec = cards.SingleChoice{Options: f.Options, Correct: *f.Answer}
	case cards.ArchetypeMultiSelect:
		card.Spec = cards.MultiSelect{Options: f.Options, Correct: f.Answers}
	case cards.ArchetypeTrueFalse:
		stmts := make([]cards.Statement, len(f.Statements))
		for i, s := range f.Statements {
			stmts[i] = cards.Statement{Text: s.Text, Truth: s.Truth}
		}
		card.Spec = cards.TrueFalse{Statements: stmts}
	case cards.ArchetypeMatching:
		card.Spec = cards.Matching{Left: f.Left, Right: f.Right, Pairs: f.Pairs}
	case cards.ArchetypeOrdering:
		card.Spec = cards.Ordering{Items: f.Items}
	}
	return card, nil
}

// CardToFile converts a card back into its file layout.
func CardToFile(c cards.Card) CardFile {
	f := CardFile{ID: c.ID, Type: string(c.Archetype()), Title: c.Title, Prompt: c.Prompt, XP: c.XP}
	switch s := c.Spec.(type) {
	case cards.Info:
		f.Body = s.Body
	case cards.SingleChoice:
		answer := s.Correct
		f.Options, f.Answer = s.Options, &answer
	case cards.MultiSelect:
		f.Options, f.Answers = s.Options, s.Correct
	case cards.TrueFalse:
		for _, st := range s.Statements {
			f.Statements = append(f.Statements, StatementFile{Text: st.Text, Truth: st.Truth})
		}
	case cards.Matching:
		f.Left, f.Right, f.Pairs = s.Left, s.Right, s.Pairs
	case cards.Ordering:
		f.Items = s.Items
	}
	return f
}
