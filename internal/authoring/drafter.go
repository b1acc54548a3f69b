// Package authoring drafts lesson cards with a language model. Drafts are
// checked against the card validators before they are offered to an
// author; nothing is written to the catalog automatically.
package authoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/llm"
	"github.com/abhisek/coursiz/internal/logger"
)

// ErrNoUsableCards is returned when every drafted card was rejected.
var ErrNoUsableCards = errors.New("no drafted card passed validation")

// Request describes the cards wanted for one lesson.
type Request struct {
	Lesson      catalog.Lesson
	CourseTitle string

	// Count is how many cards to ask for. Zero means 5.
	Count int

	// Archetypes restricts the card types. Empty allows every type the
	// lesson can run; quizzes never get info cards.
	Archetypes []cards.Archetype

	// Notes is free-form guidance from the author.
	Notes string
}

// Rejection is a drafted card that failed validation.
type Rejection struct {
	Index int
	Type  string
	Err   error
}

// Result holds the accepted cards in catalog file layout and the rejects.
type Result struct {
	Cards    []catalog.CardFile
	Rejected []Rejection
}

// YAML renders the accepted cards ready to paste under a lesson.
func (r Result) YAML() ([]byte, error) {
	return catalog.MarshalCards(r.Cards)
}

// Drafter asks a Provider for cards.
type Drafter struct {
	provider llm.Provider
	cfg      Config
	log      *logger.Logger
}

// New returns a Drafter.
func New(provider llm.Provider, cfg Config, log *logger.Logger) *Drafter {
	if log == nil {
		log = logger.Nop()
	}
	return &Drafter{provider: provider, cfg: cfg, log: log}
}

type pairOutput struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type cardOutput struct {
	Type       string                  `json:"type"`
	Title      string                  `json:"title"`
	Prompt     string                  `json:"prompt"`
	XP         int                     `json:"xp"`
	Body       string                  `json:"body"`
	Options    []string                `json:"options"`
	Answer     int                     `json:"answer"`
	Answers    []int                   `json:"answers"`
	Statements []catalog.StatementFile `json:"statements"`
	Left       []string                `json:"left"`
	Right      []string                `json:"right"`
	Pairs      []pairOutput            `json:"pairs"`
	Items      []string                `json:"items"`
}

type draftOutput struct {
	Cards []cardOutput `json:"cards"`
}

// Draft asks for req.Count cards and validates each one.
func (d *Drafter) Draft(ctx context.Context, req Request) (*Result, error) {
	req, err := d.normalize(req)
	if err != nil {
		return nil, err
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeDraftCards)
	resp, err := d.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(req, d.cfg)}},
		Schema:      CardsSchema,
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: d.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var out draftOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	ids := newIDAllocator(req.Lesson)
	res := &Result{}
	for i, co := range out.Cards {
		file, err := co.toFile(ids.peek(), req.Archetypes)
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Index: i, Type: co.Type, Err: err})
			d.log.Debug("draft card rejected", "lesson_id", req.Lesson.ID, "index", i, "type", co.Type, "error", err)
			continue
		}
		ids.take()
		res.Cards = append(res.Cards, file)
	}

	d.log.Info("drafted cards",
		"lesson_id", req.Lesson.ID,
		"accepted", len(res.Cards),
		"rejected", len(res.Rejected))
	if len(res.Cards) == 0 {
		return res, ErrNoUsableCards
	}
	return res, nil
}

func (d *Drafter) normalize(req Request) (Request, error) {
	if req.Lesson.ID == "" {
		return req, errors.New("lesson id is required")
	}
	if req.Count <= 0 {
		req.Count = 5
	}
	if d.cfg.MaxCards > 0 && req.Count > d.cfg.MaxCards {
		req.Count = d.cfg.MaxCards
	}

	allowed := req.Archetypes
	if len(allowed) == 0 {
		allowed = cards.AllArchetypes()
	}
	if req.Lesson.IsQuiz() {
		allowed = slices.DeleteFunc(slices.Clone(allowed), func(a cards.Archetype) bool { return !a.Graded() })
	}
	if len(allowed) == 0 {
		return req, errors.New("no card types allowed for this lesson")
	}
	req.Archetypes = allowed
	return req, nil
}

// toFile converts a drafted card to file layout and runs the card
// validators on it.
func (co cardOutput) toFile(id string, allowed []cards.Archetype) (catalog.CardFile, error) {
	arch, err := cards.ParseArchetype(co.Type)
	if err != nil {
		return catalog.CardFile{}, err
	}
	if !slices.Contains(allowed, arch) {
		return catalog.CardFile{}, fmt.Errorf("card type %s not allowed here", arch)
	}

	f := catalog.CardFile{ID: id, Type: co.Type, Title: co.Title, Prompt: co.Prompt, XP: co.XP}
	switch arch {
	case cards.ArchetypeInfo:
		f.Body, f.Prompt, f.XP = co.Body, "", 0
	case cards.ArchetypeSingleChoice:
		answer := co.Answer
		f.Options, f.Answer = co.Options, &answer
	case cards.ArchetypeMultiSelect:
		f.Options, f.Answers = co.Options, co.Answers
	case cards.ArchetypeTrueFalse:
		f.Statements = co.Statements
	case cards.ArchetypeMatching:
		f.Left, f.Right = co.Left, co.Right
		f.Pairs = make(map[string]string, len(co.Pairs))
		for _, p := range co.Pairs {
			if _, dup := f.Pairs[p.Left]; dup {
				return catalog.CardFile{}, fmt.Errorf("left item %q paired twice", p.Left)
			}
			f.Pairs[p.Left] = p.Right
		}
	case cards.ArchetypeOrdering:
		f.Items = co.Items
	}

	card, err := f.ToCard()
	if err != nil {
		return catalog.CardFile{}, err
	}
	if err := card.Validate(); err != nil {
		return catalog.CardFile{}, err
	}
	return f, nil
}

// idAllocator hands out "<lesson>-d<n>" ids that don't collide with the
// lesson's existing cards.
type idAllocator struct {
	prefix string
	used   map[string]bool
	next   int
}

func newIDAllocator(l catalog.Lesson) *idAllocator {
	a := &idAllocator{prefix: l.ID + "-d", used: make(map[string]bool, len(l.Cards)), next: 1}
	for _, c := range l.Cards {
		a.used[c.ID] = true
	}
	return a
}

func (a *idAllocator) peek() string {
	for a.used[a.candidate()] {
		a.next++
	}
	return a.candidate()
}

func (a *idAllocator) take() {
	a.used[a.peek()] = true
	a.next++
}

func (a *idAllocator) candidate() string {
	return fmt.Sprintf("%s%d", a.prefix, a.next)
}
