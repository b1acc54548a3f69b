package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursiz/internal/authoring"
	"github.com/abhisek/coursiz/internal/cards"
	"github.com/abhisek/coursiz/internal/catalog"
	"github.com/abhisek/coursiz/internal/llm"
	"github.com/abhisek/coursiz/internal/logger"
)

var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Draft cards for a lesson with an LLM",
	Long: `Ask the configured LLM provider for draft cards for one lesson.

Drafts are checked by the card validators; the ones that pass are printed as
YAML ready to paste under the lesson's cards. Nothing is written to the catalog.`,
	RunE: runAuthor,
}

func init() {
	authorCmd.Flags().String("lesson", "", "Lesson ID or title (required)")
	authorCmd.Flags().Int("count", 5, "Number of cards to draft")
	authorCmd.Flags().StringSlice("types", nil, "Card types to allow (e.g. single-choice,ordering)")
	authorCmd.Flags().String("notes", "", "Extra guidance for the model")
	_ = authorCmd.MarkFlagRequired("lesson")
}

func runAuthor(cmd *cobra.Command, args []string) error {
	lessonVal, _ := cmd.Flags().GetString("lesson")
	count, _ := cmd.Flags().GetInt("count")
	typeVals, _ := cmd.Flags().GetStringSlice("types")
	notes, _ := cmd.Flags().GetString("notes")

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	lesson, err := resolveLesson(cat, lessonVal)
	if err != nil {
		return err
	}
	course, _ := cat.Course(lesson.CourseID)

	var archetypes []cards.Archetype
	for _, t := range typeVals {
		a, err := cards.ParseArchetype(strings.TrimSpace(t))
		if err != nil {
			return err
		}
		archetypes = append(archetypes, a)
	}

	log, err := logger.New(logger.Options{Mode: cfg.LogMode, Path: cfg.LogPath(), Debug: cfg.LogDebug})
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	provider, err := llm.NewProvider(ctx, llm.ConfigFromEnv(), st.EventRepo(), log)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Lesson: %s: %s (%s, %d cards)\n", lesson.ID, lesson.Title, lesson.ContentType, len(lesson.Cards))
	fmt.Fprintf(os.Stderr, "Drafting with %s...\n", provider.ModelID())

	res, err := authoring.New(provider, authoring.DefaultConfig(), log).Draft(ctx, authoring.Request{
		Lesson:      lesson,
		CourseTitle: course.Title,
		Count:       count,
		Archetypes:  archetypes,
		Notes:       notes,
	})
	if res != nil {
		for _, r := range res.Rejected {
			fmt.Fprintf(os.Stderr, "✗ draft %d (%s) rejected: %v\n", r.Index+1, r.Type, r.Err)
		}
	}
	if errors.Is(err, authoring.ErrNoUsableCards) {
		return fmt.Errorf("all %d drafts were rejected", len(res.Rejected))
	}
	if err != nil {
		return err
	}

	out, err := res.YAML()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ %d cards accepted\n\n", len(res.Cards))
	_, err = os.Stdout.Write(out)
	return err
}

// resolveLesson finds a lesson by ID first, then by case-insensitive title.
func resolveLesson(cat *catalog.Catalog, val string) (catalog.Lesson, error) {
	if l, ok := cat.Lesson(val); ok {
		return l, nil
	}

	var matches []catalog.Lesson
	for _, l := range cat.Lessons() {
		if strings.EqualFold(l.Title, val) {
			matches = append(matches, l)
		}
	}

	switch len(matches) {
	case 0:
		return catalog.Lesson{}, fmt.Errorf("no lesson found for %q", val)
	case 1:
		return matches[0], nil
	default:
		var ids []string
		for _, l := range matches {
			ids = append(ids, l.ID)
		}
		return catalog.Lesson{}, fmt.Errorf("multiple lessons titled %q: %s; use --lesson with a specific ID",
			val, strings.Join(ids, ", "))
	}
}
