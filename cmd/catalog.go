package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursiz/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and check course catalogs",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List courses and lessons (optionally one course)",
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, _ := cmd.Flags().GetString("course")

		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		courses := cat.Courses
		if courseID != "" {
			c, ok := cat.Course(courseID)
			if !ok {
				return fmt.Errorf("no course found for %q", courseID)
			}
			courses = []catalog.Course{c}
		}

		// Header.
		fmt.Printf("%4s  %-24s  %-36s  %-8s  %5s  %6s\n",
			"#", "ID", "Title", "Type", "Cards", "Graded")
		fmt.Println(strings.Repeat("─", 92))

		for _, c := range courses {
			fmt.Printf("\n%s (%s)\n", strings.ToUpper(c.Title), c.ID)
			for _, l := range c.Lessons {
				title := l.Title
				if len(title) > 36 {
					title = title[:33] + "..."
				}
				fmt.Printf("%4d  %-24s  %-36s  %-8s  %5d  %6d\n",
					cat.Position(l.ID), l.ID, title, l.ContentType, len(l.Cards), l.GradedCount())
			}
		}

		fmt.Printf("\n%d courses, %d lessons, %d cards (catalog %s)\n",
			len(cat.Courses), len(cat.Lessons()), cat.CardCount(), cat.Version)
		return nil
	},
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a catalog file against the schema and catalog rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(args[0])
		if err != nil {
			var verr *catalog.ValidationError
			if errors.As(err, &verr) {
				fmt.Printf("✗ %s: %d problems\n", args[0], len(verr.Problems))
				for _, p := range verr.Problems {
					fmt.Printf("  - %s\n", p)
				}
				return fmt.Errorf("catalog is invalid")
			}
			fmt.Printf("✗ %v\n", err)
			return fmt.Errorf("catalog is invalid")
		}

		fmt.Printf("✓ %s: catalog %s, %d courses, %d lessons, %d cards\n",
			args[0], cat.Version, len(cat.Courses), len(cat.Lessons()), cat.CardCount())
		return nil
	},
}

func init() {
	catalogListCmd.Flags().String("course", "", "Only list this course")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogCheckCmd)
}
