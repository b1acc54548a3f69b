package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/logger"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		member, _ := cmd.Flags().GetString("member")
		learner := learnerFlag(cfg, member)

		ctx := context.Background()
		stats, err := st.EventRepo().Stats(ctx, learner.ID)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}
		// Terminal guests keep their ledger in a file, not the store.
		if learner.Guest {
			progress := ledger.Read(ctx, ledger.NewFileStore(cfg.GuestProgressPath()), learner.ID, logger.Nop())
			stats.LessonsCompleted = 0
			for _, e := range progress.Entries() {
				if e.Completed {
					stats.LessonsCompleted++
				}
			}
		}

		name := learner.ID
		if learner.Guest {
			name = "guest"
		}
		fmt.Printf("Learner:    %s\n", name)
		fmt.Println(strings.Repeat("─", 32))
		fmt.Printf("Lessons:    %d / %d\n", stats.LessonsCompleted, len(cat.Lessons()))
		fmt.Printf("XP:         %d\n", stats.TotalXP)
		fmt.Printf("Answers:    %d\n", stats.Answers)
		fmt.Printf("Accuracy:   %d%%\n", stats.Accuracy())
		return nil
	},
}

func init() {
	statsCmd.Flags().String("member", "", "Member to report on (default: saved learner)")
}
