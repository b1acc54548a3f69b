package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/logger"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear a learner's progress",
	Long: `Clear every lesson completion and score for the learner. The event log
(answers and XP) is kept.`,
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

		eng, err := newEngine(cfg, cat, st, ledger.NewFileStore(cfg.GuestProgressPath()), logger.Nop())
		if err != nil {
			return err
		}

		member, _ := cmd.Flags().GetString("member")
		learner := learnerFlag(cfg, member)
		name := learner.ID
		if learner.Guest {
			name = "the guest"
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fmt.Printf("Reset all progress for %s? [y/N] ", name)
			scanner := bufio.NewScanner(os.Stdin)
			if !scanner.Scan() || strings.ToLower(strings.TrimSpace(scanner.Text())) != "y" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := eng.Reset(cmd.Context(), learner); err != nil {
			return err
		}
		fmt.Printf("Progress for %s cleared.\n", name)
		return nil
	},
}

func init() {
	resetCmd.Flags().String("member", "", "Member to reset (default: saved learner)")
	resetCmd.Flags().BoolP("yes", "y", false, "Don't ask for confirmation")
}
