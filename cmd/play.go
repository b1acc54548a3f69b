package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursiz/internal/app"
	"github.com/abhisek/coursiz/internal/ledger"
	"github.com/abhisek/coursiz/internal/logger"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the course map and play lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlayer(cmd)
	},
}

func init() {
	playCmd.Flags().String("member", "", "Play as this member instead of the saved learner")
}

// runPlayer opens the store, builds the engine, and launches the TUI.
func runPlayer(cmd *cobra.Command) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
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

	eng, err := newEngine(cfg, cat, st, ledger.NewFileStore(cfg.GuestProgressPath()), log)
	if err != nil {
		return err
	}
	// Pending XP awards must land before the store closes.
	defer eng.Wait()

	member, _ := cmd.Flags().GetString("member")
	learner := learnerFlag(cfg, member)
	log.Info("player started", "learner_id", learner.ID, "guest", learner.Guest, "catalog", cat.Version)

	final, err := app.Run(eng, learner)
	if err != nil {
		return err
	}
	if final != learner || member != "" {
		if err := saveLearner(cfg, final); err != nil {
			return fmt.Errorf("remember learner: %w", err)
		}
	}
	return nil
}
