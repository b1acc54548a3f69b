package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/coursiz/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "coursiz",
	Short: "Lessons and quizzes in your terminal",
	Long:  "Coursiz plays card-based lessons and auto-advancing quizzes, unlocking courses as you finish them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlayer(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite path (overrides COURSIZ_DB)")
	rootCmd.PersistentFlags().String("catalog", "", "Catalog YAML file (overrides COURSIZ_CATALOG)")
	rootCmd.Flags().String("member", "", "Play as this member instead of the saved learner")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(authorCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfig reads the environment and applies the persistent flags,
// which take priority.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBDSN = p
		if cfg.DBDriver == "sqlite" {
			if err := config.EnsureDir(p); err != nil {
				return config.Config{}, err
			}
		}
	}
	if p, _ := cmd.Flags().GetString("catalog"); p != "" {
		cfg.CatalogPath = p
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
