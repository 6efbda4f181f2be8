package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-packs/pkg/simplepacks/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "packs",
	Short:   "Sound pack registration service",
	Long: `packs accepts multipart sound pack submissions, stores the six assets
in an S3-compatible bucket and records the pack in Postgres.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		setupLogging(cfg)
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file read when ENV=dev")
	rootCmd.SetUsageTemplate(rootCmd.UsageTemplate() + "\n" + config.Usage() + "\n")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
