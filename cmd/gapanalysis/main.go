// Command gapanalysis runs the campus counseling gap-analysis pipeline:
// synthetic dataset generation, warehouse aggregation, gap scoring,
// recommendations and report output.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"campus-counseling-gap-analysis/internal/config"
	"campus-counseling-gap-analysis/internal/pipeline"
	"campus-counseling-gap-analysis/internal/report"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gapanalysis",
	Short: "Campus counseling service gap analysis",
	Long: `gapanalysis is a batch pipeline that analyzes university counseling
appointment data for service gaps: demographic utilization, temporal
demand peaks, service adequacy, population equity and staffing needs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Missing .env is fine; real deployments set env directly.
		_ = godotenv.Load()

		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic appointment dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := pipeline.New(cfg, logger)
		count, err := p.Generate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", count, cfg.Paths.Input)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := pipeline.New(cfg, logger)
		r, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}
		report.Print(r, cmd.OutOrStdout())
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload the dataset and output artifacts to GCS",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := pipeline.New(cfg, logger)
		uris, err := p.Upload(cmd.Context())
		if err != nil {
			return err
		}
		for _, uri := range uris {
			fmt.Fprintln(cmd.OutOrStdout(), uri)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(generateCmd, runCmd, uploadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
