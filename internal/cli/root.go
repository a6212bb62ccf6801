package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"TabSorter/internal/app"
	"TabSorter/internal/config"
	"TabSorter/internal/logging"
)

var (
	cfgPath  string
	isDebug  bool
	provider string
)

var rootCmd = &cobra.Command{
	Use:   "tabsorter",
	Short: "Sort browser tabs into category groups",
	Long: `tabsorter classifies the tabs of a browser window into a fixed set of
categories using domain rules, a confidence-weighted cache and an optional
remote classifier, then prints or publishes the resulting groups.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (defaults to $TABSORTER_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "remote classifier: none, openai, anthropic, gemini or service")
}

func loadConfig() config.Config {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfgPath != "" {
		cfg = config.LoadFile(cfgPath)
	}
	if outputFormat != "" {
		cfg.Sink.Format = outputFormat
	}
	if isDebug {
		cfg.Logging.Level = "debug"
	}
	if provider != "" {
		cfg.Provider = provider
	}
	return cfg
}

// setup loads configuration and builds the application. Logs go to stderr;
// out receives the groupings.
func setup(ctx context.Context, out io.Writer) (*app.Application, *slog.Logger, error) {
	cfg := loadConfig()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	application, err := app.New(ctx, cfg, logger, out)
	if err != nil {
		return nil, logger, fmt.Errorf("initialize: %w", err)
	}
	return application, logger, nil
}

func closeApp(logger *slog.Logger, a *app.Application) {
	if err := a.Close(); err != nil {
		logger.Warn("close store", "error", err)
	}
}
