package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file|url>",
	Short: "Re-classify a tab export whenever it changes",
	Long: `Classifies the export once, then again on every change of a local file
(schedule.watchFile) or on every schedule.interval tick. Prometheus metrics
are served on metrics.addr when set.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	addSourceFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, logger, err := setup(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeApp(logger, application)

	format, location, options := sourceArgs(args[0])
	source := application.Source(location, format, windowID, options)

	if err := application.Watch(ctx, windowID, location, source); err != nil {
		logger.Error("watch stopped", "error", err)
		return err
	}
	logger.Info("watch stopped")
	return nil
}
