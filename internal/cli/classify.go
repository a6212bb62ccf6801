package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"TabSorter/internal/infrastructure/parser"
)

var (
	inputFormat  string
	windowID     string
	folder       string
	outputFormat string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file|url>",
	Short: "Classify one window of tabs and print the groups",
	Long: `Reads a tab export (JSON, YAML or a bookmarks HTML file), classifies
every tab and prints the consolidated groups. The input may be prefixed with
its format, e.g. json:tabs.txt.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	addSourceFlags(classifyCmd)
	classifyCmd.Flags().StringVarP(&outputFormat, "output", "o", "", "output format: text or json")
	rootCmd.AddCommand(classifyCmd)
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&inputFormat, "format", "", "input format: json, yaml or html (default by extension)")
	cmd.Flags().StringVar(&windowID, "window", "1", "window to classify when the export holds several")
	cmd.Flags().StringVar(&folder, "folder", "", "bookmark folder to read from an HTML export")
}

func sourceArgs(arg string) (format, location string, options map[string]string) {
	format, location = parser.SplitFormat(arg)
	if inputFormat != "" {
		format = inputFormat
	}
	if folder != "" {
		options = map[string]string{"folder": folder}
	}
	return format, location, options
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, logger, err := setup(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeApp(logger, application)

	format, location, options := sourceArgs(args[0])
	source := application.Source(location, format, windowID, options)

	out, err := application.Organize(ctx, windowID, source)
	if err != nil {
		logger.Error("classify failed", "error", err)
		return err
	}
	if ctx.Err() != nil {
		logger.Warn("run interrupted, unresolved tabs fell back to local rules")
	}
	logger.Debug("classified window",
		"window", out.WindowID,
		"tabs", out.Stats.Total,
		"groups", len(out.Consolidated),
		"remote", out.RemoteContributed,
	)
	return nil
}

