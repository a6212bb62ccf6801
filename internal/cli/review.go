package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List low-confidence assignments queued for review",
	Args:  cobra.NoArgs,
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application, logger, err := setup(ctx, nil)
	if err != nil {
		return err
	}
	defer closeApp(logger, application)

	items, err := application.ReviewItems(ctx)
	if err != nil {
		logger.Error("load review queue", "error", err)
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "review queue is empty")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "QUEUED\tCATEGORY\tCONF\tSOURCE\tTITLE\tURL")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
			time.UnixMilli(item.Timestamp).Format(time.DateTime),
			item.Category,
			item.Confidence,
			item.Source,
			item.Title,
			item.URL,
		)
	}
	return w.Flush()
}
