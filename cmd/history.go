package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/khanhnv2901/cyberaudit/internal/history"
	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past scans, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		rawFormat, _ := cmd.Flags().GetString("format")
		format, err := parseOutputFormat(rawFormat)
		if err != nil {
			return err
		}

		repo, err := openHistory(cliConfig.History, resultsDir)
		if err != nil {
			return err
		}
		defer repo.Close()

		return runHistory(cmd.Context(), cmd.OutOrStdout(), repo, limit, format)
	},
}

func runHistory(ctx context.Context, w io.Writer, repo history.Repository, limit int, format string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	entries, err := repo.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if format != formatTable {
		return writeStructured(w, format, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, colorInfo("No scans recorded yet."))
		return nil
	}
	return writeHistoryTable(w, entries)
}

func writeHistoryTable(w io.Writer, entries []history.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDOMAIN\tSCORE\tRATING\tSCANNED AT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			e.ID,
			e.Result.Domain,
			e.Result.Score,
			formatRating(e.Result.Rating),
			e.Result.ScannedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}
	return tw.Flush()
}

func init() {
	historyCmd.Flags().Int("limit", constants.DefaultHistoryLimit, "Maximum number of scans to list (0 = all)")
	historyCmd.Flags().String("format", formatTable, "Output format: table, json or yaml")
}
