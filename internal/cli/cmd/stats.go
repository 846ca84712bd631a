package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cloudclass/internal/api"
	"cloudclass/internal/util/format"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "stats <file-id>",
		Short:         "Print classification statistics for a finished job",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(viper.GetString("server_url"))
			stats, err := client.Stats(cmd.Context(), args[0])
			if err != nil {
				return &ExitError{Code: ExitServiceError, Err: err}
			}
			printStatsTable(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func printStatsTable(w io.Writer, stats api.Stats) {
	fmt.Fprintf(w, "File ID:          %s\n", stats.FileID)
	fmt.Fprintf(w, "Total points:     %s\n", format.Count(stats.TotalPoints))
	fmt.Fprintf(w, "Input file size:  %s\n", format.MB(stats.InputFileSizeMB))
	fmt.Fprintf(w, "Output file size: %s\n", format.MB(stats.OutputFileSizeMB))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-20s %14s %10s\n", "Class", "Points", "Share")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 46))
	for _, c := range stats.Classes {
		fmt.Fprintf(w, "%-20s %14s %10s\n", c.Name, format.Count(c.Points), format.Percent(c.Percentage))
	}
}
