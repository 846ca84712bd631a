package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cloudclass/internal/api"
	"cloudclass/internal/report"
	"cloudclass/internal/util"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "report <file-id>",
		Short:         "Fetch statistics and write the CSV report",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir := filepath.Clean(viper.GetString("out_dir"))
			if err := util.EnsureDir(outDir); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}

			client := api.NewClient(viper.GetString("server_url"))
			stats, err := client.Stats(cmd.Context(), args[0])
			if err != nil {
				return &ExitError{Code: ExitServiceError, Err: err}
			}

			path, err := report.Write(outDir, stats)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report saved: %s\n", path)
			return nil
		},
	}
}
