package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cloudclass/internal/api"
	"cloudclass/internal/util"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "download <file-id>",
		Short:         "Download the classified LAS for a finished job",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir := filepath.Clean(viper.GetString("out_dir"))
			if err := util.EnsureDir(outDir); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}

			client := api.NewClient(viper.GetString("server_url"))
			dest := filepath.Join(outDir, args[0]+"_classified.las")
			if err := client.Download(cmd.Context(), args[0], dest); err != nil {
				return &ExitError{Code: ExitServiceError, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Classified cloud saved: %s\n", dest)
			return nil
		},
	}
}
