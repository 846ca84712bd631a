package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cloudclass/internal/api"
	"cloudclass/internal/dirs"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Check configuration and connectivity to the classification service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			serverURL := viper.GetString("server_url")
			fmt.Fprintf(out, "Server URL:    %s\n", serverURL)
			fmt.Fprintf(out, "Output dir:    %s\n", viper.GetString("out_dir"))
			fmt.Fprintf(out, "Poll interval: %s\n", viper.GetDuration("poll_interval"))
			if cfg := viper.ConfigFileUsed(); cfg != "" {
				fmt.Fprintf(out, "Config file:   %s\n", cfg)
			}
			if dataDir, err := dirs.DataDir(); err == nil {
				fmt.Fprintf(out, "Log dir:       %s\n", dataDir)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := api.NewClient(serverURL).Ping(ctx); err != nil {
				return &ExitError{Code: ExitServiceError, Err: fmt.Errorf("service unreachable: %v", err)}
			}
			fmt.Fprintln(out, "Service:       reachable")
			return nil
		},
	}
}
