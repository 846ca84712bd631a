package cmd

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"cloudclass/internal/config"
	"cloudclass/internal/dirs"
	"cloudclass/internal/log"
)

const (
	ExitOK           = 0
	ExitCLIError     = 1
	ExitServiceError = 2
	ExitUploadError  = 3
	ExitJobError     = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cloudclass [file]",
		Short:         "Classify LAS/LAZ point clouds with the CPK cloud service",
		Long:          "cloudclass submits a LAS/LAZ point cloud to the CPK classification service, follows the job until it finishes, and fetches the classification statistics, the CSV report and the classified output file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			// Bare `cloudclass <file>` behaves like `cloudclass classify <file>`.
			return classifyExecute(cmd, args, classifyMode{})
		},
	}

	// Persistent flags available to all subcommands
	root.PersistentFlags().String("server-url", config.DefaultServerURL, "Classification service base URL")
	root.PersistentFlags().StringP("out-dir", "o", ".", "Directory for reports and downloaded files")
	root.PersistentFlags().BoolP("verbose", "v", false, "Debug-level logging (written to the log file)")
	root.PersistentFlags().Duration("poll-interval", 2*time.Second, "Job status polling interval")
	root.PersistentFlags().Bool("simulate", false, "Run against an in-process simulated service")

	// Also bind classify-specific flags on root, so `cloudclass <file>` works.
	bindClassifyFlags(root.Flags())

	// Subcommands
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newDownloadCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	_ = config.Init(root)
	return root.ExecuteContext(ctx)
}

func configureLogging(cmd *cobra.Command) {
	level := "info"
	if v, err := cmd.Flags().GetBool("verbose"); err == nil && v {
		level = "debug"
	}
	var out io.Writer
	if dataDir, err := dirs.DataDir(); err == nil {
		if f, ferr := log.OpenFile(dataDir); ferr == nil {
			out = f // stays open for the process lifetime
		}
	}
	log.Configure(log.Config{Level: level, Output: out})
	base := log.Base()
	base.Debug().Str("level", level).Msg("logger configured")
}
