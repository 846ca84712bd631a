package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"cloudclass/internal/api"
	"cloudclass/internal/job"
	"cloudclass/internal/report"
	"cloudclass/internal/ui"
	"cloudclass/internal/util"
)

type classifyMode struct {
	ForceTUI bool
}

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "classify <file>",
		Short:         "Upload a point cloud and follow the classification job",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classifyExecute(cmd, args, classifyMode{})
		},
	}
	bindClassifyFlags(cmd.Flags())
	return cmd
}

func newTuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tui <file>",
		Short:         "Force the interactive TUI",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classifyExecute(cmd, args, classifyMode{ForceTUI: true})
		},
	}
	bindClassifyFlags(cmd.Flags())
	if f := cmd.Flags().Lookup("no-ui"); f != nil {
		f.Hidden = true
	}
	return cmd
}

func bindClassifyFlags(fs *pflag.FlagSet) {
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
	fs.Bool("save-report", false, "Write the CSV report when the job finishes (plain mode)")
	fs.Bool("download", false, "Download the classified LAS when the job finishes (plain mode)")
}

type classifyInputs struct {
	FilePath    string
	ServerURL   string
	OutDir      string
	PollEvery   time.Duration
	Simulate    bool
	NoUI        bool
	SaveReport  bool
	DownloadLAS bool
}

func assembleClassifyInputs(cmd *cobra.Command, args []string) (classifyInputs, error) {
	path := filepath.Clean(args[0])
	if _, err := util.CheckPointCloudFile(path); err != nil {
		return classifyInputs{}, err
	}

	outDir := filepath.Clean(viper.GetString("out_dir"))
	if outDir == "" {
		outDir = "."
	}

	pollEvery := viper.GetDuration("poll_interval")
	if pollEvery <= 0 {
		pollEvery = 2 * time.Second
	}

	noUI, _ := cmd.Flags().GetBool("no-ui")
	saveReport, _ := cmd.Flags().GetBool("save-report")
	download, _ := cmd.Flags().GetBool("download")

	return classifyInputs{
		FilePath:    path,
		ServerURL:   viper.GetString("server_url"),
		OutDir:      outDir,
		PollEvery:   pollEvery,
		Simulate:    viper.GetBool("simulate"),
		NoUI:        noUI,
		SaveReport:  saveReport,
		DownloadLAS: download,
	}, nil
}

func classifyExecute(cmd *cobra.Command, args []string, mode classifyMode) error {
	in, err := assembleClassifyInputs(cmd, args)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if err := util.EnsureDir(in.OutDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("failed to create output dir: %v", err)}
	}

	var (
		svc    api.Service
		client *api.Client
	)
	if in.Simulate {
		svc = api.NewSimulator()
	} else {
		client = api.NewClient(in.ServerURL)
		svc = client
	}

	useTUI := mode.ForceTUI || (!in.NoUI && isTerminal())
	if useTUI {
		opts := ui.Options{
			FilePath: in.FilePath,
			Service:  svc,
			Client:   client,
			OutDir:   in.OutDir,
		}
		if err := ui.Run(cmd.Context(), opts, in.PollEvery); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		return nil
	}
	return runPlain(cmd.Context(), cmd.OutOrStdout(), in, svc, client)
}

// runPlain drives the same lifecycle controller without the TUI: it prints
// coarse progress lines and, acting as the user, requests the results as
// soon as the server reports the job finished.
func runPlain(ctx context.Context, w io.Writer, in classifyInputs, svc api.Service, client *api.Client) error {
	ctrl := job.New(svc, job.WithPollInterval(in.PollEvery))
	defer ctrl.Close()

	fmt.Fprintf(w, "Uploading %s (%s)…\n", filepath.Base(in.FilePath), api.Describe(svc))
	if err := ctrl.Submit(ctx, in.FilePath); err != nil {
		return &ExitError{Code: ExitUploadError, Err: err}
	}
	if snap := ctrl.Snapshot(); snap.Job != nil {
		fmt.Fprintf(w, "Job started: %s\n", snap.Job.FileID)
	}

	if err := awaitCompletion(ctx, w, ctrl); err != nil {
		if ctx.Err() != nil {
			return &ExitError{Code: ExitCLIError, Err: ctx.Err()}
		}
		return &ExitError{Code: ExitJobError, Err: err}
	}

	fmt.Fprintln(w, "Classification completed, fetching results…")
	if err := ctrl.FetchResults(ctx); err != nil {
		return &ExitError{Code: ExitServiceError, Err: err}
	}

	snap := ctrl.Snapshot()
	if snap.Stats == nil {
		return &ExitError{Code: ExitServiceError, Err: errors.New("no statistics returned")}
	}
	printStatsTable(w, *snap.Stats)

	if in.SaveReport {
		path, err := report.Write(in.OutDir, *snap.Stats)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		fmt.Fprintf(w, "Report saved: %s\n", path)
	}
	if in.DownloadLAS {
		if client == nil {
			fmt.Fprintln(w, "Download skipped: not available against the simulated service")
			return nil
		}
		dest := filepath.Join(in.OutDir, snap.Stats.FileID+"_classified.las")
		if err := client.Download(ctx, snap.Stats.FileID, dest); err != nil {
			return &ExitError{Code: ExitServiceError, Err: err}
		}
		fmt.Fprintf(w, "Classified cloud saved: %s\n", dest)
	}
	return nil
}

// awaitCompletion drains controller events until the poller observes a
// terminal status, printing coarse progress lines along the way. The animated
// estimate reaching its ceiling is not completion: unlike the interactive
// view, where the user decides when to look and can retry, here the fetch
// happens exactly once, so it must wait for the server's word. The periodic
// re-check covers progress events dropped under backpressure.
func awaitCompletion(ctx context.Context, w io.Writer, ctrl *job.Controller) error {
	recheck := time.NewTicker(200 * time.Millisecond)
	defer recheck.Stop()

	lastBucket := -1
	lastMessage := ""
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-ctrl.Events():
			switch ev.Kind {
			case job.EventProgress:
				if bucket := int(ev.Progress) / 10; bucket != lastBucket {
					lastBucket = bucket
					fmt.Fprintf(w, "  progress ~%d%%\n", bucket*10)
				}
			case job.EventMessage:
				lastMessage = ev.Message
			}
		case <-recheck.C:
		}

		snap := ctrl.Snapshot()
		if snap.State == job.StateUpload {
			// The poller observed a terminal error and discarded the job.
			if lastMessage == "" {
				lastMessage = "classification failed"
			}
			return errors.New(lastMessage)
		}
		if snap.Completed {
			return nil
		}
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
