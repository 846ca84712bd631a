package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cloudclass/internal/job"
)

// Run launches the TUI for a single classification and blocks until the
// user quits. The controller and its timers are torn down before return.
func Run(ctx context.Context, opts Options, pollEvery time.Duration) error {
	ctrlOpts := []job.Option{}
	if pollEvery > 0 {
		ctrlOpts = append(ctrlOpts, job.WithPollInterval(pollEvery))
	}
	ctrl := job.New(opts.Service, ctrlOpts...)
	defer ctrl.Close()

	m := NewModel(ctx, ctrl, opts)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}
