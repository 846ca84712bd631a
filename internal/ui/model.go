package ui

import (
	"context"
	"path/filepath"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"cloudclass/internal/api"
	"cloudclass/internal/job"
	"cloudclass/internal/report"
)

// Options carries everything the TUI needs to run one classification.
type Options struct {
	FilePath string
	Service  api.Service
	Client   *api.Client // nil when running against the simulator
	OutDir   string
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	ctrl     *job.Controller
	filePath string
	client   *api.Client
	outDir   string

	// UI
	width, height int
	styles        Styles
	bar           bubblesprogress.Model
	spinner       spinner.Model

	errMsg      string
	savedReport string
	savedCloud  string
	notice      string
	quitting    bool
}

func NewModel(ctx context.Context, ctrl *job.Controller, opts Options) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	sp := spinner.New()
	sp.Style = sty.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(46),
	)

	return Model{
		ctx:      c,
		cancel:   cancel,
		ctrl:     ctrl,
		filePath: opts.FilePath,
		client:   opts.Client,
		outDir:   opts.OutDir,
		styles:   sty,
		bar:      bar,
		spinner:  sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenCmd(), m.submitCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if w := msg.Width - 24; w > 10 && w < 46 {
			m.bar.Width = w
		}

	case ctrlEventMsg:
		if msg.Ev.Kind == job.EventMessage {
			m.errMsg = msg.Ev.Message
		}
		// Snapshot is read in View; the event is just a wake-up.
		return m, tea.Batch(m.listenCmd(), m.spinner.Tick)

	case submitDoneMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
		}

	case fetchDoneMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
		}

	case reportSavedMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
		} else {
			m.savedReport = msg.Path
		}

	case downloadDoneMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
		} else {
			m.savedCloud = msg.Path
		}
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.ctrl.Snapshot()
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.ctrl.Close()
		m.cancel()
		return m, tea.Quit

	case "esc", "x":
		m.errMsg = ""
		m.notice = ""

	case "enter":
		if snap.State == job.StateProcessing && snap.Ready && !snap.Fetching {
			return m, tea.Batch(m.fetchCmd(), m.spinner.Tick)
		}

	case "u":
		if snap.State == job.StateUpload && !snap.Uploading {
			m.errMsg = ""
			return m, tea.Batch(m.submitCmd(), m.spinner.Tick)
		}

	case "r":
		if snap.State != job.StateUpload {
			m.ctrl.Reset()
			m.errMsg = ""
			m.notice = ""
			m.savedReport = ""
			m.savedCloud = ""
		}

	case "s":
		if snap.State == job.StateResults && snap.Stats != nil {
			return m, m.saveReportCmd(*snap.Stats)
		}

	case "d":
		if snap.State == job.StateResults && snap.Job != nil {
			if m.client == nil {
				m.notice = "Download is not available against the simulated service"
				return m, nil
			}
			return m, m.downloadCmd(snap.Job.FileID)
		}
	}
	return m, nil
}

func (m Model) listenCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case ev := <-m.ctrl.Events():
			return ctrlEventMsg{Ev: ev}
		}
	}
}

func (m Model) submitCmd() tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{Err: m.ctrl.Submit(m.ctx, m.filePath)}
	}
}

func (m Model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		return fetchDoneMsg{Err: m.ctrl.FetchResults(m.ctx)}
	}
}

func (m Model) saveReportCmd(stats api.Stats) tea.Cmd {
	return func() tea.Msg {
		path, err := report.Write(m.outDir, stats)
		return reportSavedMsg{Path: path, Err: err}
	}
}

func (m Model) downloadCmd(fileID string) tea.Cmd {
	client := m.client
	ctx := m.ctx
	dest := filepath.Join(m.outDir, fileID+"_classified.las")
	return func() tea.Msg {
		if err := client.Download(ctx, fileID, dest); err != nil {
			return downloadDoneMsg{Err: err}
		}
		return downloadDoneMsg{Path: dest}
	}
}
