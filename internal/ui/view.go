package ui

import (
	"fmt"
	"strings"

	"cloudclass/internal/job"
	"cloudclass/internal/pipeline"
	"cloudclass/internal/util/format"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	snap := m.ctrl.Snapshot()

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(m.styles.Banner.Render(m.errMsg + "  (x: dismiss)"))
		b.WriteString("\n\n")
	}
	if m.notice != "" {
		b.WriteString(m.styles.Warning.Render(m.notice))
		b.WriteString("\n\n")
	}

	switch snap.State {
	case job.StateProcessing:
		b.WriteString(m.viewProcessing(snap))
	case job.StateResults:
		b.WriteString(m.viewResults(snap))
	default:
		b.WriteString(m.viewUpload(snap))
	}
	return b.String()
}

func (m Model) viewHeader() string {
	title := m.styles.Title.Render("CPK Cloud Classifier")
	sub := m.styles.Subtitle.Render("LAS/LAZ point cloud classification • q: quit")
	return title + "\n" + sub
}

func (m Model) viewUpload(snap job.Snapshot) string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("Upload"))
	b.WriteString("\n")
	b.WriteString(m.styles.FileName.Render(m.filePath))
	b.WriteString("\n")
	b.WriteString(m.styles.FileInfo.Render("Formats: LAS/LAZ • Max size: 30GB"))
	b.WriteString("\n\n")
	if snap.Uploading {
		b.WriteString(m.styles.Spinner.Render(m.spinner.View()) + " Uploading…")
	} else {
		b.WriteString(m.styles.Faint.Render("u: upload • q: quit"))
	}
	return m.styles.Box.Render(b.String())
}

func (m Model) viewProcessing(snap job.Snapshot) string {
	var b strings.Builder

	if snap.Job != nil {
		b.WriteString(m.styles.FileName.Render(snap.Job.FileName))
		if snap.Job.FileSize > 0 {
			b.WriteString("  " + m.styles.FileInfo.Render(format.HumanizeBytes(snap.Job.FileSize)))
		}
		b.WriteString("  " + m.styles.Badge.Render("Processing"))
		b.WriteString("\n\n")
	}

	b.WriteString(m.styles.Header.Render("Processing Pipeline"))
	b.WriteString(fmt.Sprintf("  %s\n\n", m.styles.StageOn.Render(fmt.Sprintf("%d%%", int(snap.Progress)))))

	for _, st := range snap.Stages {
		b.WriteString(m.viewStage(st))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.bar.ViewAs(snap.Progress / 100))
	b.WriteString("\n")
	if snap.Progress < 100 {
		b.WriteString(m.styles.Faint.Render(fmt.Sprintf("Estimated time remaining: ~%d min", int((100-snap.Progress)/10+0.5))))
	} else {
		b.WriteString(m.styles.Success.Render("Complete"))
	}
	b.WriteString("\n\n")

	switch {
	case snap.Fetching:
		b.WriteString(m.styles.Spinner.Render(m.spinner.View()) + " Loading results…")
	case snap.Ready:
		b.WriteString(m.styles.Success.Render("Classification ready") + m.styles.Faint.Render("  enter: view results • r: reset"))
	default:
		b.WriteString(m.styles.Faint.Render("r: reset"))
	}
	return m.styles.Box.Render(b.String())
}

func (m Model) viewStage(st pipeline.Stage) string {
	switch st.Status {
	case pipeline.StatusDone:
		return fmt.Sprintf("%s %s  %s",
			m.styles.Success.Render("✓"),
			m.styles.StageOn.Render(padStage(st.Name)),
			m.styles.Faint.Render("Completed"))
	case pipeline.StatusProcessing:
		return fmt.Sprintf("%s %s  %s",
			m.styles.Spinner.Render(m.spinner.View()),
			m.styles.Header.Render(padStage(st.Name)),
			m.styles.StageOn.Render("Processing…"))
	default:
		return fmt.Sprintf("%s %s  %s",
			m.styles.StageOff.Render("·"),
			m.styles.StageOff.Render(padStage(st.Name)),
			m.styles.Faint.Render("Waiting"))
	}
}

func (m Model) viewResults(snap job.Snapshot) string {
	stats := snap.Stats
	if stats == nil {
		return m.styles.Error.Render("no statistics available")
	}

	var b strings.Builder
	b.WriteString(m.styles.Header.Render("Classification Results"))
	b.WriteString("\n\n")

	b.WriteString(m.statLine("Total Points", format.Count(stats.TotalPoints)))
	b.WriteString(m.statLine("Input File Size", format.MB(stats.InputFileSizeMB)))
	b.WriteString(m.statLine("Output File Size", format.MB(stats.OutputFileSizeMB)))
	b.WriteString(m.statLine("Classes Detected", fmt.Sprintf("%d", len(stats.Classes))))
	b.WriteString("\n")

	b.WriteString(m.styles.Header.Render("Classification Breakdown"))
	b.WriteString("\n")
	for _, c := range stats.Classes {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			m.styles.FileName.Render(padStage(c.Name)),
			m.renderBar(c.Percentage),
			m.styles.FileInfo.Render(fmt.Sprintf("%s (%s points)", format.Percent(c.Percentage), format.Count(c.Points)))))
	}
	b.WriteString("\n")

	if m.savedReport != "" {
		b.WriteString(m.styles.Success.Render("Report saved: "+m.savedReport) + "\n")
	}
	if m.savedCloud != "" {
		b.WriteString(m.styles.Success.Render("Classified cloud saved: "+m.savedCloud) + "\n")
	}
	b.WriteString(m.styles.Faint.Render("s: save report • d: download classified LAS • r: new classification • q: quit"))
	return m.styles.Box.Render(b.String())
}

func (m Model) statLine(label, value string) string {
	return fmt.Sprintf("%s %s\n", m.styles.FileInfo.Render(padStage(label)), m.styles.FileName.Render(value))
}

func (m Model) renderBar(pct float64) string {
	const width = 24
	filled := int(pct/100*width + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return m.styles.BarFill.Render(strings.Repeat("█", filled)) +
		m.styles.BarEmpty.Render(strings.Repeat("░", width-filled))
}

func padStage(s string) string {
	const w = 18
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
