package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Header   lipgloss.Style
	FileName lipgloss.Style
	FileInfo lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Faint    lipgloss.Style
	Box      lipgloss.Style
	Banner   lipgloss.Style
	Spinner  lipgloss.Style
	Badge    lipgloss.Style
	StageOn  lipgloss.Style
	StageOff lipgloss.Style
	BarFill  lipgloss.Style
	BarEmpty lipgloss.Style
}

func defaultStyles() Styles {
	base := lipgloss.NewStyle()
	return Styles{
		Title:    base.Bold(true).Foreground(lipgloss.Color("#4C7DFF")),
		Subtitle: base.Faint(true),
		Header:   base.Bold(true),
		FileName: base.Foreground(lipgloss.Color("#E6E6E6")).Bold(true),
		FileInfo: base.Foreground(lipgloss.Color("#A9B1C7")),
		Success:  base.Foreground(lipgloss.Color("#22C55E")),
		Error:    base.Foreground(lipgloss.Color("#EF4444")),
		Warning:  base.Foreground(lipgloss.Color("#F59E0B")),
		Faint:    base.Faint(true),
		Box:      base.Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#2A3441")),
		Banner:   base.Padding(0, 1).Foreground(lipgloss.Color("#EF4444")).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#EF4444")),
		Spinner:  base.Foreground(lipgloss.Color("#00C7E6")),
		Badge:    base.Padding(0, 1).Foreground(lipgloss.Color("#4C7DFF")).Bold(true),
		StageOn:  base.Foreground(lipgloss.Color("#00C7E6")),
		StageOff: base.Foreground(lipgloss.Color("#6B7280")),
		BarFill:  base.Foreground(lipgloss.Color("#4C7DFF")),
		BarEmpty: base.Foreground(lipgloss.Color("#2A3441")),
	}
}
