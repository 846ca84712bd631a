// Package report serializes classification statistics into the CSV report
// offered for download. Pure formatting; no network dependency.
package report

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cloudclass/internal/api"
)

const titleRow = "CPK Cloud Classifier - Classification Report"

// Build renders the report: a metadata block, a blank separator, the
// Class/Points/Percentage header and one row per class. Column layout is
// fixed; consumers rely on it.
func Build(stats api.Stats) string {
	rows := [][]string{
		{titleRow},
		{""},
		{"File ID", stats.FileID},
		{"Total Points", formatInt(stats.TotalPoints)},
		{"Input File Size (MB)", formatFloat(stats.InputFileSizeMB)},
		{"Output File Size (MB)", formatFloat(stats.OutputFileSizeMB)},
		{""},
		{"Class", "Points", "Percentage"},
	}
	for _, c := range stats.Classes {
		rows = append(rows, []string{c.Name, formatInt(c.Points), formatFloat(c.Percentage) + "%"})
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(row, ","))
	}
	return b.String()
}

// FileName returns the report file name for the given job.
func FileName(stats api.Stats) string {
	return stats.FileID + "_report.csv"
}

// Write saves the report into dir and returns the full path.
func Write(dir string, stats api.Stats) (string, error) {
	path := filepath.Join(dir, FileName(stats))
	if err := os.WriteFile(path, []byte(Build(stats)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// formatFloat drops trailing zeros so 2.5 stays "2.5" and 60 stays "60".
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
