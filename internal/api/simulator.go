package api

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Simulator is an in-process Service used by --simulate and by tests. It
// mimics the backend closely enough for the lifecycle controller: uploads
// succeed instantly, jobs "run" for a fixed duration, stats become available
// only after completion.
type Simulator struct {
	mu       sync.Mutex
	runFor   time.Duration
	started  map[string]time.Time
	stats    Stats
	jobError string // when set, jobs finish with status "error"

	uploadErr error // when set, uploads fail with this error
}

// SimOption configures a Simulator.
type SimOption func(*Simulator)

// WithRunDuration sets how long a simulated job stays in "running".
func WithRunDuration(d time.Duration) SimOption {
	return func(s *Simulator) {
		s.runFor = d
	}
}

// WithStats replaces the canned classification statistics.
func WithStats(st Stats) SimOption {
	return func(s *Simulator) {
		s.stats = st
	}
}

// WithJobError makes every simulated job end in a terminal error status.
func WithJobError(msg string) SimOption {
	return func(s *Simulator) {
		s.jobError = msg
	}
}

// WithUploadError makes every upload fail.
func WithUploadError(err error) SimOption {
	return func(s *Simulator) {
		s.uploadErr = err
	}
}

// NewSimulator builds a Simulator. Defaults: jobs run for 8 seconds and
// report a plausible ASPRS class breakdown.
func NewSimulator(opts ...SimOption) *Simulator {
	s := &Simulator{
		runFor:  8 * time.Second,
		started: make(map[string]time.Time),
		stats:   defaultSimStats(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Upload registers a fake job keyed by the file's stem, like the backend.
func (s *Simulator) Upload(_ context.Context, path string) (UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return UploadResult{}, s.uploadErr
	}
	name := filepath.Base(path)
	id := strings.TrimSuffix(name, filepath.Ext(name))
	if id == "" {
		return UploadResult{}, errors.New("no file selected")
	}
	s.started[id] = time.Now()
	return UploadResult{
		FileID:     id,
		InputFile:  name,
		OutputFile: id + "_classified.las",
		FileSizeMB: s.stats.InputFileSizeMB,
	}, nil
}

func (s *Simulator) Status(_ context.Context, fileID string) (JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	begun, ok := s.started[fileID]
	if !ok || time.Since(begun) < s.runFor {
		// Unknown ids poll as still running, matching the backend.
		return JobStatus{FileID: fileID, Status: StatusRunning}, nil
	}
	if s.jobError != "" {
		return JobStatus{FileID: fileID, Status: StatusError, Error: s.jobError}, nil
	}
	return JobStatus{FileID: fileID, Status: StatusCompleted}, nil
}

func (s *Simulator) Stats(_ context.Context, fileID string) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	begun, ok := s.started[fileID]
	if !ok || time.Since(begun) < s.runFor {
		return Stats{}, errors.New("File not found or still processing")
	}
	if s.jobError != "" {
		return Stats{}, errors.New(s.jobError)
	}
	st := s.stats
	st.FileID = fileID
	st.Classes = append([]ClassSummary(nil), s.stats.Classes...)
	return st, nil
}

// Complete forces a job into the completed state immediately (test hook).
func (s *Simulator) Complete(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[fileID] = time.Now().Add(-s.runFor - time.Second)
}

func defaultSimStats() Stats {
	classes := []ClassSummary{
		{ID: 2, Name: "Ground", Points: 612_400},
		{ID: 3, Name: "Low Vegetation", Points: 188_210},
		{ID: 5, Name: "High Vegetation", Points: 241_050},
		{ID: 6, Name: "Building", Points: 154_980},
		{ID: 9, Name: "Water", Points: 53_360},
	}
	var total int64
	for _, c := range classes {
		total += c.Points
	}
	for i := range classes {
		pct := float64(classes[i].Points) / float64(total) * 100
		classes[i].Percentage = float64(int(pct*10+0.5)) / 10
	}
	return Stats{
		TotalPoints:      total,
		InputFileSizeMB:  412.6,
		OutputFileSizeMB: 389.1,
		Classes:          classes,
	}
}

var _ Service = (*Simulator)(nil)
var _ Service = (*Client)(nil)

// Describe returns a short human label for a provider, used by doctor and
// verbose output.
func Describe(svc Service) string {
	switch svc.(type) {
	case *Simulator:
		return "simulated service"
	case *Client:
		return "http service"
	default:
		return fmt.Sprintf("%T", svc)
	}
}
