// Package api talks to the point-cloud classification service and is the
// only place that knows its wire shapes. Responses are validated here so
// malformed payloads surface as typed errors instead of zero values.
package api

import (
	"context"
	"errors"
	"fmt"
)

// Status values reported by the service. Anything else (the backend also
// reports "processing" for jobs it has not finished or never heard of) is
// treated as still running.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Service is the classification-service contract the job lifecycle
// controller depends on. Client is the real HTTP provider; Simulator is the
// in-process stand-in used by --simulate and by tests.
type Service interface {
	Upload(ctx context.Context, path string) (UploadResult, error)
	Status(ctx context.Context, fileID string) (JobStatus, error)
	Stats(ctx context.Context, fileID string) (Stats, error)
}

// UploadResult is the successful response of POST /api/upload.
type UploadResult struct {
	FileID     string  `json:"file_id"`
	InputFile  string  `json:"input_file"`
	OutputFile string  `json:"output_file"`
	FileSizeMB float64 `json:"file_size_mb"`
}

// JobStatus is the response of GET /api/status/{file_id}.
type JobStatus struct {
	FileID string `json:"file_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Terminal reports whether the status ends the polling loop.
func (s JobStatus) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusError
}

// ClassSummary is one classified point class in the statistics response.
type ClassSummary struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Points     int64   `json:"points"`
	Percentage float64 `json:"percentage"`
}

// Stats is the response of GET /api/stats/{file_id}. Immutable once fetched.
type Stats struct {
	FileID           string         `json:"file_id"`
	TotalPoints      int64          `json:"total_points"`
	InputFileSizeMB  float64        `json:"input_file_size_mb"`
	OutputFileSizeMB float64        `json:"output_file_size_mb"`
	Classes          []ClassSummary `json:"classes"`
}

// ErrMalformedResponse marks a 2xx response whose body did not match the
// contract. Pollers treat it like any transient failure.
var ErrMalformedResponse = errors.New("malformed service response")

func (r UploadResult) validate() error {
	if r.FileID == "" {
		return fmt.Errorf("%w: upload result missing file_id", ErrMalformedResponse)
	}
	return nil
}

func (s JobStatus) validate() error {
	if s.Status == "" {
		return fmt.Errorf("%w: status field missing", ErrMalformedResponse)
	}
	return nil
}

func (s Stats) validate() error {
	if s.FileID == "" {
		return fmt.Errorf("%w: stats missing file_id", ErrMalformedResponse)
	}
	if s.TotalPoints < 0 {
		return fmt.Errorf("%w: negative total_points", ErrMalformedResponse)
	}
	return nil
}
