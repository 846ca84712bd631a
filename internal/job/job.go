// Package job owns the classification job lifecycle: the upload → processing
// → results state machine, the status poller and the progress animator. It
// knows nothing about rendering; the UI consumes Events and Snapshots.
package job

import (
	"errors"

	"cloudclass/internal/api"
	"cloudclass/internal/pipeline"
)

// State is the current lifecycle state. Exactly one is active at any time.
type State string

const (
	StateUpload     State = "upload"
	StateProcessing State = "processing"
	StateResults    State = "results"
)

// Job is one server-side classification run. Created on successful upload,
// discarded on reset or job error; never persisted.
type Job struct {
	FileID   string
	FileName string
	FileSize int64
}

// EventKind discriminates controller events.
type EventKind int

const (
	// EventState signals a lifecycle state change.
	EventState EventKind = iota
	// EventProgress carries a new progress estimate. Droppable: the latest
	// value is always available via Snapshot.
	EventProgress
	// EventMessage carries a user-visible, dismissible error message.
	EventMessage
)

// Event is what the controller emits on its event channel.
type Event struct {
	Kind     EventKind
	State    State
	Progress float64
	Message  string
}

// Snapshot is a consistent read of the controller state.
type Snapshot struct {
	State     State
	Job       *Job
	Progress  float64
	Stages    []pipeline.Stage
	Completed bool // poller observed the terminal "completed" status
	Ready     bool // results fetch is allowed
	Uploading bool
	Fetching  bool
	Stats     *api.Stats
}

var (
	// ErrBusy is returned when a submission or results fetch is already in
	// flight for the current user action.
	ErrBusy = errors.New("operation already in flight")
	// ErrNoJob is returned when an operation needs an active job.
	ErrNoJob = errors.New("no active job")
	// ErrNotReady is returned when results are requested before the
	// progress gate opens.
	ErrNotReady = errors.New("results are not ready yet")
	// ErrClosed is returned after the controller has been torn down.
	ErrClosed = errors.New("controller closed")
)
