package job

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cloudclass/internal/api"
	"cloudclass/internal/log"
	"cloudclass/internal/pipeline"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultTickInterval = time.Second
	defaultMaxIncrement = 10.0

	// The animator never pushes the estimate past this; the headroom is
	// closed only when the results fetch succeeds.
	animatorCeiling = 95.0
)

// Controller sequences the upload submitter, status poller, progress
// animator and results fetcher into the upload/processing/results state
// machine. All mutation is serialized behind one mutex; the poller and
// animator goroutines are scoped to the current job and cancelled on any
// exit from processing.
type Controller struct {
	svc api.Service
	log zerolog.Logger

	pollEvery time.Duration
	tickEvery time.Duration
	maxStep   float64
	rng       *rand.Rand

	events chan Event
	done   chan struct{}

	mu         sync.Mutex
	state      State
	gen        int // job generation; bumped on every job creation and reset
	job        *Job
	progress   float64
	completed  bool
	uploading  bool
	fetching   bool
	stats      *api.Stats
	stopTimers context.CancelFunc
	closed     bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPollInterval sets the status polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.pollEvery = d
	}
}

// WithTickInterval sets the progress animation cadence.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.tickEvery = d
	}
}

// WithMaxIncrement bounds the random progress step per animator tick.
func WithMaxIncrement(v float64) Option {
	return func(c *Controller) {
		c.maxStep = v
	}
}

// WithRandSource injects a deterministic random source (useful for tests).
func WithRandSource(src rand.Source) Option {
	return func(c *Controller) {
		c.rng = rand.New(src)
	}
}

// New builds a Controller in the upload state.
func New(svc api.Service, opts ...Option) *Controller {
	c := &Controller{
		svc:       svc,
		log:       log.WithComponent("controller"),
		pollEvery: defaultPollInterval,
		tickEvery: defaultTickInterval,
		maxStep:   defaultMaxIncrement,
		state:     StateUpload,
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// Events returns the channel the controller reports on. Progress events may
// be dropped under backpressure; state changes and messages are always
// delivered (or held until Close).
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Snapshot returns a consistent view of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:     c.state,
		Progress:  c.progress,
		Completed: c.completed,
		Uploading: c.uploading,
		Fetching:  c.fetching,
		Stats:     c.stats,
	}
	if c.job != nil {
		j := *c.job
		s.Job = &j
	}
	switch c.state {
	case StateProcessing:
		s.Stages = pipeline.Project(c.progress)
		s.Ready = c.completed || c.progress >= animatorCeiling
	case StateResults:
		s.Stages = pipeline.Project(100)
	default:
		s.Stages = pipeline.Stages()
	}
	return s
}

// Submit uploads the file and, on success, creates the job and enters
// processing. A failed upload reports once and leaves the state at upload;
// there is no automatic retry. Rejects concurrent submissions.
func (c *Controller) Submit(ctx context.Context, path string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.uploading {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state != StateUpload {
		c.mu.Unlock()
		return fmt.Errorf("cannot submit while %s", c.state)
	}
	c.uploading = true
	startGen := c.gen
	c.mu.Unlock()

	res, err := c.svc.Upload(ctx, path)

	c.mu.Lock()
	c.uploading = false
	if c.closed || c.state != StateUpload || startGen != c.gen {
		// The user reset or quit while the upload was in flight; the
		// response belongs to a view that no longer exists.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Warn().Err(err).Msg("upload failed")
		c.send(Event{Kind: EventMessage, Message: err.Error()})
		return err
	}

	c.gen++
	gen := c.gen
	c.job = &Job{FileID: res.FileID, FileName: filepath.Base(path)}
	if fi, serr := os.Stat(path); serr == nil {
		c.job.FileSize = fi.Size()
	}
	c.progress = 0
	c.completed = false
	c.stats = nil
	c.state = StateProcessing

	timerCtx, cancel := context.WithCancel(context.Background())
	c.stopTimers = cancel
	go c.poll(timerCtx, gen, res.FileID)
	go c.animate(timerCtx, gen)
	c.mu.Unlock()

	c.log.Info().Str("file_id", res.FileID).Msg("job started")
	c.send(Event{Kind: EventState, State: StateProcessing})
	return nil
}

// FetchResults retrieves the final statistics and, on success, forces the
// progress estimate to 100 and enters results. On failure the state stays
// at processing so the user can retry. Idempotent from the caller's view;
// only the latest response is applied.
func (c *Controller) FetchResults(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateProcessing || c.job == nil {
		c.mu.Unlock()
		return ErrNoJob
	}
	if c.fetching {
		c.mu.Unlock()
		return ErrBusy
	}
	if !c.completed && c.progress < animatorCeiling {
		c.mu.Unlock()
		return ErrNotReady
	}
	gen := c.gen
	fileID := c.job.FileID
	c.fetching = true
	c.mu.Unlock()

	stats, err := c.svc.Stats(ctx, fileID)

	c.mu.Lock()
	if gen != c.gen || c.state != StateProcessing {
		// Stale response: the job changed while the fetch was in flight.
		c.mu.Unlock()
		return nil
	}
	c.fetching = false
	if err != nil {
		c.mu.Unlock()
		c.log.Warn().Err(err).Str("file_id", fileID).Msg("stats fetch failed")
		c.send(Event{Kind: EventMessage, Message: err.Error()})
		return err
	}

	if c.stopTimers != nil {
		c.stopTimers()
		c.stopTimers = nil
	}
	c.progress = 100
	c.stats = &stats
	c.state = StateResults
	c.mu.Unlock()

	c.log.Info().Str("file_id", fileID).Msg("results fetched")
	c.send(Event{Kind: EventProgress, Progress: 100})
	c.send(Event{Kind: EventState, State: StateResults})
	return nil
}

// Reset discards the job and all derived data and returns to upload.
// Valid from any state.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.stopTimers != nil {
		c.stopTimers()
		c.stopTimers = nil
	}
	c.gen++
	c.job = nil
	c.stats = nil
	c.progress = 0
	c.completed = false
	c.fetching = false
	changed := c.state != StateUpload
	c.state = StateUpload
	c.mu.Unlock()

	if changed {
		c.send(Event{Kind: EventState, State: StateUpload})
	}
}

// Close tears the controller down: timers are cancelled and any in-flight
// responses become stale. No state mutates after Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.stopTimers != nil {
		c.stopTimers()
		c.stopTimers = nil
	}
	c.gen++
	c.mu.Unlock()
	close(c.done)
}

// markCompleted records the terminal "completed" status. The state stays at
// processing: the transition to results is gated on the user's explicit
// results fetch. Returns false when the observation is stale.
func (c *Controller) markCompleted(gen int) bool {
	c.mu.Lock()
	if gen != c.gen || c.state != StateProcessing {
		c.mu.Unlock()
		return false
	}
	c.completed = true
	p := c.progress
	c.mu.Unlock()

	c.log.Info().Msg("classification completed, waiting for user")
	c.send(Event{Kind: EventProgress, Progress: p})
	return true
}

// failJob handles a terminal "error" status: the job is discarded and the
// state forced back to upload with the server-supplied message.
func (c *Controller) failJob(gen int, msg string) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateProcessing {
		c.mu.Unlock()
		return
	}
	if c.stopTimers != nil {
		c.stopTimers()
		c.stopTimers = nil
	}
	c.gen++
	c.job = nil
	c.stats = nil
	c.progress = 0
	c.completed = false
	c.fetching = false
	c.state = StateUpload
	c.mu.Unlock()

	c.log.Error().Str("reason", msg).Msg("job failed")
	c.send(Event{Kind: EventMessage, Message: msg})
	c.send(Event{Kind: EventState, State: StateUpload})
}

func (c *Controller) send(ev Event) {
	if ev.Kind == EventProgress {
		select {
		case c.events <- ev:
		default:
		}
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}
