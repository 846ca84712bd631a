package job

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"cloudclass/internal/api"
)

// stubService is a scriptable api.Service for exercising the controller
// against exact response sequences.
type stubService struct {
	uploadFn func(ctx context.Context, path string) (api.UploadResult, error)
	statusFn func(ctx context.Context, fileID string) (api.JobStatus, error)
	statsFn  func(ctx context.Context, fileID string) (api.Stats, error)
}

func (s *stubService) Upload(ctx context.Context, path string) (api.UploadResult, error) {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, path)
	}
	return api.UploadResult{FileID: "f1", InputFile: "scan.las"}, nil
}

func (s *stubService) Status(ctx context.Context, fileID string) (api.JobStatus, error) {
	if s.statusFn != nil {
		return s.statusFn(ctx, fileID)
	}
	return api.JobStatus{FileID: fileID, Status: api.StatusRunning}, nil
}

func (s *stubService) Stats(ctx context.Context, fileID string) (api.Stats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx, fileID)
	}
	return api.Stats{
		FileID:      fileID,
		TotalPoints: 1000,
		Classes: []api.ClassSummary{
			{ID: 2, Name: "Ground", Points: 600, Percentage: 60},
			{ID: 9, Name: "Water", Points: 400, Percentage: 40},
		},
	}, nil
}

// messageCollector drains the event channel and keeps user-visible messages.
type messageCollector struct {
	mu       sync.Mutex
	messages []string
}

func collectMessages(t *testing.T, c *Controller) *messageCollector {
	t.Helper()
	mc := &messageCollector{}
	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-quit:
				return
			case ev := <-c.Events():
				if ev.Kind == EventMessage {
					mc.mu.Lock()
					mc.messages = append(mc.messages, ev.Message)
					mc.mu.Unlock()
				}
			}
		}
	}()
	t.Cleanup(func() {
		close(quit)
		<-done
	})
	return mc
}

func (mc *messageCollector) all() []string {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return append([]string(nil), mc.messages...)
}

func newTestController(t *testing.T, svc api.Service, opts ...Option) *Controller {
	t.Helper()
	base := []Option{
		WithPollInterval(3 * time.Millisecond),
		WithTickInterval(2 * time.Millisecond),
		WithRandSource(rand.NewSource(1)),
	}
	c := New(svc, append(base, opts...)...)
	t.Cleanup(c.Close)
	return c
}

func TestSubmitEntersProcessing(t *testing.T) {
	c := newTestController(t, &stubService{})
	require.NoError(t, c.Submit(context.Background(), "survey.las"))

	s := c.Snapshot()
	assert.Equal(t, StateProcessing, s.State)
	require.NotNil(t, s.Job)
	assert.Equal(t, "f1", s.Job.FileID)
	assert.Equal(t, "survey.las", s.Job.FileName)
	assert.Zero(t, s.Progress)
	assert.Nil(t, s.Stats)
}

func TestProgressMonotonicAndCapped(t *testing.T) {
	c := newTestController(t, &stubService{}) // status stays running forever
	require.NoError(t, c.Submit(context.Background(), "survey.las"))

	prev := 0.0
	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		p := c.Snapshot().Progress
		require.GreaterOrEqual(t, p, prev, "progress regressed")
		require.LessOrEqual(t, p, 95.0, "progress exceeded ceiling before results")
		prev = p
		time.Sleep(time.Millisecond)
	}
	assert.Greater(t, prev, 0.0, "animator never advanced")
}

func TestCompletedDoesNotAutoTransition(t *testing.T) {
	var calls atomic.Int32
	svc := &stubService{
		statusFn: func(_ context.Context, id string) (api.JobStatus, error) {
			switch calls.Add(1) {
			case 1, 2:
				return api.JobStatus{FileID: id, Status: api.StatusRunning}, nil
			default:
				return api.JobStatus{FileID: id, Status: api.StatusCompleted}, nil
			}
		},
	}
	c := newTestController(t, svc)
	require.NoError(t, c.Submit(context.Background(), "survey.las"))

	require.Eventually(t, func() bool { return c.Snapshot().Completed },
		time.Second, time.Millisecond)

	// The completed status alone must not change the state; the user has to
	// ask for results.
	time.Sleep(20 * time.Millisecond)
	s := c.Snapshot()
	assert.Equal(t, StateProcessing, s.State)
	assert.True(t, s.Ready)
	assert.LessOrEqual(t, s.Progress, 95.0)

	require.NoError(t, c.FetchResults(context.Background()))
	s = c.Snapshot()
	assert.Equal(t, StateResults, s.State)
	assert.Equal(t, 100.0, s.Progress)
	require.NotNil(t, s.Stats)
	assert.Equal(t, "f1", s.Stats.FileID)
}

func TestProgressFrozenOnceCompleted(t *testing.T) {
	svc := &stubService{
		statusFn: func(_ context.Context, id string) (api.JobStatus, error) {
			return api.JobStatus{FileID: id, Status: api.StatusCompleted}, nil
		},
	}
	c := newTestController(t, svc)
	require.NoError(t, c.Submit(context.Background(), "survey.las"))

	require.Eventually(t, func() bool { return c.Snapshot().Completed },
		time.Second, time.Millisecond)
	frozen := c.Snapshot().Progress
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frozen, c.Snapshot().Progress)
}

func TestPollerErrorForcesUpload(t *testing.T) {
	svc := &stubService{
		statusFn: func(_ context.Context, id string) (api.JobStatus, error) {
			return api.JobStatus{FileID: id, Status: api.StatusError, Error: "disk full"}, nil
		},
	}
	c := newTestController(t, svc)
	mc := collectMessages(t, c)
	require.NoError(t, c.Submit(context.Background(), "survey.las"))

	require.Eventually(t, func() bool { return c.Snapshot().State == StateUpload },
		time.Second, time.Millisecond)

	s := c.Snapshot()
	assert.Nil(t, s.Job)
	assert.Zero(t, s.Progress)
	require.Eventually(t, func() bool {
		msgs := mc.all()
		return len(msgs) == 1 && msgs[0] == "disk full"
	}, time.Second, time.Millisecond)
}

func TestTransientPollErrorsIgnored(t *testing.T) {
	var calls atomic.Int32
	svc := &stubService{
		statusFn: func(_ context.Context, id string) (api.JobStatus, error) {
			switch calls.Add(1) {
			case 1:
				return api.JobStatus{}, errors.New("connection refused")
			case 2:
				return api.JobStatus{}, errors.New("unexpected end of JSON input")
			default:
				return api.JobStatus{FileID: id, Status: api.StatusCompleted}, nil
			}
		},
	}
	c := newTestController(t, svc)
	mc := collectMessages(t, c)
	require.NoError(t, c.Submit(context.Background(), "survey.las"))

	require.Eventually(t, func() bool { return c.Snapshot().Completed },
		time.Second, time.Millisecond)
	assert.Equal(t, StateProcessing, c.Snapshot().State)
	assert.Empty(t, mc.all(), "transient failures must not surface to the user")
}

func TestUploadFailureStaysUpload(t *testing.T) {
	svc := &stubService{
		uploadFn: func(context.Context, string) (api.UploadResult, error) {
			return api.UploadResult{}, errors.New("Invalid file format. Only LAS/LAZ supported")
		},
	}
	c := newTestController(t, svc)
	mc := collectMessages(t, c)

	err := c.Submit(context.Background(), "notes.txt")
	require.Error(t, err)
	assert.Equal(t, StateUpload, c.Snapshot().State)
	assert.Nil(t, c.Snapshot().Job)
	require.Eventually(t, func() bool { return len(mc.all()) == 1 },
		time.Second, time.Millisecond)
}

func TestConcurrentSubmitRejected(t *testing.T) {
	release := make(chan struct{})
	svc := &stubService{
		uploadFn: func(ctx context.Context, _ string) (api.UploadResult, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return api.UploadResult{FileID: "f1"}, nil
		},
	}
	c := newTestController(t, svc)

	started := make(chan struct{})
	go func() {
		close(started)
		_ = c.Submit(context.Background(), "survey.las")
	}()
	<-started
	require.Eventually(t, func() bool { return c.Snapshot().Uploading },
		time.Second, time.Millisecond)

	err := c.Submit(context.Background(), "survey.las")
	assert.ErrorIs(t, err, ErrBusy)
	close(release)

	require.Eventually(t, func() bool { return c.Snapshot().State == StateProcessing },
		time.Second, time.Millisecond)
}

func TestResetDuringUploadDropsResponse(t *testing.T) {
	release := make(chan struct{})
	svc := &stubService{
		uploadFn: func(ctx context.Context, _ string) (api.UploadResult, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return api.UploadResult{FileID: "f1"}, nil
		},
	}
	c := newTestController(t, svc)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), "survey.las") }()
	require.Eventually(t, func() bool { return c.Snapshot().Uploading },
		time.Second, time.Millisecond)

	// Reset lands while the upload is still in flight; the response that
	// arrives afterwards belongs to the discarded attempt.
	c.Reset()
	close(release)
	require.NoError(t, <-done)

	time.Sleep(20 * time.Millisecond)
	s := c.Snapshot()
	assert.Equal(t, StateUpload, s.State)
	assert.Nil(t, s.Job)
	assert.False(t, s.Uploading)
}

func TestFetchResultsNotReady(t *testing.T) {
	c := newTestController(t, &stubService{}, WithMaxIncrement(0)) // progress pinned at 0
	require.NoError(t, c.Submit(context.Background(), "survey.las"))

	err := c.FetchResults(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, StateProcessing, c.Snapshot().State)
}

func TestFetchResultsRetryAfterFailure(t *testing.T) {
	var statsCalls atomic.Int32
	svc := &stubService{
		statusFn: func(_ context.Context, id string) (api.JobStatus, error) {
			return api.JobStatus{FileID: id, Status: api.StatusCompleted}, nil
		},
		statsFn: func(ctx context.Context, id string) (api.Stats, error) {
			if statsCalls.Add(1) == 1 {
				return api.Stats{}, errors.New("File not found or still processing")
			}
			return (&stubService{}).Stats(ctx, id)
		},
	}
	c := newTestController(t, svc)
	mc := collectMessages(t, c)
	require.NoError(t, c.Submit(context.Background(), "survey.las"))
	require.Eventually(t, func() bool { return c.Snapshot().Ready },
		time.Second, time.Millisecond)

	require.Error(t, c.FetchResults(context.Background()))
	assert.Equal(t, StateProcessing, c.Snapshot().State, "failed fetch must not leave processing")
	require.Eventually(t, func() bool { return len(mc.all()) == 1 },
		time.Second, time.Millisecond)

	require.NoError(t, c.FetchResults(context.Background()))
	assert.Equal(t, StateResults, c.Snapshot().State)
}

func TestResetClearsEverything(t *testing.T) {
	svc := &stubService{
		statusFn: func(_ context.Context, id string) (api.JobStatus, error) {
			return api.JobStatus{FileID: id, Status: api.StatusCompleted}, nil
		},
	}
	c := newTestController(t, svc)
	require.NoError(t, c.Submit(context.Background(), "survey.las"))
	require.Eventually(t, func() bool { return c.Snapshot().Ready },
		time.Second, time.Millisecond)
	require.NoError(t, c.FetchResults(context.Background()))
	require.NotNil(t, c.Snapshot().Stats)

	c.Reset()
	s := c.Snapshot()
	assert.Equal(t, StateUpload, s.State)
	assert.Nil(t, s.Job)
	assert.Nil(t, s.Stats, "stale class data must not survive a reset")
	assert.Zero(t, s.Progress)

	// A fresh submission starts clean.
	require.NoError(t, c.Submit(context.Background(), "next.las"))
	s = c.Snapshot()
	assert.Equal(t, StateProcessing, s.State)
	assert.Nil(t, s.Stats)
	assert.Zero(t, s.Progress)
}

func TestResetDuringProcessingStopsTimers(t *testing.T) {
	c := newTestController(t, &stubService{})
	require.NoError(t, c.Submit(context.Background(), "survey.las"))
	require.Eventually(t, func() bool { return c.Snapshot().Progress > 0 },
		time.Second, time.Millisecond)

	c.Reset()
	p := c.Snapshot().Progress
	assert.Zero(t, p)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, c.Snapshot().Progress, "animator kept running after reset")
}

func TestCloseLeavesNoTimersOrMutation(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New(&stubService{},
		WithPollInterval(2*time.Millisecond),
		WithTickInterval(time.Millisecond),
		WithRandSource(rand.NewSource(1)),
	)
	require.NoError(t, c.Submit(context.Background(), "survey.las"))
	require.Eventually(t, func() bool { return c.Snapshot().Progress > 0 },
		time.Second, time.Millisecond)

	c.Close()
	before := c.Snapshot()
	time.Sleep(20 * time.Millisecond)
	after := c.Snapshot()
	assert.Equal(t, before.Progress, after.Progress, "state mutated after teardown")
	assert.Equal(t, before.State, after.State)
}

func TestStageProjectionInSnapshot(t *testing.T) {
	c := newTestController(t, &stubService{}, WithMaxIncrement(0))
	require.NoError(t, c.Submit(context.Background(), "survey.las"))

	s := c.Snapshot()
	require.Len(t, s.Stages, 5)
	assert.Equal(t, "processing", string(s.Stages[0].Status))
	for _, st := range s.Stages[1:] {
		assert.Equal(t, "waiting", string(st.Status))
	}
}
