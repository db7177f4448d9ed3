package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagrab/pkg/config"
	"mediagrab/pkg/logger"
	"mediagrab/pkg/media"
)

// recordingSink captures events for assertions.
type recordingSink struct {
	mu       sync.Mutex
	statuses map[string][]string
	progress map[string][]int
	finished map[string]error
	done     chan string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		statuses: make(map[string][]string),
		progress: make(map[string][]int),
		finished: make(map[string]error),
		done:     make(chan string, 64),
	}
}

func (s *recordingSink) Status(jobID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[jobID] = append(s.statuses[jobID], message)
}

func (s *recordingSink) Progress(jobID string, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[jobID] = append(s.progress[jobID], percent)
}

func (s *recordingSink) Finished(jobID string, err error) {
	s.mu.Lock()
	s.finished[jobID] = err
	s.mu.Unlock()
	s.done <- jobID
}

func (s *recordingSink) ItemFound(media.Item) {}

func (s *recordingSink) finishedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.finished)
}

func settings() config.Config {
	return config.DefaultConfig().Snapshot()
}

func noopRun(ctx context.Context, progress func(int), status func(string)) error {
	return nil
}

func TestEnqueueStartsHeld(t *testing.T) {
	sink := newRecordingSink()
	q := New(2, sink, logger.NewTestLogger())

	id := q.Enqueue("https://a.com/1", "one", settings(), noopRun)

	jobs := q.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, id, jobs[0].ID)
	assert.Equal(t, StatusHeld, jobs[0].Status)
	assert.Zero(t, q.Active(), "held jobs must not be dispatched")
}

func TestConcurrencyCap(t *testing.T) {
	sink := newRecordingSink()
	q := New(2, sink, logger.NewTestLogger())

	var running, peak int32
	run := func(ctx context.Context, progress func(int), status func(string)) error {
		now := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	}

	for i := 0; i < 5; i++ {
		q.Enqueue("https://a.com/x", "x", settings(), run)
	}
	q.MarkAllQueued()
	q.Wait()

	assert.Equal(t, 5, sink.finishedCount(), "every job reaches a terminal state")
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2), "never more than two downloading")
	assert.Empty(t, q.Jobs(), "terminal jobs leave the queue")
}

func TestMarkQueuedSubset(t *testing.T) {
	sink := newRecordingSink()
	q := New(1, sink, logger.NewTestLogger())

	a := q.Enqueue("https://a.com/a", "a", settings(), noopRun)
	b := q.Enqueue("https://a.com/b", "b", settings(), noopRun)

	q.MarkQueued(a)
	<-sink.done

	q.Wait()
	jobs := q.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, b, jobs[0].ID)
	assert.Equal(t, StatusHeld, jobs[0].Status)
	assert.NoError(t, sink.finished[a])
}

func TestFailedJobReportsError(t *testing.T) {
	sink := newRecordingSink()
	q := New(1, sink, logger.NewTestLogger())

	boom := errors.New("download broke")
	id := q.Enqueue("https://a.com/a", "a", settings(), func(context.Context, func(int), func(string)) error {
		return boom
	})
	q.MarkAllQueued()
	q.Wait()

	assert.ErrorIs(t, sink.finished[id], boom)
	assert.Empty(t, q.Jobs())
}

func TestProgressMonotonicPerJob(t *testing.T) {
	sink := newRecordingSink()
	q := New(1, sink, logger.NewTestLogger())

	// A primary leg dying mid-transfer restarts the fallback's percentage
	// near zero; the job's observable progress must still never regress.
	id := q.Enqueue("https://a.com/a", "a", settings(), func(_ context.Context, progress func(int), _ func(string)) error {
		for _, p := range []int{5, 40, 72, 3, 10, 55, 80, 130} {
			progress(p)
		}
		return nil
	})
	q.MarkAllQueued()
	q.Wait()

	sink.mu.Lock()
	got := sink.progress[id]
	sink.mu.Unlock()

	assert.Equal(t, []int{5, 40, 72, 80, 100}, got)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1])
	}
}

func TestPromoteToFront(t *testing.T) {
	sink := newRecordingSink()
	q := New(1, sink, logger.NewTestLogger())

	a := q.Enqueue("https://a.com/a", "a", settings(), noopRun)
	b := q.Enqueue("https://a.com/b", "b", settings(), noopRun)
	c := q.Enqueue("https://a.com/c", "c", settings(), noopRun)

	q.PromoteToFront(c, b)

	jobs := q.Jobs()
	require.Len(t, jobs, 3)
	// Named jobs lead, preserving their relative order; statuses untouched.
	assert.Equal(t, []string{c, b, a}, []string{jobs[0].ID, jobs[1].ID, jobs[2].ID})
	for _, j := range jobs {
		assert.Equal(t, StatusHeld, j.Status)
	}
}

func TestPromotedJobRunsFirst(t *testing.T) {
	sink := newRecordingSink()
	q := New(1, sink, logger.NewTestLogger())

	var order []string
	var mu sync.Mutex
	record := func(name string) RunFunc {
		return func(context.Context, func(int), func(string)) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	q.Enqueue("https://a.com/a", "a", settings(), record("a"))
	b := q.Enqueue("https://a.com/b", "b", settings(), record("b"))
	q.PromoteToFront(b)
	q.MarkAllQueued()
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestSetConcurrencyDispatches(t *testing.T) {
	sink := newRecordingSink()
	q := New(1, sink, logger.NewTestLogger())

	block := make(chan struct{})
	waiting := func(ctx context.Context, progress func(int), status func(string)) error {
		<-block
		return nil
	}
	q.Enqueue("https://a.com/a", "a", settings(), waiting)
	q.Enqueue("https://a.com/b", "b", settings(), waiting)
	q.MarkAllQueued()

	assert.Eventually(t, func() bool { return q.Active() == 1 }, time.Second, 5*time.Millisecond)

	q.SetConcurrency(2)
	assert.Eventually(t, func() bool { return q.Active() == 2 }, time.Second, 5*time.Millisecond)

	close(block)
	q.Wait()
	assert.Equal(t, 2, sink.finishedCount())
}

func TestShutdownFiresAfterDrain(t *testing.T) {
	sink := newRecordingSink()
	q := New(1, sink, logger.NewTestLogger())

	fired := make(chan struct{})
	q.SetShutdownFunc(func() { close(fired) }, 0)

	cfg := settings()
	cfg.System.Shutdown = true
	q.Enqueue("https://a.com/a", "a", cfg, noopRun)
	q.MarkAllQueued()
	q.Wait()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("shutdown func did not fire")
	}
}

func TestShutdownNotRequested(t *testing.T) {
	sink := newRecordingSink()
	q := New(1, sink, logger.NewTestLogger())

	fired := make(chan struct{})
	q.SetShutdownFunc(func() { close(fired) }, 0)

	q.Enqueue("https://a.com/a", "a", settings(), noopRun)
	q.MarkAllQueued()
	q.Wait()

	select {
	case <-fired:
		t.Fatal("shutdown must not fire when not requested")
	case <-time.After(50 * time.Millisecond):
	}
}
