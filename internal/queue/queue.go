// Package queue implements the download queue: a reorderable job arena with
// a bounded worker dispatch loop. Jobs move held -> queued -> downloading
// and leave the arena as soon as they reach a terminal state.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediagrab/pkg/config"
	"mediagrab/pkg/events"
	"mediagrab/pkg/logger"
)

// Status is the lifecycle state of a download job.
type Status string

const (
	StatusHeld        Status = "held"
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// RunFunc performs the actual download for a job. progress receives whole
// percentages, status receives human-readable state messages.
type RunFunc func(ctx context.Context, progress func(percent int), status func(msg string)) error

// Job is one queued download.
type Job struct {
	ID       string
	URL      string
	Title    string
	Status   Status
	Settings config.Config
	Run      RunFunc
}

// Queue is the reorderable download queue. All exported methods are safe
// for concurrent use.
type Queue struct {
	mu          sync.Mutex
	jobs        map[string]*Job
	order       []string
	active      int
	concurrency int
	lastShut    bool

	sink events.Sink
	log  logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// shutdownFn fires after shutdownGrace once the queue drains and the
	// last finished job requested system shutdown.
	shutdownFn    func()
	shutdownGrace time.Duration
}

// New creates a queue running at most concurrency downloads at once.
func New(concurrency int, sink events.Sink, log logger.Logger) *Queue {
	if concurrency < 1 {
		concurrency = 1
	}
	if sink == nil {
		sink = events.Nop{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		jobs:        make(map[string]*Job),
		concurrency: concurrency,
		sink:        sink,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetShutdownFunc installs the system shutdown action, fired grace after the
// queue drains when the last job's settings requested it.
func (q *Queue) SetShutdownFunc(fn func(), grace time.Duration) {
	q.mu.Lock()
	q.shutdownFn = fn
	q.shutdownGrace = grace
	q.mu.Unlock()
}

// Enqueue adds a job in held state and returns its id. Held jobs are not
// dispatched until released with MarkQueued or MarkAllQueued.
func (q *Queue) Enqueue(url, title string, settings config.Config, run RunFunc) string {
	job := &Job{
		ID:       uuid.NewString(),
		URL:      url,
		Title:    title,
		Status:   StatusHeld,
		Settings: settings,
		Run:      run,
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.order = append(q.order, job.ID)
	q.mu.Unlock()

	q.sink.Status(job.ID, string(StatusHeld))
	q.log.DebugWithFields("job enqueued", map[string]interface{}{
		"job_id": job.ID,
		"url":    url,
	})
	return job.ID
}

// MarkQueued releases the named held jobs for download. Unknown ids and
// jobs already past held are ignored.
func (q *Queue) MarkQueued(ids ...string) {
	q.mu.Lock()
	released := make([]string, 0, len(ids))
	for _, id := range ids {
		if job, ok := q.jobs[id]; ok && job.Status == StatusHeld {
			job.Status = StatusQueued
			released = append(released, id)
		}
	}
	q.mu.Unlock()

	for _, id := range released {
		q.sink.Status(id, string(StatusQueued))
	}
	q.dispatch()
}

// MarkAllQueued releases every held job for download.
func (q *Queue) MarkAllQueued() {
	q.mu.Lock()
	released := make([]string, 0, len(q.order))
	for _, id := range q.order {
		if job := q.jobs[id]; job != nil && job.Status == StatusHeld {
			job.Status = StatusQueued
			released = append(released, id)
		}
	}
	q.mu.Unlock()

	for _, id := range released {
		q.sink.Status(id, string(StatusQueued))
	}
	q.dispatch()
}

// PromoteToFront reorders the queue so the named jobs precede all others,
// preserving their relative order among themselves. Statuses are untouched.
func (q *Queue) PromoteToFront(ids ...string) {
	named := make(map[string]bool, len(ids))
	for _, id := range ids {
		named[id] = true
	}

	q.mu.Lock()
	front := make([]string, 0, len(ids))
	rest := make([]string, 0, len(q.order))
	for _, id := range q.order {
		if named[id] {
			front = append(front, id)
		} else {
			rest = append(rest, id)
		}
	}
	q.order = append(front, rest...)
	q.mu.Unlock()
}

// SetConcurrency adjusts the worker cap at runtime. Raising it dispatches
// immediately; lowering it takes effect as running jobs finish.
func (q *Queue) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	q.mu.Lock()
	q.concurrency = n
	q.mu.Unlock()
	q.dispatch()
}

// Jobs returns a snapshot of all jobs in queue order.
func (q *Queue) Jobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, 0, len(q.order))
	for _, id := range q.order {
		if job := q.jobs[id]; job != nil {
			out = append(out, *job)
		}
	}
	return out
}

// Active reports the number of jobs currently downloading.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Wait blocks until every released job has finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Stop cancels running downloads and waits for workers to exit. Held and
// queued jobs stay in the arena.
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
}

// dispatch hands queued jobs to workers until the concurrency cap is
// reached. Re-invoked after every completion so the pool stays saturated.
func (q *Queue) dispatch() {
	for {
		q.mu.Lock()
		if q.active >= q.concurrency {
			q.mu.Unlock()
			return
		}
		var next *Job
		for _, id := range q.order {
			if job := q.jobs[id]; job != nil && job.Status == StatusQueued {
				next = job
				break
			}
		}
		if next == nil {
			q.mu.Unlock()
			return
		}
		next.Status = StatusDownloading
		q.active++
		q.wg.Add(1)
		q.mu.Unlock()

		q.sink.Status(next.ID, string(StatusDownloading))
		go q.runJob(next)
	}
}

func (q *Queue) runJob(job *Job) {
	defer q.wg.Done()

	// Progress is clamped to [0, 100] and never regresses: fallback download
	// legs restart their own percentage from zero for the same job.
	var progressMu sync.Mutex
	reported := 0
	progress := func(percent int) {
		if percent > 100 {
			percent = 100
		}
		if percent < 0 {
			percent = 0
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		if percent < reported {
			return
		}
		reported = percent
		q.sink.Progress(job.ID, percent)
	}

	err := job.Run(q.ctx, progress,
		func(msg string) { q.sink.Status(job.ID, msg) },
	)

	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		q.log.WarnWithFields("job failed", map[string]interface{}{
			"job_id": job.ID,
			"url":    job.URL,
			"error":  err.Error(),
		})
	}

	q.mu.Lock()
	job.Status = status
	delete(q.jobs, job.ID)
	for i, id := range q.order {
		if id == job.ID {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	q.active--
	q.lastShut = job.Settings.System.Shutdown
	drained := len(q.jobs) == 0 && q.active == 0
	shutdownFn := q.shutdownFn
	grace := q.shutdownGrace
	wantShutdown := drained && q.lastShut && shutdownFn != nil
	q.mu.Unlock()

	q.sink.Finished(job.ID, err)
	q.dispatch()

	if wantShutdown {
		q.log.Info("queue drained, scheduling system shutdown")
		go func() {
			if grace > 0 {
				time.Sleep(grace)
			}
			shutdownFn()
		}()
	}
}
