package scheduler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mediaq/internal/executor"
	"github.com/tanq16/mediaq/internal/job"
	"github.com/tanq16/mediaq/internal/utils"
)

var (
	ErrQueueEmpty      = errors.New("queue is empty")
	ErrNoActiveJob     = errors.New("no active download")
	ErrJobActive       = errors.New("cannot remove the active download")
	ErrIndexOutOfRange = errors.New("queue index out of range")
	ErrStopped         = errors.New("orchestrator stopped")
)

// Runner executes a single job; *executor.Executor is the production one.
type Runner interface {
	Execute(ctx context.Context, j *job.Job, onProgress func(job.Progress)) executor.Terminal
}

type Config struct {
	OutputDir string
	Workers   int
}

// Snapshot is a point-in-time view of the queue. Active is nil when idle.
type Snapshot struct {
	Active *job.Job
	Queued []*job.Job
}

// Jobs lists the active job first, followed by the queued ones. Indexes into
// this list are the ones RemoveQueued accepts.
func (s Snapshot) Jobs() []*job.Job {
	jobs := make([]*job.Job, 0, len(s.Queued)+1)
	if s.Active != nil {
		jobs = append(jobs, s.Active)
	}
	return append(jobs, s.Queued...)
}

type SuccessEntry struct {
	Filename string
	URL      string
}

type FailureEntry struct {
	URL     string
	Message string
}

// Summary accumulates outcomes across one full drain of the queue.
type Summary struct {
	Succeeded []SuccessEntry
	Failed    []FailureEntry
}

func (s Summary) Empty() bool {
	return len(s.Succeeded) == 0 && len(s.Failed) == 0
}

type workerEvent struct {
	job      *job.Job
	progress *job.Progress
	terminal *executor.Terminal
}

// Orchestrator owns the queue and the run summary. Both are only touched by
// the coordinator goroutine started with Run; every public method hands a
// closure to it and waits for the answer.
type Orchestrator struct {
	runner Runner
	sink   Sink
	cfg    Config

	cmdCh   chan func()
	eventCh chan workerEvent
	stopped chan struct{}

	// coordinator-owned
	ctx     context.Context
	pool    *Pool
	queue   []*job.Job
	active  *job.Job
	summary Summary
	waiters []chan struct{}
}

func New(runner Runner, sink Sink, cfg Config) *Orchestrator {
	if sink == nil {
		sink = SinkFuncs{}
	}
	return &Orchestrator{
		runner:  runner,
		sink:    sink,
		cfg:     cfg,
		cmdCh:   make(chan func()),
		eventCh: make(chan workerEvent),
		stopped: make(chan struct{}),
	}
}

// Run is the coordinator loop and must be running for any other method to
// return. When ctx is done the queued jobs are dropped and the active job,
// whose context is ctx, is drained to its terminal event before Run returns.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.ctx = ctx
	o.pool = NewPool(o.cfg.Workers)
	log.Debug().Str("op", "scheduler/run").Msg("coordinator started")
	for {
		select {
		case cmd := <-o.cmdCh:
			cmd()
		case ev := <-o.eventCh:
			o.handleEvent(ev)
		case <-ctx.Done():
			o.shutdown()
			return ctx.Err()
		}
	}
}

// shutdown stops taking commands, records the active job's outcome through
// the normal terminal path and only then releases blocked callers.
func (o *Orchestrator) shutdown() {
	if n := len(o.queue); n > 0 {
		o.queue = nil
		log.Info().Str("op", "scheduler/shutdown").Int("dropped", n).Msg("dropping queued jobs")
		o.sink.OnQueueChanged(o.snapshot())
	}
	for o.active != nil {
		o.handleEvent(<-o.eventCh)
	}
	close(o.stopped)
	o.pool.Close()
	for _, w := range o.waiters {
		close(w)
	}
	o.waiters = nil
	log.Debug().Str("op", "scheduler/run").Msg("coordinator stopped")
}

func (o *Orchestrator) exec(fn func()) error {
	done := make(chan struct{})
	select {
	case o.cmdCh <- func() { fn(); close(done) }:
	case <-o.stopped:
		return ErrStopped
	}
	<-done
	return nil
}

// Enqueue appends a Queued job to the tail. It never starts anything.
func (o *Orchestrator) Enqueue(j *job.Job) error {
	if j.State() != utils.StateQueued {
		return errors.New("only queued jobs can be enqueued")
	}
	return o.exec(func() {
		o.queue = append(o.queue, j)
		log.Debug().Str("op", "scheduler/enqueue").Str("job", j.ID).Str("url", utils.SanitizeForLog(j.URL)).Int("queued", len(o.queue)).Msg("job enqueued")
		o.sink.OnQueueChanged(o.snapshot())
	})
}

// Submit validates the request, builds the job and enqueues it. Rejected URLs
// never reach the queue.
func (o *Orchestrator) Submit(url string, mode utils.DownloadMode, res utils.Resolution) (*job.Job, error) {
	j, err := job.New(url, mode, res)
	if err != nil {
		return nil, err
	}
	if err := o.Enqueue(j); err != nil {
		return nil, err
	}
	return j, nil
}

// StartAll starts the head job if nothing is active. With a job already
// active it is a no-op since the queue keeps advancing on its own.
func (o *Orchestrator) StartAll() error {
	var err error
	if execErr := o.exec(func() {
		if o.active != nil {
			return
		}
		if len(o.queue) == 0 {
			err = ErrQueueEmpty
			return
		}
		o.startNext()
	}); execErr != nil {
		return execErr
	}
	return err
}

// CancelActive raises the cancellation flag of the active job. Removal
// happens when its terminal event arrives.
func (o *Orchestrator) CancelActive() error {
	var err error
	if execErr := o.exec(func() {
		if o.active == nil {
			err = ErrNoActiveJob
			return
		}
		if o.active.RequestCancel() {
			log.Info().Str("op", "scheduler/cancel").Str("job", o.active.ID).Msg("cancellation requested")
		}
	}); execErr != nil {
		return execErr
	}
	return err
}

// RemoveQueued removes the job at index of Snapshot.Jobs. The active job
// cannot be removed.
func (o *Orchestrator) RemoveQueued(index int) (*job.Job, error) {
	var (
		removed *job.Job
		err     error
	)
	if execErr := o.exec(func() {
		pos := index
		if o.active != nil {
			if index == 0 {
				err = ErrJobActive
				return
			}
			pos--
		}
		if pos < 0 || pos >= len(o.queue) {
			err = ErrIndexOutOfRange
			return
		}
		removed = o.queue[pos]
		o.queue = append(o.queue[:pos], o.queue[pos+1:]...)
		log.Debug().Str("op", "scheduler/remove").Str("job", removed.ID).Msg("job removed")
		o.sink.OnQueueChanged(o.snapshot())
	}); execErr != nil {
		return nil, execErr
	}
	return removed, err
}

// ClearQueued drops every queued job and returns how many were dropped. The
// active job keeps running.
func (o *Orchestrator) ClearQueued() (int, error) {
	var n int
	err := o.exec(func() {
		n = len(o.queue)
		if n == 0 {
			return
		}
		o.queue = nil
		log.Debug().Str("op", "scheduler/clear").Int("removed", n).Msg("queue cleared")
		o.sink.OnQueueChanged(o.snapshot())
	})
	return n, err
}

func (o *Orchestrator) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := o.exec(func() {
		snap = o.snapshot()
	})
	return snap, err
}

// Wait blocks until no job is active and the queue is empty, or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	idle := make(chan struct{})
	if err := o.exec(func() {
		if o.active == nil && len(o.queue) == 0 {
			close(idle)
			return
		}
		o.waiters = append(o.waiters, idle)
	}); err != nil {
		return err
	}
	select {
	case <-idle:
		select {
		case <-o.stopped:
			return ErrStopped
		default:
			return nil
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) snapshot() Snapshot {
	queued := make([]*job.Job, len(o.queue))
	copy(queued, o.queue)
	return Snapshot{Active: o.active, Queued: queued}
}

func (o *Orchestrator) startNext() {
	j := o.queue[0]
	o.queue = o.queue[1:]
	if !j.Start() {
		log.Warn().Str("op", "scheduler/start").Str("job", j.ID).Str("state", j.State().String()).Msg("skipping job that is not queued")
		o.advance()
		return
	}
	o.active = j
	log.Info().Str("op", "scheduler/start").Str("job", j.ID).Str("url", utils.SanitizeForLog(j.URL)).Msg("job started")
	o.sink.OnQueueChanged(o.snapshot())
	ctx := o.ctx
	o.pool.Submit(func() {
		term := o.runner.Execute(ctx, j, func(p job.Progress) {
			o.send(workerEvent{job: j, progress: &p})
		})
		o.send(workerEvent{job: j, terminal: &term})
	})
}

func (o *Orchestrator) send(ev workerEvent) {
	select {
	case o.eventCh <- ev:
	case <-o.stopped:
	}
}

func (o *Orchestrator) handleEvent(ev workerEvent) {
	if ev.job != o.active {
		log.Warn().Str("op", "scheduler/event").Str("job", ev.job.ID).Msg("event for a job that is not active")
		return
	}
	if ev.progress != nil {
		o.sink.OnProgress(ev.job, *ev.progress)
		return
	}
	term := *ev.terminal
	switch term.State {
	case utils.StateSucceeded:
		o.summary.Succeeded = append(o.summary.Succeeded, SuccessEntry{Filename: term.Filename, URL: ev.job.URL})
	case utils.StateCancelled:
		o.summary.Failed = append(o.summary.Failed, FailureEntry{URL: ev.job.URL, Message: utils.CancelledMessage})
	default:
		o.summary.Failed = append(o.summary.Failed, FailureEntry{URL: ev.job.URL, Message: term.Message})
	}
	o.active = nil
	log.Info().Str("op", "scheduler/event").Str("job", ev.job.ID).Str("state", term.State.String()).Msg("job finished")
	o.sink.OnJobTerminal(ev.job, term)
	o.advance()
}

// advance starts the next job, or closes the run when the queue is drained.
func (o *Orchestrator) advance() {
	if len(o.queue) > 0 {
		o.startNext()
		return
	}
	o.sink.OnQueueChanged(o.snapshot())
	if removed, err := utils.CleanPartials(o.cfg.OutputDir); err != nil {
		log.Warn().Str("op", "scheduler/advance").Err(err).Msg("failed to clean partial files")
	} else if len(removed) > 0 {
		log.Debug().Str("op", "scheduler/advance").Int("removed", len(removed)).Msg("partial files cleaned")
	}
	if !o.summary.Empty() {
		o.sink.OnRunSummary(o.summary)
		o.summary = Summary{}
	}
	for _, w := range o.waiters {
		close(w)
	}
	o.waiters = nil
}
