package scheduler

import (
	"github.com/tanq16/mediaq/internal/executor"
	"github.com/tanq16/mediaq/internal/job"
)

// Sink receives orchestrator events. All methods are called from the
// coordinator goroutine, one at a time; implementations must not call back
// into the Orchestrator synchronously.
type Sink interface {
	OnProgress(j *job.Job, p job.Progress)
	OnJobTerminal(j *job.Job, t executor.Terminal)
	OnQueueChanged(s Snapshot)
	OnRunSummary(s Summary)
}

// SinkFuncs adapts plain functions to Sink; nil fields are skipped.
type SinkFuncs struct {
	Progress     func(j *job.Job, p job.Progress)
	Terminal     func(j *job.Job, t executor.Terminal)
	QueueChanged func(s Snapshot)
	RunSummary   func(s Summary)
}

func (f SinkFuncs) OnProgress(j *job.Job, p job.Progress) {
	if f.Progress != nil {
		f.Progress(j, p)
	}
}

func (f SinkFuncs) OnJobTerminal(j *job.Job, t executor.Terminal) {
	if f.Terminal != nil {
		f.Terminal(j, t)
	}
}

func (f SinkFuncs) OnQueueChanged(s Snapshot) {
	if f.QueueChanged != nil {
		f.QueueChanged(s)
	}
}

func (f SinkFuncs) OnRunSummary(s Summary) {
	if f.RunSummary != nil {
		f.RunSummary(s)
	}
}

// MultiSink fans every event out to each sink in order.
type MultiSink []Sink

func (m MultiSink) OnProgress(j *job.Job, p job.Progress) {
	for _, s := range m {
		s.OnProgress(j, p)
	}
}

func (m MultiSink) OnJobTerminal(j *job.Job, t executor.Terminal) {
	for _, s := range m {
		s.OnJobTerminal(j, t)
	}
}

func (m MultiSink) OnQueueChanged(snap Snapshot) {
	for _, s := range m {
		s.OnQueueChanged(snap)
	}
}

func (m MultiSink) OnRunSummary(sum Summary) {
	for _, s := range m {
		s.OnRunSummary(sum)
	}
}
