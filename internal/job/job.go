package job

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tanq16/mediaq/internal/utils"
)

var ErrResolutionRequired = errors.New("video downloads require a resolution")

// Progress is the last reported transfer state of a job. Percent is
// utils.IndeterminatePct while the total size is unknown.
type Progress struct {
	Percent float64
	Status  string
}

func (p Progress) Indeterminate() bool {
	return p.Percent < 0
}

// Result is set once, when the job reaches a terminal state.
type Result struct {
	Filename string
	Message  string
}

// Job is one queued download. Identity fields are immutable after New; the
// mutable block is only touched through atomic operations so the coordinator
// and the worker executing the job never race.
type Job struct {
	ID         string
	URL        string
	Service    utils.ServiceKind
	Mode       utils.DownloadMode
	Resolution utils.Resolution
	CreatedAt  time.Time

	state    atomic.Int32
	cancel   atomic.Bool
	progress atomic.Pointer[Progress]
	result   atomic.Pointer[Result]
}

// New validates url and builds a Queued job. Audio jobs drop any resolution.
func New(url string, mode utils.DownloadMode, res utils.Resolution) (*Job, error) {
	service, err := utils.Classify(url)
	if err != nil {
		return nil, err
	}
	switch mode {
	case utils.ModeVideo:
		if res <= 0 {
			return nil, ErrResolutionRequired
		}
	case utils.ModeAudio:
		res = 0
	default:
		return nil, errors.New("unknown download mode: " + string(mode))
	}
	j := &Job{
		ID:         uuid.New().String(),
		URL:        utils.TrimURL(url),
		Service:    service,
		Mode:       mode,
		Resolution: res,
		CreatedAt:  time.Now(),
	}
	j.state.Store(int32(utils.StateQueued))
	j.progress.Store(&Progress{})
	return j, nil
}

func (j *Job) State() utils.JobState {
	return utils.JobState(j.state.Load())
}

// Start moves the job from Queued to Active. It reports false if the job was
// not Queued.
func (j *Job) Start() bool {
	return j.state.CompareAndSwap(int32(utils.StateQueued), int32(utils.StateActive))
}

// Finish moves an Active job to a terminal state and records its result.
// Only the first call succeeds.
func (j *Job) Finish(state utils.JobState, res Result) bool {
	if !state.IsTerminal() {
		return false
	}
	if !j.state.CompareAndSwap(int32(utils.StateActive), int32(state)) {
		return false
	}
	j.result.Store(&res)
	return true
}

// RequestCancel raises the cancellation flag. It only has an effect while the
// job is Active and reports whether this call raised it.
func (j *Job) RequestCancel() bool {
	if j.State() != utils.StateActive {
		return false
	}
	return j.cancel.CompareAndSwap(false, true)
}

func (j *Job) CancelRequested() bool {
	return j.cancel.Load()
}

func (j *Job) SetProgress(p Progress) {
	j.progress.Store(&p)
}

func (j *Job) Progress() Progress {
	return *j.progress.Load()
}

// Result returns the terminal result, or false while the job is still running.
func (j *Job) Result() (Result, bool) {
	r := j.result.Load()
	if r == nil {
		return Result{}, false
	}
	return *r, true
}

// Label is a short human readable description used by the display and logs.
func (j *Job) Label() string {
	if j.Mode == utils.ModeAudio {
		return j.Service.String() + " audio"
	}
	return j.Service.String() + " " + j.Resolution.String()
}
