package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mediaq/internal/job"
	"github.com/tanq16/mediaq/internal/utils"
)

// Terminal is the single outcome of one Execute call.
type Terminal struct {
	State    utils.JobState
	Filename string
	Message  string
}

type Executor struct {
	engine    utils.MediaEngine
	outputDir string
}

func New(engine utils.MediaEngine, outputDir string) *Executor {
	return &Executor{engine: engine, outputDir: outputDir}
}

// BuildRequest maps a job onto the engine's request vocabulary.
func BuildRequest(j *job.Job, outputDir string) utils.DownloadRequest {
	req := utils.DownloadRequest{
		URL:           j.URL,
		SocketTimeout: utils.EngineSocketTimeout,
		Retries:       utils.EngineRetries,
		FragRetries:   utils.EngineFragRetries,
		RetrySleep:    utils.EngineRetrySleep,
	}
	if j.Mode == utils.ModeAudio {
		req.Format = "bestaudio/best"
		req.OutputTemplate = filepath.Join(outputDir, utils.AudioTemplate)
		req.ExtractAudio = true
		req.AudioFormat = utils.AudioCodec
		req.AudioQuality = utils.AudioBitrate
		return req
	}
	height := int(j.Resolution)
	req.Format = fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height)
	req.OutputTemplate = filepath.Join(outputDir, utils.VideoTemplate)
	req.MergeFormat = utils.VideoContainer
	req.RecodeVideo = utils.VideoContainer
	return req
}

// Execute runs j to completion. onProgress sees every normalized progress
// update in order; the returned Terminal is the only terminal outcome. The
// caller owns the Queued to Active transition; Execute records the terminal
// one on the job.
func (e *Executor) Execute(ctx context.Context, j *job.Job, onProgress func(job.Progress)) Terminal {
	term := e.run(ctx, j, onProgress)
	j.Finish(term.State, job.Result{Filename: term.Filename, Message: term.Message})
	return term
}

func (e *Executor) run(ctx context.Context, j *job.Job, onProgress func(job.Progress)) Terminal {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return Terminal{State: utils.StateFailed, Message: utils.ClassifyExecutionError(err).Error()}
	}
	tracker := &progressTracker{}
	callback := func(p utils.EngineProgress) error {
		if j.CancelRequested() {
			return utils.ErrCancelledByUser
		}
		update, ok := tracker.normalize(p)
		if !ok {
			return nil
		}
		j.SetProgress(update)
		if onProgress != nil {
			onProgress(update)
		}
		return nil
	}

	log.Debug().Str("op", "executor/execute").Str("job", j.ID).Str("url", utils.SanitizeForLog(j.URL)).Str("mode", string(j.Mode)).Msg("starting download")
	filename, err := e.engine.Download(ctx, BuildRequest(j, e.outputDir), callback)
	if err != nil {
		if errors.Is(err, utils.ErrCancelledByUser) || j.CancelRequested() || ctx.Err() != nil {
			log.Info().Str("op", "executor/execute").Str("job", j.ID).Msg("download cancelled")
			return Terminal{State: utils.StateCancelled, Message: utils.CancelledMessage}
		}
		classified := utils.ClassifyExecutionError(err)
		log.Error().Str("op", "executor/execute").Str("job", j.ID).Str("category", classified.Category.String()).Msg(utils.SanitizeForLog(err.Error()))
		return Terminal{State: utils.StateFailed, Message: classified.Error()}
	}
	if filename != "" {
		filename = filepath.Base(filename)
	} else {
		filename = utils.DisplayFilename(tracker.lastFilename, j.Mode)
	}
	log.Info().Str("op", "executor/execute").Str("job", j.ID).Str("file", filename).Msg("download succeeded")
	return Terminal{State: utils.StateSucceeded, Filename: filename}
}

// progressTracker turns raw engine ticks into percentages that never move
// backwards within one job, even when the engine starts a second stream.
type progressTracker struct {
	high         float64
	lastFilename string
}

func (t *progressTracker) normalize(p utils.EngineProgress) (job.Progress, bool) {
	switch p.Status {
	case "downloading":
		total := p.TotalBytes
		if total <= 0 {
			total = p.TotalBytesEstimate
		}
		if total <= 0 {
			return job.Progress{Percent: utils.IndeterminatePct, Status: utils.StatusDownloading}, true
		}
		pct := math.Round(float64(p.DownloadedBytes)/float64(total)*1000) / 10
		pct = math.Max(t.high, math.Min(100, pct))
		t.high = pct
		return job.Progress{Percent: pct, Status: utils.StatusDownloading}, true
	case "finished":
		if p.Filename != "" {
			t.lastFilename = filepath.Base(p.Filename)
		}
		t.high = 100
		return job.Progress{Percent: 100, Status: utils.StatusPostProcessing}, true
	}
	if strings.TrimSpace(p.Status) != "" {
		log.Debug().Str("op", "executor/progress").Str("status", p.Status).Msg("ignoring engine status")
	}
	return job.Progress{}, false
}
