package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mediaq/internal/downloaders/ytdlp"
	"github.com/tanq16/mediaq/internal/executor"
	"github.com/tanq16/mediaq/internal/output"
	"github.com/tanq16/mediaq/internal/scheduler"
	"github.com/tanq16/mediaq/internal/settings"
	"github.com/tanq16/mediaq/internal/utils"
)

var errDownloadsFailed = errors.New("encountered failed download(s)")

type downloadRequest struct {
	URL        string
	Mode       utils.DownloadMode
	Resolution utils.Resolution
}

// resolveRequest fills mode and resolution from the stored settings when the
// caller left them empty.
func resolveRequest(current settings.Settings, url, mode, resolution string) (downloadRequest, error) {
	req := downloadRequest{URL: url, Mode: current.Mode(), Resolution: current.Resolution()}
	if mode != "" {
		m, err := utils.ParseDownloadMode(mode)
		if err != nil {
			return req, err
		}
		req.Mode = m
	}
	if resolution != "" {
		r, err := utils.ParseResolution(resolution)
		if err != nil {
			return req, err
		}
		req.Resolution = r
	}
	return req, nil
}

func remember(st *settings.Store, req downloadRequest) error {
	if req.Mode == utils.ModeAudio {
		return st.Remember(req.Mode, 0)
	}
	return st.Remember(req.Mode, req.Resolution)
}

// runDownloads queues every request, runs the queue to completion and
// renders it. It fails when nothing could be queued or any job failed.
func runDownloads(ctx context.Context, reqs []downloadRequest) error {
	engine, err := ytdlp.New(ctx, engineConfig())
	if err != nil {
		return err
	}
	mgr := output.NewManager(os.Stdout, output.IsTerminal())
	orch := scheduler.New(executor.New(engine, outputDir), mgr, scheduler.Config{OutputDir: outputDir})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- orch.Run(runCtx) }()

	accepted := 0
	for _, req := range reqs {
		if _, err := orch.Submit(req.URL, req.Mode, req.Resolution); err != nil {
			log.Warn().Str("op", "cmd/run").Str("url", utils.SanitizeForLog(req.URL)).Err(err).Msg("rejected")
			output.PrintError(fmt.Sprintf("Skipping %s: %v", utils.ShortenURL(req.URL), err))
			continue
		}
		accepted++
		if err := remember(store, req); err != nil {
			log.Warn().Str("op", "cmd/run").Err(err).Msg("could not save settings")
		}
	}
	if accepted == 0 {
		cancel()
		<-runErr
		return errors.New("no valid downloads to run")
	}
	log.Debug().Str("op", "cmd/run").Msgf("Starting queue with %d jobs", accepted)

	mgr.StartDisplay()
	if err := orch.StartAll(); err != nil {
		log.Error().Str("op", "cmd/run").Err(err).Msg("could not start queue")
	}
	// An interrupt cancels runCtx through ctx; the coordinator still records
	// the cancelled job and emits the summary before Wait returns.
	waitErr := orch.Wait(context.Background())
	mgr.StopDisplay()
	cancel()
	<-runErr
	if waitErr != nil && !errors.Is(waitErr, scheduler.ErrStopped) {
		return waitErr
	}
	if mgr.Failures() > 0 {
		return errDownloadsFailed
	}
	return ctx.Err()
}
