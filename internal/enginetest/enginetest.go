// Package enginetest provides a scripted utils.MediaEngine for tests.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tanq16/mediaq/internal/utils"
)

// Script describes how one URL behaves. With Hold set the engine keeps
// repeating the last step until Hold is closed, the progress callback fails
// or the context ends.
type Script struct {
	Steps    []utils.EngineProgress
	Filename string
	Err      error
	Hold     chan struct{}
	Tick     time.Duration
}

type Engine struct {
	mu        sync.Mutex
	scripts   map[string]Script
	infos     map[string]*utils.MediaInfo
	requests  []utils.DownloadRequest
	abortErrs []error
	started   chan string
}

func New() *Engine {
	return &Engine{
		scripts: make(map[string]Script),
		infos:   make(map[string]*utils.MediaInfo),
		started: make(chan string, 64),
	}
}

func (e *Engine) Script(url string, s Script) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripts[url] = s
}

func (e *Engine) Info(url string, info *utils.MediaInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.infos[url] = info
}

// Started yields the URL of every download as it begins.
func (e *Engine) Started() <-chan string {
	return e.started
}

func (e *Engine) Requests() []utils.DownloadRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]utils.DownloadRequest(nil), e.requests...)
}

// AbortErrors are the errors progress callbacks returned to abort downloads.
func (e *Engine) AbortErrors() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]error(nil), e.abortErrs...)
}

func (e *Engine) Metadata(ctx context.Context, url string) (*utils.MediaInfo, error) {
	e.mu.Lock()
	info, ok := e.infos[url]
	e.mu.Unlock()
	if !ok {
		return nil, errors.New("ERROR: Unsupported URL: " + url)
	}
	return info, nil
}

func (e *Engine) Download(ctx context.Context, req utils.DownloadRequest, progress utils.ProgressFunc) (string, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	s, ok := e.scripts[req.URL]
	e.mu.Unlock()
	e.started <- req.URL
	if !ok {
		return "", errors.New("ERROR: no script for " + req.URL)
	}
	for _, step := range s.Steps {
		if err := progress(step); err != nil {
			return "", e.abort(err)
		}
	}
	if s.Hold != nil {
		if err := e.hold(ctx, s, progress); err != nil {
			return "", err
		}
	}
	return s.Filename, s.Err
}

func (e *Engine) hold(ctx context.Context, s Script, progress utils.ProgressFunc) error {
	tick := s.Tick
	if tick <= 0 {
		tick = 5 * time.Millisecond
	}
	last := utils.EngineProgress{Status: "downloading"}
	if len(s.Steps) > 0 {
		last = s.Steps[len(s.Steps)-1]
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-s.Hold:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("interrupted: %w", ctx.Err())
		case <-ticker.C:
			if err := progress(last); err != nil {
				return e.abort(err)
			}
		}
	}
}

func (e *Engine) abort(err error) error {
	e.mu.Lock()
	e.abortErrs = append(e.abortErrs, err)
	e.mu.Unlock()
	return fmt.Errorf("download aborted: %w", err)
}

// Downloading builds a determinate progress tick.
func Downloading(file string, done, total int64) utils.EngineProgress {
	return utils.EngineProgress{Status: "downloading", Filename: file, DownloadedBytes: done, TotalBytes: total}
}

func Finished(file string) utils.EngineProgress {
	return utils.EngineProgress{Status: "finished", Filename: file}
}
