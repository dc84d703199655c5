package probe

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mediaq/internal/utils"
)

// Result carries exactly one of a resolution list or an error. Fallback is
// set when the engine answered but exposed no video-bearing format.
type Result struct {
	Resolutions []utils.Resolution
	Fallback    bool
	Err         error
}

// ResolutionsOrDefault is what a caller offers the user: the probed list, or
// the fallback resolution when the probe failed.
func (r Result) ResolutionsOrDefault() []utils.Resolution {
	if r.Err != nil || len(r.Resolutions) == 0 {
		return []utils.Resolution{utils.FallbackResolution}
	}
	return r.Resolutions
}

type Prober struct {
	engine utils.MediaEngine
}

func New(engine utils.MediaEngine) *Prober {
	return &Prober{engine: engine}
}

// Probe queries the engine for metadata only and delivers one Result on the
// returned channel. Concurrent probes are independent of each other.
func (p *Prober) Probe(ctx context.Context, url string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		out <- p.probe(ctx, url)
	}()
	return out
}

func (p *Prober) probe(ctx context.Context, url string) Result {
	info, err := p.engine.Metadata(ctx, url)
	if err != nil {
		log.Debug().Str("op", "probe/probe").Err(err).Str("url", utils.SanitizeForLog(url)).Msg("metadata query failed")
		return Result{Err: utils.NewProbeError(err)}
	}
	if info == nil {
		return Result{Err: utils.NewProbeError(nil)}
	}
	resolutions, fallback := ResolutionsFromFormats(info.Formats)
	log.Debug().Str("op", "probe/probe").Str("url", utils.SanitizeForLog(url)).Int("count", len(resolutions)).Bool("fallback", fallback).Msg("resolutions probed")
	return Result{Resolutions: resolutions, Fallback: fallback}
}

// ResolutionsFromFormats returns the distinct heights of video-bearing formats
// in descending order. With none found it returns the fallback resolution and
// true.
func ResolutionsFromFormats(formats []utils.MediaFormat) ([]utils.Resolution, bool) {
	seen := make(map[utils.Resolution]struct{})
	for _, f := range formats {
		if f.VCodec == "none" || f.Height <= 0 {
			continue
		}
		seen[utils.Resolution(f.Height)] = struct{}{}
	}
	if len(seen) == 0 {
		return []utils.Resolution{utils.FallbackResolution}, true
	}
	resolutions := make([]utils.Resolution, 0, len(seen))
	for r := range seen {
		resolutions = append(resolutions, r)
	}
	sort.Slice(resolutions, func(i, j int) bool {
		return resolutions[i] > resolutions[j]
	})
	return resolutions, false
}

// Latest drops results of probes superseded by a newer request.
type Latest struct {
	prober *Prober
	gen    atomic.Uint64
}

func NewLatest(prober *Prober) *Latest {
	return &Latest{prober: prober}
}

// Request starts a probe for url and calls deliver with its result unless
// another Request was made in the meantime. It reports nothing for stale
// probes.
func (l *Latest) Request(ctx context.Context, url string, deliver func(url string, r Result)) {
	gen := l.gen.Add(1)
	ch := l.prober.Probe(ctx, url)
	go func() {
		r := <-ch
		if l.gen.Load() != gen {
			log.Debug().Str("op", "probe/latest").Str("url", utils.SanitizeForLog(url)).Msg("discarding stale probe result")
			return
		}
		deliver(url, r)
	}()
}
