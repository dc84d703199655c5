package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/mediaq/internal/enginetest"
	"github.com/tanq16/mediaq/internal/executor"
	"github.com/tanq16/mediaq/internal/probe"
	"github.com/tanq16/mediaq/internal/scheduler"
	"github.com/tanq16/mediaq/internal/settings"
	"github.com/tanq16/mediaq/internal/utils"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseBatch(t *testing.T) {
	data := []byte(`
- link: https://youtu.be/aaaaaaaaaaa
- link: https://ok.ru/video/123
  mode: audio
- link: https://vk.com/video-1_2
  resolution: 1080p
- mode: audio
- link: https://youtu.be/bbbbbbbbbbb
  resolution: huge
`)
	entries, err := parseBatch(data)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "audio", entries[1].Mode)

	current := settings.Settings{DownloadMode: "video", LastResolution: "480p"}
	reqs := buildRequestsFromBatch(current, entries)
	assert.Equal(t, []downloadRequest{
		{URL: "https://youtu.be/aaaaaaaaaaa", Mode: utils.ModeVideo, Resolution: 480},
		{URL: "https://ok.ru/video/123", Mode: utils.ModeAudio, Resolution: 480},
		{URL: "https://vk.com/video-1_2", Mode: utils.ModeVideo, Resolution: 1080},
	}, reqs)

	_, err = parseBatch([]byte("link: [oops"))
	assert.Error(t, err)
}

func TestBuildRequestsFromBatch_ResolutionImpliesVideo(t *testing.T) {
	current := settings.Settings{DownloadMode: "audio", LastResolution: "480p"}
	entries := []utils.DownloadEntry{
		{URL: "https://youtu.be/aaaaaaaaaaa", Resolution: "1080p"},
		{URL: "https://youtu.be/bbbbbbbbbbb"},
		{URL: "https://youtu.be/ccccccccccc", Mode: "audio", Resolution: "1080p"},
	}
	assert.Equal(t, []downloadRequest{
		{URL: "https://youtu.be/aaaaaaaaaaa", Mode: utils.ModeVideo, Resolution: 1080},
		{URL: "https://youtu.be/bbbbbbbbbbb", Mode: utils.ModeAudio, Resolution: 480},
		{URL: "https://youtu.be/ccccccccccc", Mode: utils.ModeAudio, Resolution: 1080},
	}, buildRequestsFromBatch(current, entries))
}

func TestResolveRequest(t *testing.T) {
	current := settings.Settings{DownloadMode: "audio", LastResolution: "360p"}
	req, err := resolveRequest(current, "u", "", "")
	require.NoError(t, err)
	assert.Equal(t, utils.ModeAudio, req.Mode)
	assert.Equal(t, utils.Resolution(360), req.Resolution)

	req, err = resolveRequest(current, "u", "video", "1440")
	require.NoError(t, err)
	assert.Equal(t, utils.ModeVideo, req.Mode)
	assert.Equal(t, utils.Resolution(1440), req.Resolution)

	_, err = resolveRequest(current, "u", "podcast", "")
	assert.Error(t, err)
}

func TestFormatProbeResult(t *testing.T) {
	ok := formatProbeResult(utils.ServiceYouTube, probe.Result{Resolutions: []utils.Resolution{1080, 720}})
	assert.Contains(t, ok, "1080p, 720p")

	failed := formatProbeResult(utils.ServiceVK, probe.Result{Err: utils.NewProbeError(nil)})
	assert.Contains(t, failed, "720p")
	assert.Contains(t, failed, utils.ProbeFailedMessage)

	fallback := formatProbeResult(utils.ServiceOK, probe.Result{Resolutions: []utils.Resolution{720}, Fallback: true})
	assert.Contains(t, fallback, "no video formats reported")
}

func newTestShell(t *testing.T) (*shell, *enginetest.Engine, *syncBuffer, *settings.Store) {
	t.Helper()
	engine := enginetest.New()
	dir := t.TempDir()
	st := settings.Load(filepath.Join(dir, "settings.yaml"))
	orch := scheduler.New(executor.New(engine, dir), nil, scheduler.Config{OutputDir: dir, Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- orch.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-runErr
	})
	out := &syncBuffer{}
	return newShell(ctx, orch, probe.NewLatest(probe.New(engine)), st, out), engine, out, st
}

func TestShell_QueueCommands(t *testing.T) {
	sh, _, out, st := newTestShell(t)

	assert.False(t, sh.handle("add https://youtu.be/aaaaaaaaaaa 480p"))
	assert.Contains(t, out.String(), "queued YouTube 480p")
	assert.Equal(t, "480p", st.Get().LastResolution)

	sh.handle("mode audio")
	assert.Equal(t, utils.ModeAudio, sh.mode)
	assert.Equal(t, "audio", st.Get().DownloadMode)

	sh.handle("add https://ok.ru/video/42")
	assert.Contains(t, out.String(), "queued OK audio")

	sh.handle("add https://youtube.com/watch?v=short")
	assert.Contains(t, out.String(), "invalid URL format for YouTube")

	sh.handle("list")
	listing := out.String()
	assert.Contains(t, listing, "1. queued YouTube 480p")
	assert.Contains(t, listing, "2. queued OK audio")

	sh.handle("remove 2")
	assert.Contains(t, out.String(), "removed https://ok.ru/video/42")
	sh.handle("remove 9")
	assert.Contains(t, out.String(), scheduler.ErrIndexOutOfRange.Error())

	sh.handle("cancel")
	assert.Contains(t, out.String(), scheduler.ErrNoActiveJob.Error())

	sh.handle("clear")
	assert.Contains(t, out.String(), "removed 1 queued download(s)")
	sh.handle("start")
	assert.Contains(t, out.String(), scheduler.ErrQueueEmpty.Error())

	sh.handle("frobnicate")
	assert.Contains(t, out.String(), "unknown command: frobnicate")
	assert.False(t, sh.handle("   "))
	assert.True(t, sh.handle("quit"))
}

func TestShell_StartRunsQueue(t *testing.T) {
	sh, engine, out, _ := newTestShell(t)
	engine.Script("https://youtu.be/aaaaaaaaaaa", enginetest.Script{
		Steps:    []utils.EngineProgress{enginetest.Downloading("a.mp4", 1, 2), enginetest.Finished("a.mp4")},
		Filename: "a.mp4",
	})
	sh.handle("add https://youtu.be/aaaaaaaaaaa")
	sh.handle("start")
	assert.Contains(t, out.String(), "queue started")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sh.orch.Wait(ctx))
	req := engine.Requests()
	require.Len(t, req, 1)
	assert.Contains(t, req[0].Format, "height<=720")
}

func TestShell_Resolutions(t *testing.T) {
	sh, engine, out, _ := newTestShell(t)
	engine.Info("https://youtu.be/aaaaaaaaaaa", &utils.MediaInfo{Formats: []utils.MediaFormat{
		{Height: 1080, VCodec: "avc1"}, {Height: 480, VCodec: "vp9"}, {VCodec: "none"},
	}})
	sh.handle("res https://youtu.be/aaaaaaaaaaa")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "1080p, 480p")
	}, 2*time.Second, 10*time.Millisecond)

	sh.handle("res https://example.com/nope")
	assert.Contains(t, out.String(), "unsupported")
}

func TestShell_RunReadsUntilQuit(t *testing.T) {
	sh, _, out, _ := newTestShell(t)
	sh.run(strings.NewReader("help\nquit\nadd https://youtu.be/aaaaaaaaaaa\n"))
	assert.Contains(t, out.String(), "commands:")
	assert.NotContains(t, out.String(), "queued YouTube")
}
