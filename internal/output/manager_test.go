package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/mediaq/internal/executor"
	"github.com/tanq16/mediaq/internal/job"
	"github.com/tanq16/mediaq/internal/scheduler"
	"github.com/tanq16/mediaq/internal/utils"
)

func newJob(t *testing.T, url string) *job.Job {
	t.Helper()
	j, err := job.New(url, utils.ModeVideo, 720)
	require.NoError(t, err)
	return j
}

func TestManager_PlainRendering(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(&buf, false)
	a := newJob(t, "https://youtu.be/aaaaaaaaaaa")
	longURL := "https://www.youtube.com/watch?v=bbbbbbbbbbb&list=" + strings.Repeat("x", 40)
	b := newJob(t, longURL)

	m.OnQueueChanged(scheduler.Snapshot{Queued: []*job.Job{a, b}})
	assert.Empty(t, buf.String())

	require.True(t, a.Start())
	m.OnQueueChanged(scheduler.Snapshot{Active: a, Queued: []*job.Job{b}})
	assert.Contains(t, buf.String(), "Downloading YouTube 720p https://youtu.be/aaaaaaaaaaa")

	m.OnProgress(a, job.Progress{Percent: 42.5, Status: utils.StatusDownloading})
	m.mutex.RLock()
	assert.Contains(t, m.outputs[a.ID].StreamLine, "42.5%")
	m.mutex.RUnlock()

	m.OnJobTerminal(a, executor.Terminal{State: utils.StateSucceeded, Filename: "a.mp4"})
	assert.Contains(t, buf.String(), "Completed a.mp4")

	m.OnJobTerminal(b, executor.Terminal{State: utils.StateFailed, Message: "video not found"})
	assert.Contains(t, buf.String(), "video not found")

	buf.Reset()
	m.OnRunSummary(scheduler.Summary{
		Succeeded: []scheduler.SuccessEntry{{Filename: "a.mp4", URL: a.URL}},
		Failed:    []scheduler.FailureEntry{{URL: longURL, Message: "cancelled by user"}},
	})
	out := buf.String()
	assert.Contains(t, out, "Completed 1 of 2")
	assert.Contains(t, out, "Failed 1 of 2")
	assert.Contains(t, out, utils.ShortenURL(longURL))
	assert.NotContains(t, out, longURL)
	assert.Contains(t, out, "cancelled by user")
	assert.Equal(t, 1, m.Failures())
}

func TestManager_DropsRemovedJobs(t *testing.T) {
	m := NewManager(&bytes.Buffer{}, false)
	a := newJob(t, "https://youtu.be/aaaaaaaaaaa")
	b := newJob(t, "https://youtu.be/bbbbbbbbbbb")
	m.OnQueueChanged(scheduler.Snapshot{Queued: []*job.Job{a, b}})
	m.OnQueueChanged(scheduler.Snapshot{Queued: []*job.Job{a}})

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	assert.Contains(t, m.outputs, a.ID)
	assert.NotContains(t, m.outputs, b.ID)
}

func TestManager_LiveSummaryOnStop(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(&buf, true)
	m.OnRunSummary(scheduler.Summary{Succeeded: []scheduler.SuccessEntry{{Filename: "x.mp3", URL: "u"}}})
	assert.Empty(t, buf.String())

	m.StartDisplay()
	m.StopDisplay()
	m.StopDisplay()
	assert.Contains(t, buf.String(), "Completed 1 of 1")
	assert.Contains(t, buf.String(), "x.mp3")
	assert.Equal(t, 0, m.Failures())
}

func TestProgressBar(t *testing.T) {
	assert.Contains(t, ProgressBar(50, 10), "50.0%")
	assert.Contains(t, ProgressBar(150, 10), "100.0%")
	assert.Contains(t, ProgressBar(-3, 10), "0.0%")
	assert.Equal(t, 10, strings.Count(ProgressBar(100, 10), StyleSymbols["hline"]))
}
