package job

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/mediaq/internal/utils"
)

const testURL = "https://youtu.be/dQw4w9WgXcQ"

func TestNew(t *testing.T) {
	j, err := New(" "+testURL+" ", utils.ModeVideo, 720)
	require.NoError(t, err)
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, testURL, j.URL)
	assert.Equal(t, utils.ServiceYouTube, j.Service)
	assert.Equal(t, utils.Resolution(720), j.Resolution)
	assert.Equal(t, utils.StateQueued, j.State())
	assert.Equal(t, Progress{}, j.Progress())
	_, done := j.Result()
	assert.False(t, done)
}

func TestNew_Validation(t *testing.T) {
	_, err := New("https://example.com/x", utils.ModeVideo, 720)
	var ve *utils.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = New(testURL, utils.ModeVideo, 0)
	assert.ErrorIs(t, err, ErrResolutionRequired)

	_, err = New(testURL, utils.DownloadMode("podcast"), 720)
	assert.Error(t, err)

	j, err := New(testURL, utils.ModeAudio, 1080)
	require.NoError(t, err)
	assert.Equal(t, utils.Resolution(0), j.Resolution)
	assert.Equal(t, "YouTube audio", j.Label())
}

func TestJob_IDsAreUnique(t *testing.T) {
	a, err := New(testURL, utils.ModeAudio, 0)
	require.NoError(t, err)
	b, err := New(testURL, utils.ModeAudio, 0)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestJob_Lifecycle(t *testing.T) {
	j, err := New(testURL, utils.ModeVideo, 480)
	require.NoError(t, err)
	assert.Equal(t, "YouTube 480p", j.Label())

	assert.False(t, j.Finish(utils.StateSucceeded, Result{}), "queued job cannot finish")
	assert.True(t, j.Start())
	assert.False(t, j.Start(), "second start must fail")
	assert.Equal(t, utils.StateActive, j.State())

	assert.False(t, j.Finish(utils.StateActive, Result{}), "non-terminal target")
	assert.True(t, j.Finish(utils.StateSucceeded, Result{Filename: "a.mp4"}))
	assert.False(t, j.Finish(utils.StateFailed, Result{Message: "late"}))
	assert.Equal(t, utils.StateSucceeded, j.State())

	res, done := j.Result()
	require.True(t, done)
	assert.Equal(t, "a.mp4", res.Filename)
}

func TestJob_CancelOnlyWhileActive(t *testing.T) {
	j, err := New(testURL, utils.ModeAudio, 0)
	require.NoError(t, err)

	assert.False(t, j.RequestCancel(), "queued job")
	assert.False(t, j.CancelRequested())

	require.True(t, j.Start())
	assert.True(t, j.RequestCancel())
	assert.False(t, j.RequestCancel(), "flag is write-once")
	assert.True(t, j.CancelRequested())

	require.True(t, j.Finish(utils.StateCancelled, Result{Message: utils.CancelledMessage}))
	assert.False(t, j.RequestCancel(), "terminal job")
}

func TestJob_ConcurrentAccess(t *testing.T) {
	j, err := New(testURL, utils.ModeVideo, 720)
	require.NoError(t, err)
	require.True(t, j.Start())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i <= 100; i++ {
			j.SetProgress(Progress{Percent: float64(i), Status: utils.StatusDownloading})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = j.Progress()
			j.RequestCancel()
		}
	}()
	wg.Wait()
	assert.Equal(t, 100.0, j.Progress().Percent)
	assert.True(t, j.CancelRequested())
}

func TestProgress_Indeterminate(t *testing.T) {
	assert.True(t, Progress{Percent: utils.IndeterminatePct}.Indeterminate())
	assert.False(t, Progress{Percent: 0}.Indeterminate())
}
