package ytdlp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/mediaq/internal/probe"
	"github.com/tanq16/mediaq/internal/utils"
)

func TestParseProgressLine(t *testing.T) {
	line := `mediaq-progress {"status": "downloading", "downloaded_bytes": 1024, "total_bytes": null, "total_bytes_estimate": 4096.5, "filename": "out/Clip.f137.mp4", "eta": 3}`
	p, err := parseProgressLine(line)
	require.NoError(t, err)
	assert.Equal(t, utils.EngineProgress{
		Status:             "downloading",
		DownloadedBytes:    1024,
		TotalBytes:         0,
		TotalBytesEstimate: 4096,
		Filename:           "out/Clip.f137.mp4",
	}, p)

	_, err = parseProgressLine("mediaq-progress {broken")
	assert.Error(t, err)
}

func TestParseMetadata(t *testing.T) {
	data := []byte(`{
		"id": "dQw4w9WgXcQ",
		"title": "Clip",
		"formats": [
			{"format_id": "140", "ext": "m4a", "height": null, "vcodec": "none", "acodec": "mp4a.40.2"},
			{"format_id": "134", "ext": "mp4", "height": 360, "vcodec": "avc1.4d401e", "acodec": "none"},
			{"format_id": "136", "ext": "mp4", "height": 720, "vcodec": "avc1.4d401f", "acodec": "none"},
			{"format_id": "247", "ext": "webm", "height": 720, "vcodec": "vp9", "acodec": "none"},
			{"format_id": "137", "ext": "mp4", "height": 1080, "vcodec": "avc1.640028", "acodec": "none"},
			{"format_id": "sb0", "ext": "mhtml", "height": 1080, "vcodec": "none", "acodec": "none"}
		]
	}`)
	info, err := parseMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, "Clip", info.Title)
	require.Len(t, info.Formats, 6)

	resolutions, fallback := probe.ResolutionsFromFormats(info.Formats)
	assert.False(t, fallback)
	assert.Equal(t, []utils.Resolution{1080, 720, 360}, resolutions)

	_, err = parseMetadata([]byte("not json"))
	assert.Error(t, err)
}

func TestBuildDownloadArgs_Video(t *testing.T) {
	req := utils.DownloadRequest{
		URL:            "https://youtu.be/dQw4w9WgXcQ",
		Format:         "bestvideo[height<=720]+bestaudio/best[height<=720]",
		OutputTemplate: "downloads/%(title)s_%(resolution)s.%(ext)s",
		MergeFormat:    "mp4",
		RecodeVideo:    "mp4",
		SocketTimeout:  30,
		Retries:        10,
		FragRetries:    10,
		RetrySleep:     3,
	}
	args := buildDownloadArgs(req, "/usr/bin/ffmpeg", "http://proxy:8080")
	assert.Equal(t, req.URL, args[len(args)-1])
	assertPair(t, args, "-f", req.Format)
	assertPair(t, args, "-o", req.OutputTemplate)
	assertPair(t, args, "--merge-output-format", "mp4")
	assertPair(t, args, "--recode-video", "mp4")
	assertPair(t, args, "--ffmpeg-location", "/usr/bin/ffmpeg")
	assertPair(t, args, "--socket-timeout", "30")
	assertPair(t, args, "--retries", "10")
	assertPair(t, args, "--fragment-retries", "10")
	assertPair(t, args, "--retry-sleep", "3")
	assertPair(t, args, "--proxy", "http://proxy:8080")
	assertPair(t, args, "--progress-template", "download:mediaq-progress %(progress)j")
	assertPair(t, args, "--print", "after_move:mediaq-file %(filepath)s")
	assert.Contains(t, args, "--newline")
	assert.Contains(t, args, "--no-playlist")
	assert.NotContains(t, args, "-x")
}

func TestBuildDownloadArgs_Audio(t *testing.T) {
	req := utils.DownloadRequest{
		URL:            "https://ok.ru/video/123",
		Format:         "bestaudio/best",
		OutputTemplate: "%(title)s_audio.%(ext)s",
		ExtractAudio:   true,
		AudioFormat:    "mp3",
		AudioQuality:   "192K",
	}
	args := buildDownloadArgs(req, "", "")
	assert.Contains(t, args, "-x")
	assertPair(t, args, "--audio-format", "mp3")
	assertPair(t, args, "--audio-quality", "192K")
	assert.NotContains(t, args, "--ffmpeg-location")
	assert.NotContains(t, args, "--proxy")
	assert.NotContains(t, args, "--merge-output-format")
}

func TestBuildMetadataArgs(t *testing.T) {
	assert.Equal(t, []string{"-J", "--skip-download", "--no-playlist", "--no-warnings", "u"}, buildMetadataArgs("u", ""))
	assert.Equal(t, []string{"-J", "--skip-download", "--no-playlist", "--no-warnings", "--proxy", "p", "u"}, buildMetadataArgs("u", "p"))
}

func TestEngineError(t *testing.T) {
	waitErr := errors.New("exit status 1")
	err := engineError(waitErr, []string{"[youtube] abc: Downloading webpage", "ERROR: [youtube] abc: HTTP Error 404: Not Found"})
	assert.Equal(t, "[youtube] abc: HTTP Error 404: Not Found", err.Error())
	assert.Equal(t, utils.CategoryNotFound, utils.ClassifyExecutionError(err).Category)

	err = engineError(waitErr, []string{"something odd"})
	assert.Equal(t, "yt-dlp failed: exit status 1: something odd", err.Error())

	err = engineError(waitErr, nil)
	assert.Equal(t, "yt-dlp failed: exit status 1", err.Error())
}

func TestAppendDiagnostic_KeepsTail(t *testing.T) {
	var d []string
	for _, l := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		d = appendDiagnostic(d, l)
	}
	assert.Equal(t, []string{"3", "4", "5", "6", "7"}, d)
}

func TestReleaseAsset(t *testing.T) {
	name, err := releaseAsset("linux", "amd64")
	require.NoError(t, err)
	assert.Equal(t, "yt-dlp_linux", name)
	name, err = releaseAsset("darwin", "arm64")
	require.NoError(t, err)
	assert.Equal(t, "yt-dlp_macos", name)
	_, err = releaseAsset("plan9", "386")
	assert.Error(t, err)
}

func TestFindBinary_Override(t *testing.T) {
	_, ok := findBinary("yt-dlp", "/definitely/not/here/yt-dlp")
	assert.False(t, ok)
	_, err := EnsureFFmpeg("/definitely/not/here/ffmpeg")
	assert.Error(t, err)
}

func assertPair(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			assert.Equal(t, value, args[i+1], flag)
			return
		}
	}
	t.Errorf("flag %s not found in %v", flag, args)
}
