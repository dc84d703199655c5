package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/mediaq/internal/utils"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	got := s.Get()
	assert.Equal(t, Defaults(), got)
	assert.Equal(t, "video", got.DownloadMode)
	assert.Equal(t, "720p", got.LastResolution)
	assert.Equal(t, utils.ModeVideo, got.Mode())
	assert.Equal(t, utils.Resolution(720), got.Resolution())
}

func TestLoad_CorruptFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("download_mode: [unterminated"), 0644))
	assert.Equal(t, Defaults(), Load(path).Get())
}

func TestRemember_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	s := Load(path)
	require.NoError(t, s.Remember(utils.ModeVideo, 1080))
	require.NoError(t, s.Remember(utils.ModeAudio, 0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "download_mode: audio")
	assert.Contains(t, string(data), "last_resolution: 1080p")

	reloaded := Load(path).Get()
	assert.Equal(t, utils.ModeAudio, reloaded.Mode())
	assert.Equal(t, utils.Resolution(1080), reloaded.Resolution())
}

func TestSettings_UnusableValuesFallBack(t *testing.T) {
	s := Settings{DownloadMode: "podcast", LastResolution: "hd"}
	assert.Equal(t, utils.ModeVideo, s.Mode())
	assert.Equal(t, utils.FallbackResolution, s.Resolution())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("download_mode: audio\n"), 0644))
	got := Load(path).Get()
	assert.Equal(t, "audio", got.DownloadMode)
	assert.Equal(t, "720p", got.LastResolution)
}
