package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in      string
		want    Resolution
		wantErr bool
	}{
		{"720p", 720, false},
		{"1080", 1080, false},
		{" 480P ", 480, false},
		{"0", 0, true},
		{"-360p", 0, true},
		{"hd", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseResolution(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolution_String(t *testing.T) {
	assert.Equal(t, "1080p", Resolution(1080).String())
	assert.Equal(t, "", Resolution(0).String())
}

func TestParseDownloadMode(t *testing.T) {
	m, err := ParseDownloadMode("Audio")
	require.NoError(t, err)
	assert.Equal(t, ModeAudio, m)

	_, err = ParseDownloadMode("podcast")
	assert.Error(t, err)
}

func TestJobState(t *testing.T) {
	assert.False(t, StateQueued.IsTerminal())
	assert.False(t, StateActive.IsTerminal())
	for _, s := range []JobState{StateSucceeded, StateFailed, StateCancelled} {
		assert.True(t, s.IsTerminal(), s.String())
	}
	assert.Equal(t, "cancelled", StateCancelled.String())
}
