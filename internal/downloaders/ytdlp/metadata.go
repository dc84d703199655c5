package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mediaq/internal/utils"
)

// Metadata dumps the info dict of url without fetching any media bytes.
func (e *Engine) Metadata(ctx context.Context, url string) (*utils.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, e.ytdlpPath, buildMetadataArgs(url, e.proxy)...)
	log.Debug().Str("op", "ytdlp/metadata").Msgf("Executing yt-dlp command: %s", utils.SanitizeForLog(cmd.String()))
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			log.Debug().Str("op", "ytdlp/metadata").Msg(utils.SanitizeForLog(stderr))
			return nil, fmt.Errorf("yt-dlp metadata failed: %s", stderr)
		}
		return nil, fmt.Errorf("yt-dlp metadata failed: %v", err)
	}
	return parseMetadata(out)
}

func buildMetadataArgs(url, proxy string) []string {
	args := []string{"-J", "--skip-download", "--no-playlist", "--no-warnings"}
	if proxy != "" {
		args = append(args, "--proxy", proxy)
	}
	return append(args, url)
}

func parseMetadata(data []byte) (*utils.MediaInfo, error) {
	var info utils.MediaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return &info, nil
}
