package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mediaq/internal/utils"
)

type Config struct {
	YtdlpPath  string
	FFmpegPath string
	Proxy      string
}

// Engine drives the yt-dlp binary and implements utils.MediaEngine. ffmpeg is
// only handed over as the post-processor location.
type Engine struct {
	ytdlpPath  string
	ffmpegPath string
	proxy      string
}

var _ utils.MediaEngine = (*Engine)(nil)

func New(ctx context.Context, cfg Config) (*Engine, error) {
	ytdlpPath, err := EnsureYtdlp(ctx, cfg.YtdlpPath, cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("error ensuring yt-dlp: %v", err)
	}
	ffmpegPath, err := EnsureFFmpeg(cfg.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("error ensuring ffmpeg: %v", err)
	}
	log.Debug().Str("op", "ytdlp/new").Str("ytdlp", ytdlpPath).Str("ffmpeg", ffmpegPath).Msg("engine ready")
	return &Engine{
		ytdlpPath:  ytdlpPath,
		ffmpegPath: ffmpegPath,
		proxy:      cfg.Proxy,
	}, nil
}

// EnsureYtdlp looks for yt-dlp at override, on PATH, next to the executable
// and in the temp directory, in that order, and downloads the release binary
// when all of them miss.
func EnsureYtdlp(ctx context.Context, override, proxy string) (string, error) {
	if path, ok := findBinary("yt-dlp", override); ok {
		return path, nil
	}
	if override != "" {
		return "", fmt.Errorf("yt-dlp not found at %s", override)
	}
	cached := filepath.Join(utils.TempDirName, binaryName("yt-dlp"))
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}
	return downloadYtdlp(ctx, proxy)
}

func EnsureFFmpeg(override string) (string, error) {
	if path, ok := findBinary("ffmpeg", override); ok {
		return path, nil
	}
	if override != "" {
		return "", fmt.Errorf("ffmpeg not found at %s", override)
	}
	return "", fmt.Errorf("ffmpeg not found in PATH, please install manually")
}

func findBinary(name, override string) (string, bool) {
	if override != "" {
		if _, err := os.Stat(override); err == nil {
			return override, true
		}
		return "", false
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, true
	}
	execPath, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), binaryName(name))
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

func binaryName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}
