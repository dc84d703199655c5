package ytdlp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mediaq/internal/utils"
)

const (
	progressPrefix = "mediaq-progress "
	filePrefix     = "mediaq-file "
	maxDiagnostics = 5
)

// Download runs yt-dlp for req and reports every progress line to progress.
// A non-nil error from progress kills the process and is returned wrapped.
func (e *Engine) Download(ctx context.Context, req utils.DownloadRequest, progress utils.ProgressFunc) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := buildDownloadArgs(req, e.ffmpegPath, e.proxy)
	cmd := exec.CommandContext(ctx, e.ytdlpPath, args...)
	log.Debug().Str("op", "ytdlp/download").Msgf("Executing yt-dlp command: %s", utils.SanitizeForLog(cmd.String()))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("error creating stdout pipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("error creating stderr pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		log.Error().Str("op", "ytdlp/download").Err(err).Msg("Error starting yt-dlp")
		return "", fmt.Errorf("error starting yt-dlp: %v", err)
	}

	lines := make(chan string)
	var wg sync.WaitGroup
	wg.Add(2)
	go processStream(stdout, lines, &wg)
	go processStream(stderr, lines, &wg)
	go func() {
		wg.Wait()
		close(lines)
	}()

	var (
		filename    string
		callbackErr error
		diagnostics []string
	)
	for line := range lines {
		switch {
		case strings.HasPrefix(line, progressPrefix):
			if callbackErr != nil || progress == nil {
				continue
			}
			p, err := parseProgressLine(line)
			if err != nil {
				log.Debug().Str("op", "ytdlp/download").Err(err).Msg("skipping malformed progress line")
				continue
			}
			if err := progress(p); err != nil {
				callbackErr = err
				cancel()
			}
		case strings.HasPrefix(line, filePrefix):
			filename = strings.TrimSpace(strings.TrimPrefix(line, filePrefix))
		default:
			log.Debug().Str("op", "ytdlp/download").Msg(utils.SanitizeForLog(line))
			diagnostics = appendDiagnostic(diagnostics, line)
		}
	}

	waitErr := cmd.Wait()
	if callbackErr != nil {
		return "", fmt.Errorf("download aborted: %w", callbackErr)
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("yt-dlp interrupted: %w", ctx.Err())
		}
		log.Error().Str("op", "ytdlp/download").Err(waitErr).Msg("yt-dlp command failed")
		return "", engineError(waitErr, diagnostics)
	}
	log.Info().Str("op", "ytdlp/download").Msgf("yt-dlp download completed for %s", utils.SanitizeForLog(req.URL))
	return filename, nil
}

func processStream(reader io.Reader, lines chan<- string, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines <- line
		}
	}
}

func appendDiagnostic(diagnostics []string, line string) []string {
	diagnostics = append(diagnostics, line)
	if len(diagnostics) > maxDiagnostics {
		diagnostics = diagnostics[len(diagnostics)-maxDiagnostics:]
	}
	return diagnostics
}

func engineError(waitErr error, diagnostics []string) error {
	for i := len(diagnostics) - 1; i >= 0; i-- {
		if strings.HasPrefix(diagnostics[i], "ERROR:") {
			return errors.New(strings.TrimSpace(strings.TrimPrefix(diagnostics[i], "ERROR:")))
		}
	}
	if len(diagnostics) > 0 {
		return fmt.Errorf("yt-dlp failed: %v: %s", waitErr, diagnostics[len(diagnostics)-1])
	}
	return fmt.Errorf("yt-dlp failed: %v", waitErr)
}

// progressLine mirrors the progress dict yt-dlp emits; byte counts may be
// floats or null.
type progressLine struct {
	Status             string   `json:"status"`
	DownloadedBytes    *float64 `json:"downloaded_bytes"`
	TotalBytes         *float64 `json:"total_bytes"`
	TotalBytesEstimate *float64 `json:"total_bytes_estimate"`
	Filename           string   `json:"filename"`
}

func parseProgressLine(line string) (utils.EngineProgress, error) {
	var raw progressLine
	payload := strings.TrimPrefix(line, progressPrefix)
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return utils.EngineProgress{}, fmt.Errorf("decoding progress: %w", err)
	}
	return utils.EngineProgress{
		Status:             raw.Status,
		DownloadedBytes:    toBytes(raw.DownloadedBytes),
		TotalBytes:         toBytes(raw.TotalBytes),
		TotalBytesEstimate: toBytes(raw.TotalBytesEstimate),
		Filename:           raw.Filename,
	}, nil
}

func toBytes(v *float64) int64 {
	if v == nil || *v < 0 {
		return 0
	}
	return int64(*v)
}

func buildDownloadArgs(req utils.DownloadRequest, ffmpegPath, proxy string) []string {
	args := []string{
		"--progress",
		"--newline",
		"--no-warnings",
		"--no-playlist",
		"--progress-template", "download:" + progressPrefix + "%(progress)j",
		"--print", "after_move:" + filePrefix + "%(filepath)s",
		"-f", req.Format,
		"-o", req.OutputTemplate,
	}
	if ffmpegPath != "" {
		args = append(args, "--ffmpeg-location", ffmpegPath)
	}
	if req.MergeFormat != "" {
		args = append(args, "--merge-output-format", req.MergeFormat)
	}
	if req.RecodeVideo != "" {
		args = append(args, "--recode-video", req.RecodeVideo)
	}
	if req.ExtractAudio {
		args = append(args, "-x")
		if req.AudioFormat != "" {
			args = append(args, "--audio-format", req.AudioFormat)
		}
		if req.AudioQuality != "" {
			args = append(args, "--audio-quality", req.AudioQuality)
		}
	}
	if req.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(req.SocketTimeout))
	}
	if req.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(req.Retries))
	}
	if req.FragRetries > 0 {
		args = append(args, "--fragment-retries", strconv.Itoa(req.FragRetries))
	}
	if req.RetrySleep > 0 {
		args = append(args, "--retry-sleep", strconv.Itoa(req.RetrySleep))
	}
	if proxy != "" {
		args = append(args, "--proxy", proxy)
	}
	return append(args, req.URL)
}
