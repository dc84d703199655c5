package utils

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// MediaEngine is the boundary to the external media retrieval engine.
type MediaEngine interface {
	Metadata(ctx context.Context, url string) (*MediaInfo, error)
	Download(ctx context.Context, req DownloadRequest, progress ProgressFunc) (string, error)
}

// ProgressFunc is invoked by the engine on every progress tick. Returning a
// non-nil error aborts the in-flight download.
type ProgressFunc func(p EngineProgress) error

type EngineProgress struct {
	Status             string `json:"status"`
	DownloadedBytes    int64  `json:"downloaded_bytes"`
	TotalBytes         int64  `json:"total_bytes"`
	TotalBytesEstimate int64  `json:"total_bytes_estimate"`
	Filename           string `json:"filename"`
}

type MediaFormat struct {
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	Height   int    `json:"height"`
	VCodec   string `json:"vcodec"`
	ACodec   string `json:"acodec"`
}

type MediaInfo struct {
	Title   string        `json:"title"`
	Formats []MediaFormat `json:"formats"`
}

type DownloadRequest struct {
	URL            string
	Format         string
	OutputTemplate string
	MergeFormat    string
	RecodeVideo    string
	ExtractAudio   bool
	AudioFormat    string
	AudioQuality   string
	SocketTimeout  int
	Retries        int
	FragRetries    int
	RetrySleep     int
}

type ServiceKind int

const (
	ServiceUnknown ServiceKind = iota
	ServiceYouTube
	ServiceVK
	ServiceRuTube
	ServiceOK
	ServiceMailRu
)

func (s ServiceKind) String() string {
	switch s {
	case ServiceYouTube:
		return "YouTube"
	case ServiceVK:
		return "VK"
	case ServiceRuTube:
		return "RuTube"
	case ServiceOK:
		return "OK"
	case ServiceMailRu:
		return "Mail.ru"
	default:
		return "Unknown"
	}
}

// ServiceKindFromURL guesses the service from host substrings only. It does
// not validate the URL; Classify uses it to name the service of a link that
// matched none of the patterns.
func ServiceKindFromURL(url string) ServiceKind {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "youtube"), strings.Contains(lower, "youtu.be"):
		return ServiceYouTube
	case strings.Contains(lower, "vk.com"), strings.Contains(lower, "vkvideo"):
		return ServiceVK
	case strings.Contains(lower, "rutube"):
		return ServiceRuTube
	case strings.Contains(lower, "ok.ru"):
		return ServiceOK
	case strings.Contains(lower, "mail.ru"):
		return ServiceMailRu
	}
	return ServiceUnknown
}

type DownloadMode string

const (
	ModeVideo DownloadMode = "video"
	ModeAudio DownloadMode = "audio"
)

func ParseDownloadMode(s string) (DownloadMode, error) {
	switch DownloadMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeVideo:
		return ModeVideo, nil
	case ModeAudio:
		return ModeAudio, nil
	}
	return "", fmt.Errorf("unknown download mode: %q", s)
}

// Resolution is a vertical size in pixels. The zero value means "none".
type Resolution int

func (r Resolution) String() string {
	if r <= 0 {
		return ""
	}
	return strconv.Itoa(int(r)) + "p"
}

func ParseResolution(s string) (Resolution, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "p")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid resolution %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid resolution %q: must be positive", s)
	}
	return Resolution(n), nil
}

type JobState int32

const (
	StateQueued JobState = iota
	StateActive
	StateSucceeded
	StateFailed
	StateCancelled
)

func (s JobState) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateActive:
		return "active"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s JobState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// DownloadEntry is one item of a YAML batch file.
type DownloadEntry struct {
	URL        string `yaml:"link"`
	Mode       string `yaml:"mode,omitempty"`
	Resolution string `yaml:"resolution,omitempty"`
}
