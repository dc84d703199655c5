package utils

import (
	"regexp"
	"time"
)

const (
	FallbackResolution = Resolution(720)
	IndeterminatePct   = -1.0

	DefaultOutputDir    = "downloads"
	DefaultSettingsFile = ".mediaq.yaml"
	DefaultLogDir       = "logs"
	TempDirName         = ".mediaq-temp"

	VideoContainer = "mp4"
	AudioCodec     = "mp3"
	AudioBitrate   = "192K"

	VideoTemplate = "%(title)s_%(resolution)s.%(ext)s"
	AudioTemplate = "%(title)s_audio.%(ext)s"

	EngineSocketTimeout = 30
	EngineRetries       = 10
	EngineFragRetries   = 10
	EngineRetrySleep    = 3

	ShortURLLength = 50
)

const (
	StatusDownloading    = "downloading"
	StatusPostProcessing = "post-processing"
	CancelledMessage     = "cancelled by user"
	ProbeFailedMessage   = "could not retrieve resolutions, check URL and connectivity"
)

// partialSuffixes are the leftovers yt-dlp keeps around on abort.
var partialSuffixes = []string{".part", ".ytdl"}

var DefaultHTTPTimeout = 60 * time.Second

type servicePatterns struct {
	kind     ServiceKind
	patterns []*regexp.Regexp
}

// serviceTable is consulted in order; patterns are service-exclusive.
var serviceTable = []servicePatterns{
	{
		kind: ServiceYouTube,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/watch\?v=[\w-]{11}(?:&\S*)?$`),
			regexp.MustCompile(`^https?://youtu\.be/[\w-]{11}(?:\?\S*)?$`),
			regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/shorts/[\w-]{11}(?:\?\S*)?$`),
			regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/embed/[\w-]{11}(?:\?\S*)?$`),
		},
	},
	{
		kind: ServiceVK,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^https?://(?:www\.)?vk\.com/video-?\d+_\d+(?:\?\S*)?$`),
			regexp.MustCompile(`^https?://(?:www\.)?vkvideo\.ru/video-?\d+_\d+(?:\?\S*)?$`),
		},
	},
	{
		kind: ServiceRuTube,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^https?://(?:www\.)?rutube\.ru/video/[\w-]{32}/?(?:\?\S*)?$`),
			regexp.MustCompile(`^https?://(?:www\.)?rutube\.ru/play/embed/[\w-]{32}/?(?:\?\S*)?$`),
		},
	},
	{
		kind: ServiceOK,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^https?://(?:www\.)?ok\.ru/video/\d+(?:\?\S*)?$`),
		},
	},
	{
		kind: ServiceMailRu,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^https?://(?:www\.)?my\.mail\.ru/(?:[\w/]+/)?video/(?:[\w/]+/)\d+\.html(?:\?\S*)?$`),
		},
	},
}

// executionRules map substrings of raw engine errors to categories, in order.
// Needles containing upper case match case-sensitively, the rest fold case.
var executionRules = []struct {
	category ErrorCategory
	needles  []string
}{
	{CategoryNotFound, []string{"HTTP Error 404"}},
	{CategoryForbidden, []string{"HTTP Error 403"}},
	{CategoryAgeRestricted, []string{"Sign in to confirm your age", "age-restricted"}},
	{CategoryConnectivity, []string{"SSL", "connect", "network", "timed out"}},
	{CategoryCopyright, []string{"copyright"}},
}
