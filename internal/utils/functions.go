package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CleanLocal removes the temp directory holding bootstrapped binaries.
func CleanLocal() error {
	tempDir := filepath.Join(filepath.Dir("."), TempDirName)
	_, err := os.Stat(tempDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.RemoveAll(tempDir)
}

// CleanPartials deletes engine leftovers (.part, .ytdl) from dir and returns
// the removed paths. A missing directory is not an error.
func CleanPartials(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, file := range files {
		if file.IsDir() || !isPartial(file.Name()) {
			continue
		}
		filePath := filepath.Join(dir, file.Name())
		if err := os.Remove(filePath); err != nil {
			return removed, fmt.Errorf("removing %s: %w", filePath, err)
		}
		removed = append(removed, filePath)
	}
	return removed, nil
}

func isPartial(name string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func TrimURL(url string) string {
	return strings.TrimSpace(url)
}

func ShortenURL(url string) string {
	if len(url) <= ShortURLLength {
		return url
	}
	return url[:ShortURLLength] + "..."
}

// DisplayFilename reports the name a file ends up with after the transcoder
// ran, for engines that only surfaced the pre-conversion name.
func DisplayFilename(name string, mode DownloadMode) string {
	name = filepath.Base(name)
	if !strings.HasSuffix(name, ".webm") {
		return name
	}
	if mode == ModeAudio || strings.Contains(name, "_audio") {
		return strings.TrimSuffix(name, ".webm") + "." + AudioCodec
	}
	return strings.TrimSuffix(name, ".webm") + "." + VideoContainer
}

// SanitizeForLog escapes control characters so engine output and user input
// cannot forge log lines.
func SanitizeForLog(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\n':
			result.WriteString("\\n")
		case '\r':
			result.WriteString("\\r")
		case '\t':
			result.WriteString("\\t")
		default:
			if r < 32 || r == 127 {
				result.WriteString(fmt.Sprintf("\\x%02x", r))
			} else {
				result.WriteRune(r)
			}
		}
	}
	return result.String()
}
