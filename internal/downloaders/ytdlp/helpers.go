package ytdlp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/mediaq/internal/utils"
)

const releaseURL = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/%s"

func releaseAsset(goos, goarch string) (string, error) {
	switch {
	case goos == "windows" && goarch == "amd64":
		return "yt-dlp.exe", nil
	case goos == "windows" && goarch == "arm64":
		return "yt-dlp_arm64.exe", nil
	case goos == "linux" && goarch == "amd64":
		return "yt-dlp_linux", nil
	case goos == "linux" && goarch == "arm64":
		return "yt-dlp_linux_aarch64", nil
	case goos == "darwin":
		return "yt-dlp_macos", nil
	}
	return "", fmt.Errorf("unsupported OS/arch: %s/%s", goos, goarch)
}

func downloadYtdlp(ctx context.Context, proxy string) (string, error) {
	asset, err := releaseAsset(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(utils.TempDirName, 0755); err != nil {
		return "", fmt.Errorf("error creating temp directory: %v", err)
	}
	filePath := filepath.Join(utils.TempDirName, binaryName("yt-dlp"))
	log.Info().Str("op", "ytdlp/bootstrap").Str("asset", asset).Msg("yt-dlp not found, downloading release binary")
	client := utils.NewMediaqHTTPClient(utils.HTTPClientConfig{ProxyURL: proxy})
	if err := downloadFile(ctx, client, fmt.Sprintf(releaseURL, asset), filePath); err != nil {
		os.Remove(filePath)
		return "", err
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(filePath, 0755); err != nil {
			return "", fmt.Errorf("error setting permissions: %v", err)
		}
	}
	return filePath, nil
}

func downloadFile(ctx context.Context, client *utils.MediaqHTTPClient, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, resp.Body)
	return err
}
