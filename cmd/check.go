package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/mediaq/internal/downloaders/ytdlp"
	"github.com/tanq16/mediaq/internal/output"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that yt-dlp and ffmpeg are available",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			failed := false
			if path, err := ytdlp.EnsureYtdlp(cmd.Context(), ytdlpPath, proxyURL); err != nil {
				output.PrintError(fmt.Sprintf("yt-dlp: %v", err))
				failed = true
			} else {
				output.PrintSuccess("yt-dlp: " + path)
			}
			if path, err := ytdlp.EnsureFFmpeg(ffmpegPath); err != nil {
				output.PrintError(fmt.Sprintf("ffmpeg: %v", err))
				output.PrintWarning("ffmpeg is required to merge video and convert audio, install it from https://ffmpeg.org")
				failed = true
			} else {
				output.PrintSuccess("ffmpeg: " + path)
			}
			if failed {
				os.Exit(1)
			}
		},
	}
}
