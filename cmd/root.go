package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/mediaq/internal/downloaders/ytdlp"
	"github.com/tanq16/mediaq/internal/settings"
	"github.com/tanq16/mediaq/internal/utils"
)

var (
	outputDir    string
	settingsPath string
	logDir       string
	ytdlpPath    string
	ffmpegPath   string
	proxyURL     string
	debug        bool

	logCloser io.Closer
	store     *settings.Store
)

var MediaqVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "mediaq",
	Short:   "mediaq queues video and audio downloads from popular video services",
	Version: MediaqVersion,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		closer, err := utils.InitLogger(debug, true, logDir)
		logCloser = closer
		if err != nil {
			log.Warn().Str("op", "cmd/root").Err(err).Msg("file logging disabled")
		}
		store = settings.Load(settingsPath)
		log.Debug().Str("op", "cmd/root").Str("output", outputDir).Str("settings", settingsPath).Msg("configuration loaded")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", utils.DefaultOutputDir, "Directory downloads are written to")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", utils.DefaultSettingsFile, "Path of the settings file")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", utils.DefaultLogDir, "Directory for daily log files (empty disables file logging)")
	rootCmd.PersistentFlags().StringVar(&ytdlpPath, "ytdlp", "", "Path to the yt-dlp binary")
	rootCmd.PersistentFlags().StringVar(&ffmpegPath, "ffmpeg", "", "Path to the ffmpeg binary")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL handed to yt-dlp")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newResolutionsCmd())
	rootCmd.AddCommand(newQueueCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newCheckCmd())
}

func engineConfig() ytdlp.Config {
	return ytdlp.Config{
		YtdlpPath:  ytdlpPath,
		FFmpegPath: ffmpegPath,
		Proxy:      proxyURL,
	}
}
