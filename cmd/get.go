package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/mediaq/internal/output"
	"github.com/tanq16/mediaq/internal/utils"
)

func newGetCmd() *cobra.Command {
	var audio bool
	var resolution string

	cmd := &cobra.Command{
		Use:     "get [URL...] [--audio] [--resolution RES]",
		Short:   "Download one or more videos, or their audio tracks",
		Aliases: []string{"dl"},
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			mode := ""
			if audio {
				mode = string(utils.ModeAudio)
			} else if resolution != "" {
				mode = string(utils.ModeVideo)
			}
			var reqs []downloadRequest
			for _, url := range args {
				req, err := resolveRequest(store.Get(), url, mode, resolution)
				if err != nil {
					output.PrintError(err.Error())
					os.Exit(1)
				}
				reqs = append(reqs, req)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log.Debug().Str("op", "cmd/get").Msgf("Starting queue with %d URLs", len(reqs))
			if err := runDownloads(ctx, reqs); err != nil {
				fmt.Println()
				output.PrintError(err.Error())
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVarP(&audio, "audio", "a", false, "Download audio only (mp3)")
	cmd.Flags().StringVarP(&resolution, "resolution", "r", "", "Maximum video height, e.g. 720p (defaults to the last used)")
	return cmd
}
