package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/mediaq/internal/output"
	"github.com/tanq16/mediaq/internal/utils"
)

func newCleanCmd() *cobra.Command {
	var temp bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove partial download files from the output directory",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			removed, err := utils.CleanPartials(outputDir)
			if err != nil {
				output.PrintError(fmt.Sprintf("Error cleaning up partial files: %v", err))
				os.Exit(1)
			}
			if temp {
				if err := utils.CleanLocal(); err != nil {
					output.PrintError(fmt.Sprintf("Error removing %s: %v", utils.TempDirName, err))
					os.Exit(1)
				}
			}
			output.PrintSuccess(fmt.Sprintf("Removed %d partial file(s)", len(removed)))
		},
	}

	cmd.Flags().BoolVar(&temp, "temp", false, "Also remove the downloaded yt-dlp binary")
	return cmd
}
