package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tanq16/mediaq/internal/downloaders/ytdlp"
	"github.com/tanq16/mediaq/internal/output"
	"github.com/tanq16/mediaq/internal/probe"
	"github.com/tanq16/mediaq/internal/utils"
)

func newResolutionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "resolutions [URL]",
		Short:   "List the video resolutions available for a URL",
		Aliases: []string{"res"},
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			service, err := utils.Classify(args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			engine, err := ytdlp.New(cmd.Context(), engineConfig())
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			result := <-probe.New(engine).Probe(cmd.Context(), args[0])
			fmt.Println(formatProbeResult(service, result))
		},
	}
}

func formatProbeResult(service utils.ServiceKind, r probe.Result) string {
	var names []string
	for _, res := range r.ResolutionsOrDefault() {
		names = append(names, res.String())
	}
	line := fmt.Sprintf("%s %s", output.FHeader(service.String()), output.FInfo(strings.Join(names, ", ")))
	switch {
	case r.Err != nil:
		line += "\n" + output.FWarning(r.Err.Error()+", defaulting to "+utils.FallbackResolution.String())
	case r.Fallback:
		line += "\n" + output.FDebug("no video formats reported, defaulting to "+utils.FallbackResolution.String())
	}
	return line
}
