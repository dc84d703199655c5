package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/mediaq/internal/output"
	"github.com/tanq16/mediaq/internal/settings"
	"github.com/tanq16/mediaq/internal/utils"
	"gopkg.in/yaml.v3"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Queue multiple downloads from a YAML file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := readBatchFile(args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			reqs := buildRequestsFromBatch(store.Get(), entries)
			if len(reqs) == 0 {
				output.PrintError("No valid entries found in the batch file")
				os.Exit(1)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := runDownloads(ctx, reqs); err != nil {
				fmt.Println()
				output.PrintError(err.Error())
				os.Exit(1)
			}
		},
	}
	return cmd
}

func readBatchFile(path string) ([]utils.DownloadEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %v", err)
	}
	return parseBatch(data)
}

func parseBatch(data []byte) ([]utils.DownloadEntry, error) {
	var entries []utils.DownloadEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing YAML file: %v", err)
	}
	return entries, nil
}

// buildRequestsFromBatch skips entries without a link or with an unusable
// mode or resolution, warning about each. A resolution without a mode means
// video, as with get --resolution.
func buildRequestsFromBatch(current settings.Settings, entries []utils.DownloadEntry) []downloadRequest {
	var reqs []downloadRequest
	for i, entry := range entries {
		if entry.URL == "" {
			output.PrintWarning(fmt.Sprintf("Warning: entry %d has no link, skipping...", i+1))
			continue
		}
		mode := entry.Mode
		if mode == "" && entry.Resolution != "" {
			mode = string(utils.ModeVideo)
		}
		req, err := resolveRequest(current, entry.URL, mode, entry.Resolution)
		if err != nil {
			output.PrintWarning(fmt.Sprintf("Warning: entry %d: %v, skipping...", i+1, err))
			log.Debug().Str("op", "cmd/batch").Int("entry", i+1).Err(err).Msg("invalid batch entry")
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs
}
