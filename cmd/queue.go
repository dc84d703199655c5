package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/mediaq/internal/downloaders/ytdlp"
	"github.com/tanq16/mediaq/internal/executor"
	"github.com/tanq16/mediaq/internal/output"
	"github.com/tanq16/mediaq/internal/probe"
	"github.com/tanq16/mediaq/internal/scheduler"
	"github.com/tanq16/mediaq/internal/settings"
	"github.com/tanq16/mediaq/internal/utils"
)

const shellHelp = `commands:
  add URL [audio|RES]  queue a download (defaults to the current mode)
  start                start the queue
  cancel               cancel the active download
  remove N             remove entry N of the list
  clear                remove every queued entry
  list                 show the queue
  res URL              list available resolutions
  mode video|audio     switch the default mode
  help                 show this help
  quit                 leave (cancels the active download)`

func newQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Interactive queue: add downloads, start, cancel and inspect them",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			engine, err := ytdlp.New(cmd.Context(), engineConfig())
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			mgr := output.NewManager(os.Stdout, false)
			orch := scheduler.New(executor.New(engine, outputDir), mgr, scheduler.Config{OutputDir: outputDir})
			runErr := make(chan error, 1)
			go func() { runErr <- orch.Run(ctx) }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)
			go func() {
				for range sigCh {
					if err := orch.CancelActive(); err == nil {
						output.PrintWarning("cancelling active download...")
					}
				}
			}()

			sh := newShell(ctx, orch, probe.NewLatest(probe.New(engine)), store, os.Stdout)
			sh.run(os.Stdin)
			orch.CancelActive()
			cancel()
			<-runErr
		},
	}
}

type shell struct {
	ctx    context.Context
	orch   *scheduler.Orchestrator
	latest *probe.Latest
	store  *settings.Store
	out    io.Writer
	mode   utils.DownloadMode
}

func newShell(ctx context.Context, orch *scheduler.Orchestrator, latest *probe.Latest, st *settings.Store, out io.Writer) *shell {
	return &shell{
		ctx:    ctx,
		orch:   orch,
		latest: latest,
		store:  st,
		out:    out,
		mode:   st.Get().Mode(),
	}
}

func (s *shell) run(in io.Reader) {
	fmt.Fprintln(s.out, output.FHeader("mediaq queue")+" "+output.FDebug("(type help for commands)"))
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, output.FInfo(string(s.mode)+"> "))
		if !scanner.Scan() {
			return
		}
		if s.handle(scanner.Text()) {
			return
		}
	}
}

// handle executes one command line and reports whether the shell should exit.
func (s *shell) handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	log.Debug().Str("op", "cmd/queue").Str("line", utils.SanitizeForLog(line)).Msg("command")
	switch strings.ToLower(fields[0]) {
	case "add":
		s.add(fields[1:])
	case "start":
		s.report(s.orch.StartAll(), "queue started")
	case "cancel":
		s.report(s.orch.CancelActive(), "cancellation requested")
	case "remove", "rm":
		s.remove(fields[1:])
	case "clear":
		n, err := s.orch.ClearQueued()
		s.report(err, fmt.Sprintf("removed %d queued download(s)", n))
	case "list", "ls":
		s.list()
	case "res":
		s.resolutions(fields[1:])
	case "mode":
		s.setMode(fields[1:])
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintln(s.out, output.FError("unknown command: "+fields[0]))
	}
	return false
}

func (s *shell) report(err error, ok string) {
	if err != nil {
		fmt.Fprintln(s.out, output.FError(err.Error()))
		return
	}
	fmt.Fprintln(s.out, output.FSuccess(ok))
}

func (s *shell) add(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, output.FError("usage: add URL [audio|RES]"))
		return
	}
	req := downloadRequest{URL: args[0], Mode: s.mode, Resolution: s.store.Get().Resolution()}
	if len(args) > 1 {
		if strings.EqualFold(args[1], string(utils.ModeAudio)) {
			req.Mode = utils.ModeAudio
		} else {
			res, err := utils.ParseResolution(args[1])
			if err != nil {
				fmt.Fprintln(s.out, output.FError(err.Error()))
				return
			}
			req.Mode = utils.ModeVideo
			req.Resolution = res
		}
	}
	j, err := s.orch.Submit(req.URL, req.Mode, req.Resolution)
	if err != nil {
		fmt.Fprintln(s.out, output.FError(err.Error()))
		return
	}
	if err := remember(s.store, req); err != nil {
		log.Warn().Str("op", "cmd/queue").Err(err).Msg("could not save settings")
	}
	fmt.Fprintln(s.out, output.FSuccess("queued "+j.Label()+" "+utils.ShortenURL(j.URL)))
}

func (s *shell) remove(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, output.FError("usage: remove N"))
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(s.out, output.FError("invalid index: "+args[0]))
		return
	}
	j, err := s.orch.RemoveQueued(n - 1)
	if err != nil {
		fmt.Fprintln(s.out, output.FError(err.Error()))
		return
	}
	fmt.Fprintln(s.out, output.FSuccess("removed "+utils.ShortenURL(j.URL)))
}

func (s *shell) list() {
	snap, err := s.orch.Snapshot()
	if err != nil {
		fmt.Fprintln(s.out, output.FError(err.Error()))
		return
	}
	jobs := snap.Jobs()
	if len(jobs) == 0 {
		fmt.Fprintln(s.out, output.FDebug("queue is empty"))
		return
	}
	for i, j := range jobs {
		state := output.FPending(j.State().String())
		if j == snap.Active {
			p := j.Progress()
			if p.Indeterminate() {
				state = output.FInfo("active, size unknown")
			} else {
				state = output.FInfo(fmt.Sprintf("active %.1f%%", p.Percent))
			}
		}
		fmt.Fprintf(s.out, "  %d. %s %s %s\n", i+1, state, j.Label(), output.FStream(utils.ShortenURL(j.URL)))
	}
}

func (s *shell) resolutions(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, output.FError("usage: res URL"))
		return
	}
	service, err := utils.Classify(args[0])
	if err != nil {
		fmt.Fprintln(s.out, output.FError(err.Error()))
		return
	}
	fmt.Fprintln(s.out, output.FDebug("probing resolutions..."))
	s.latest.Request(s.ctx, args[0], func(url string, r probe.Result) {
		fmt.Fprintln(s.out, formatProbeResult(service, r))
	})
}

func (s *shell) setMode(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, output.FError("usage: mode video|audio"))
		return
	}
	mode, err := utils.ParseDownloadMode(args[0])
	if err != nil {
		fmt.Fprintln(s.out, output.FError(err.Error()))
		return
	}
	s.mode = mode
	if err := s.store.Remember(mode, 0); err != nil {
		log.Warn().Str("op", "cmd/queue").Err(err).Msg("could not save settings")
	}
	fmt.Fprintln(s.out, output.FSuccess("mode set to "+string(mode)))
}
