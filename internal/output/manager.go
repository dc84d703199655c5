package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tanq16/mediaq/internal/executor"
	"github.com/tanq16/mediaq/internal/job"
	"github.com/tanq16/mediaq/internal/scheduler"
	"github.com/tanq16/mediaq/internal/utils"
)

type JobOutput struct {
	ID          string
	URL         string
	Label       string
	Status      string
	Message     string
	StreamLine  string
	Percent     float64
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Index       int
}

// Manager renders scheduler events. In live mode it redraws a block of job
// lines on a ticker; otherwise it prints one line per terminal event, which
// keeps it usable next to an interactive prompt.
type Manager struct {
	out         io.Writer
	live        bool
	outputs     map[string]*JobOutput
	mutex       sync.RWMutex
	numLines    int
	jobCount    int
	frame       int
	summaries   []scheduler.Summary
	doneCh      chan struct{}
	displayTick time.Duration
	displayWg   sync.WaitGroup
	stopOnce    sync.Once
}

var _ scheduler.Sink = (*Manager)(nil)

func NewManager(out io.Writer, live bool) *Manager {
	return &Manager{
		out:         out,
		live:        live,
		outputs:     make(map[string]*JobOutput),
		doneCh:      make(chan struct{}),
		displayTick: defaultTick,
	}
}

func (m *Manager) OnQueueChanged(s scheduler.Snapshot) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	present := make(map[string]bool)
	for _, j := range s.Jobs() {
		present[j.ID] = true
		info, exists := m.outputs[j.ID]
		if !exists {
			m.jobCount++
			info = &JobOutput{
				ID:          j.ID,
				URL:         j.URL,
				Label:       j.Label(),
				Status:      statusPending,
				Index:       m.jobCount,
				LastUpdated: time.Now(),
			}
			m.outputs[j.ID] = info
		}
		if j == s.Active && info.Status == statusPending {
			info.Status = statusActive
			info.Message = fmt.Sprintf("%s %s", info.Label, utils.ShortenURL(info.URL))
			info.StartTime = time.Now()
			info.LastUpdated = time.Now()
			if !m.live {
				fmt.Fprintf(m.out, "  %s %s\n", m.statusIndicator(statusActive), pendingStyle.Render("Downloading "+info.Message))
			}
		}
	}
	for id, info := range m.outputs {
		if !info.Complete && !present[id] {
			delete(m.outputs, id)
		}
	}
}

func (m *Manager) OnProgress(j *job.Job, p job.Progress) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	info, exists := m.outputs[j.ID]
	if !exists {
		return
	}
	info.Percent = p.Percent
	if p.Status == utils.StatusPostProcessing {
		info.StreamLine = ProgressBar(100, barWidth) + debugStyle.Render(p.Status)
	} else if p.Indeterminate() {
		info.StreamLine = debugStyle.Render(spinnerFrames[m.frame%len(spinnerFrames)] + " " + p.Status)
		m.frame++
	} else {
		info.StreamLine = ProgressBar(p.Percent, barWidth) + debugStyle.Render(p.Status)
	}
	info.LastUpdated = time.Now()
}

func (m *Manager) OnJobTerminal(j *job.Job, t executor.Terminal) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	info, exists := m.outputs[j.ID]
	if !exists {
		return
	}
	info.Complete = true
	info.StreamLine = ""
	info.LastUpdated = time.Now()
	switch t.State {
	case utils.StateSucceeded:
		info.Status = statusSuccess
		info.Message = fmt.Sprintf("Completed %s", t.Filename)
	case utils.StateCancelled:
		info.Status = statusCanceled
		info.Message = fmt.Sprintf("Cancelled %s", utils.ShortenURL(info.URL))
	default:
		info.Status = statusError
		info.Message = fmt.Sprintf("Failed %s: %s", utils.ShortenURL(info.URL), t.Message)
	}
	if !m.live {
		fmt.Fprintf(m.out, "  %s %s\n", m.statusIndicator(info.Status), m.styleMessage(info.Status, info.Message))
	}
}

func (m *Manager) OnRunSummary(s scheduler.Summary) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.summaries = append(m.summaries, s)
	if !m.live {
		m.writeSummary(s)
	}
}

// Failures counts failed and cancelled jobs across every reported run.
func (m *Manager) Failures() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	n := 0
	for _, s := range m.summaries {
		n += len(s.Failed)
	}
	return n
}

func (m *Manager) statusIndicator(status string) string {
	switch status {
	case statusSuccess:
		return successStyle.Render(StyleSymbols["pass"])
	case statusError:
		return errorStyle.Render(StyleSymbols["fail"])
	case statusCanceled:
		return warningStyle.Render(StyleSymbols["warning"])
	case statusPending:
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) styleMessage(status, message string) string {
	switch status {
	case statusSuccess:
		return successStyle.Render(message)
	case statusError:
		return errorStyle.Render(message)
	case statusCanceled:
		return warningStyle.Render(message)
	default:
		return pendingStyle.Render(message)
	}
}

func (m *Manager) sortJobs() (active, pending, completed []*JobOutput) {
	var all []*JobOutput
	for _, info := range m.outputs {
		all = append(all, info)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Index < all[j].Index
	})
	for _, info := range all {
		switch {
		case info.Complete:
			completed = append(completed, info)
		case info.Status == statusPending:
			pending = append(pending, info)
		default:
			active = append(active, info)
		}
	}
	return active, pending, completed
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	availableLines := getTerminalHeight() - 3
	if m.numLines > 0 {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}
	lineCount := 0
	active, pending, completed := m.sortJobs()
	if len(completed) > maxCompleted {
		fmt.Fprintf(m.out, "  %s\n", infoStyle.Render(fmt.Sprintf("%d downloads finished earlier ...", len(completed)-maxCompleted)))
		completed = completed[len(completed)-maxCompleted:]
		lineCount++
	}
	for _, info := range completed {
		if lineCount >= availableLines {
			break
		}
		elapsed := info.LastUpdated.Sub(info.StartTime).Round(time.Second)
		fmt.Fprintf(m.out, "  %s %s %s\n", m.statusIndicator(info.Status), debugStyle.Render(elapsed.String()), m.styleMessage(info.Status, info.Message))
		lineCount++
	}
	for _, info := range active {
		if lineCount >= availableLines {
			break
		}
		elapsed := time.Since(info.StartTime).Round(time.Second)
		fmt.Fprintf(m.out, "  %s %s %s\n", m.statusIndicator(info.Status), debugStyle.Render(elapsed.String()), m.styleMessage(info.Status, info.Message))
		lineCount++
		if info.StreamLine != "" && lineCount < availableLines {
			fmt.Fprintf(m.out, "%s%s\n", strings.Repeat(" ", 6), info.StreamLine)
			lineCount++
		}
	}
	for _, info := range pending {
		if lineCount >= availableLines {
			break
		}
		fmt.Fprintf(m.out, "  %s %s\n", m.statusIndicator(info.Status), pendingStyle.Render("Waiting... "+utils.ShortenURL(info.URL)))
		lineCount++
	}
	m.numLines = lineCount
}

// StartDisplay begins live redrawing. It does nothing outside live mode.
func (m *Manager) StartDisplay() {
	if !m.live {
		return
	}
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				m.ShowSummary()
				return
			}
		}
	}()
}

// StopDisplay draws the final frame and the summaries collected so far.
func (m *Manager) StopDisplay() {
	m.stopOnce.Do(func() {
		close(m.doneCh)
	})
	m.displayWg.Wait()
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, s := range m.summaries {
		m.writeSummary(s)
	}
}

func (m *Manager) writeSummary(s scheduler.Summary) {
	total := len(s.Succeeded) + len(s.Failed)
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "  "+success2Style.Render(fmt.Sprintf("Completed %d of %d", len(s.Succeeded), total)))
	for _, entry := range s.Succeeded {
		fmt.Fprintf(m.out, "    %s %s\n", successStyle.Render(StyleSymbols["pass"]), successStyle.Render(entry.Filename))
	}
	if len(s.Failed) > 0 {
		fmt.Fprintln(m.out, "  "+errorStyle.Render(fmt.Sprintf("Failed %d of %d", len(s.Failed), total)))
		for _, entry := range s.Failed {
			fmt.Fprintf(m.out, "    %s %s\n", errorStyle.Render(StyleSymbols["fail"]), errorStyle.Render(utils.ShortenURL(entry.URL)))
			fmt.Fprintf(m.out, "      %s\n", debugStyle.Render(entry.Message))
		}
	}
	fmt.Fprintln(m.out)
}
