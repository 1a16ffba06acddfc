package download

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/google/uuid"

	"github.com/ytqueue/ytqueue/internal/engine"
	"github.com/ytqueue/ytqueue/internal/model"
	"github.com/ytqueue/ytqueue/internal/platform"
)

// Display constants
const (
	// CalculatingETA is reported as the aggregate ETA before the first item
	// completes; there is no basis for an estimate yet.
	CalculatingETA = "calculating"

	// UnknownFileETA resets the per-file ETA display between items.
	UnknownFileETA = "--:--"

	// SessionTimeFormat stamps the session log header.
	SessionTimeFormat = "2006-01-02 15:04:05"
)

// Startup validation errors.
var (
	ErrNoItems  = errors.New("item list is empty")
	ErrNoFolder = errors.New("no save folder set")
)

// Events carries the orchestrator's notification callbacks. Nil callbacks
// are skipped. All callbacks fire on the run goroutine, in processing order.
type Events struct {
	// Log receives human-readable progress lines.
	Log func(msg string)

	// CurrentItem fires when a new item starts downloading.
	CurrentItem func(title string)

	// FilePercent and FileETA mirror the engine's per-file progress.
	FilePercent func(percent int)
	FileETA     func(eta string)

	// TotalPercent and TotalETA report aggregate run progress. TotalPercent
	// advances once per completed item; TotalETA is CalculatingETA until
	// the first item completes.
	TotalPercent func(percent int)
	TotalETA     func(eta string)

	// Finished fires exactly once when the run reaches a terminal status.
	Finished func(status model.RunStatus, msg string)
}

// Orchestrator executes one download run. Create with NewOrchestrator,
// launch with Start, cancel with Stop. It is torn down after its single run;
// a new run needs a new orchestrator.
type Orchestrator struct {
	downloader engine.Downloader
	items      []*model.Item
	opts       engine.RunOptions
	events     Events
	runID      string

	mu      sync.Mutex
	status  model.RunStatus
	stopped bool
	started time.Time
	done    int
	failed  int

	doneCh chan struct{}
}

// NewOrchestrator validates the run inputs. An empty item list or a missing
// save folder is a usage error reported here, before any work starts.
func NewOrchestrator(downloader engine.Downloader, items []*model.Item, opts engine.RunOptions, events Events) (*Orchestrator, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if opts.SaveFolder == "" {
		return nil, ErrNoFolder
	}
	return &Orchestrator{
		downloader: downloader,
		items:      items,
		opts:       opts,
		events:     events,
		runID:      uuid.NewString(),
		status:     model.RunStatusIdle,
		doneCh:     make(chan struct{}),
	}, nil
}

// ID returns the run identifier.
func (o *Orchestrator) ID() string {
	return o.runID
}

// Status returns the current run status.
func (o *Orchestrator) Status() model.RunStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// DoneCount returns how many items have been attempted so far.
func (o *Orchestrator) DoneCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// Done is closed when the run reaches a terminal status.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.doneCh
}

// Start launches the run goroutine. Call once.
func (o *Orchestrator) Start() {
	o.mu.Lock()
	o.status = model.RunStatusRunning
	o.started = time.Now()
	o.mu.Unlock()

	go o.run()
}

// Stop requests cancellation. The flag is checked at the top of each
// per-item iteration, never mid-download; the in-flight engine call is
// allowed to finish.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()
}

// run works through the item list sequentially.
func (o *Orchestrator) run() {
	defer close(o.doneCh)

	logFile := o.openSessionLog()
	if logFile != nil {
		defer logFile.Close()
	}

	total := len(o.items)
	for idx, item := range o.items {
		if o.isStopped() {
			done := o.DoneCount()
			o.setStatus(model.RunStatusCancelled)
			msg := fmt.Sprintf("stopped by user (%d/%d done)", done, total)
			o.emitLog(msg)
			o.writeLog(logFile, msg)
			o.emitFinished(model.RunStatusCancelled, msg)
			return
		}

		title := item.DisplayTitle()
		o.emitCurrentItem(title)

		line := fmt.Sprintf("[%d/%d] %s", idx+1, total, title)
		o.emitLog(line)
		o.writeLog(logFile, line)

		// Reset per-file display state before the engine reports anything.
		o.emitFilePercent(0)
		o.emitFileETA(UnknownFileETA)

		item.Status = model.ItemStatusDownloading
		err := o.downloader.Download(context.Background(), item.URL, o.opts, o.onProgress)
		if err != nil {
			item.Status = model.ItemStatusFailed
			emsg := fmt.Sprintf("failed: %s (%v)", title, err)
			o.emitLog(emsg)
			o.writeLog(logFile, emsg)
			o.mu.Lock()
			o.failed++
			o.mu.Unlock()
		} else {
			item.Status = model.ItemStatusDone
		}

		o.mu.Lock()
		o.done++
		done := o.done
		o.mu.Unlock()

		o.emitTotalPercent(int(math.Round(float64(done) / float64(total) * 100)))
	}

	// Force terminal display values; the last computed ones may lag behind
	// due to rounding.
	o.emitFilePercent(100)
	o.emitTotalPercent(100)
	o.emitTotalETA(platform.FormatHMS(0))

	o.mu.Lock()
	failed := o.failed
	o.mu.Unlock()

	o.setStatus(model.RunStatusCompleted)
	msg := fmt.Sprintf("completed: %d ok, %d failed", total-failed, failed)
	o.writeLog(logFile, msg)
	o.emitFinished(model.RunStatusCompleted, msg)
}

// onProgress translates one engine progress payload into display events.
// Percent and ETA strings are sanitized of terminal color codes and passed
// through otherwise; the aggregate ETA is derived from per-item pacing.
func (o *Orchestrator) onProgress(p engine.Progress) {
	if o.isStopped() {
		return
	}

	if p.Phase == engine.PhaseFinished {
		o.emitLog("merging...")
		return
	}

	pctStr := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(stripansi.Strip(p.Percent)), "%"))
	if pct, err := strconv.ParseFloat(pctStr, 64); err == nil {
		o.emitFilePercent(int(pct))
	}
	o.emitFileETA(strings.TrimSpace(stripansi.Strip(p.ETA)))

	o.mu.Lock()
	done := o.done
	elapsed := time.Since(o.started)
	o.mu.Unlock()

	if done > 0 {
		avg := elapsed / time.Duration(done)
		remaining := len(o.items) - done
		o.emitTotalETA(platform.FormatHMS(avg * time.Duration(remaining)))
	} else {
		o.emitTotalETA(CalculatingETA)
	}
}

// openSessionLog opens the append-only session log when the run options
// name one, writing the header and settings block. A log failure downgrades
// to console-only logging, never a run failure.
func (o *Orchestrator) openSessionLog() *os.File {
	if o.opts.LogPath == "" {
		return nil
	}

	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(o.opts.LogPath)); err != nil {
		o.emitLog(fmt.Sprintf("session log unavailable: %v", err))
		return nil
	}
	f, err := os.OpenFile(o.opts.LogPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		o.emitLog(fmt.Sprintf("session log unavailable: %v", err))
		return nil
	}

	fmt.Fprintf(f, "\n--- Session %s (run %s) ---\n", time.Now().Format(SessionTimeFormat), o.runID)
	fmt.Fprintf(f, "format=%s\n", o.opts.FormatString())
	if sort := o.opts.FormatSortArgs(); len(sort) > 0 {
		fmt.Fprintf(f, "format_sort=%s\n", strings.Join(sort, ","))
	}
	if o.opts.CookieBrowser != "" {
		fmt.Fprintf(f, "cookies_from_browser=%s\n", o.opts.CookieBrowser)
	}
	if o.opts.DateAfter != "" {
		fmt.Fprintf(f, "date_after=%s\n", o.opts.DateAfter)
	}
	if o.opts.DateBefore != "" {
		fmt.Fprintf(f, "date_before=%s\n", o.opts.DateBefore)
	}
	return f
}

// writeLog appends one line to the session log when it is open.
func (o *Orchestrator) writeLog(f *os.File, line string) {
	if f == nil {
		return
	}
	fmt.Fprintln(f, line)
}

func (o *Orchestrator) isStopped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopped
}

func (o *Orchestrator) setStatus(s model.RunStatus) {
	o.mu.Lock()
	o.status = s
	o.mu.Unlock()
}

func (o *Orchestrator) emitLog(msg string) {
	if o.events.Log != nil {
		o.events.Log(msg)
	}
}

func (o *Orchestrator) emitCurrentItem(title string) {
	if o.events.CurrentItem != nil {
		o.events.CurrentItem(title)
	}
}

func (o *Orchestrator) emitFilePercent(p int) {
	if o.events.FilePercent != nil {
		o.events.FilePercent(p)
	}
}

func (o *Orchestrator) emitFileETA(eta string) {
	if o.events.FileETA != nil {
		o.events.FileETA(eta)
	}
}

func (o *Orchestrator) emitTotalPercent(p int) {
	if o.events.TotalPercent != nil {
		o.events.TotalPercent(p)
	}
}

func (o *Orchestrator) emitTotalETA(eta string) {
	if o.events.TotalETA != nil {
		o.events.TotalETA(eta)
	}
}

func (o *Orchestrator) emitFinished(status model.RunStatus, msg string) {
	if o.events.Finished != nil {
		o.events.Finished(status, msg)
	}
}
