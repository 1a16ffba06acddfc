package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ytqueue/ytqueue/internal/config"
	"github.com/ytqueue/ytqueue/internal/download"
	"github.com/ytqueue/ytqueue/internal/engine"
	"github.com/ytqueue/ytqueue/internal/expand"
	"github.com/ytqueue/ytqueue/internal/model"
	"github.com/ytqueue/ytqueue/internal/platform"
	"github.com/ytqueue/ytqueue/internal/queue"
)

// Usage errors. These block the requested action before any background work
// starts and leave all state unchanged.
var (
	// ErrEmptyQueue means no selected items are available to download.
	ErrEmptyQueue = errors.New("queue has no selected items")

	// ErrNoFolder means no save folder is configured.
	ErrNoFolder = errors.New("no save folder set")

	// ErrExpansionBusy means references are still being expanded.
	ErrExpansionBusy = errors.New("expansion still in progress")

	// ErrRunActive means a download run is already in flight.
	ErrRunActive = errors.New("a download run is already active")

	// ErrNothingToDownload means the dispatch filter excluded every
	// selected item.
	ErrNothingToDownload = errors.New("filter excluded every selected item")
)

// Events carries the coordinator's notification callbacks. Nil callbacks are
// skipped. Expansion events fire on the pipeline goroutine, run events on
// the run goroutine.
type Events struct {
	// Log receives human-readable lines from every processor.
	Log func(msg string)

	// QueueChanged fires after the store's contents change.
	QueueChanged func()

	// Pending reports the pending expansion counter whenever it moves.
	Pending func(n int)

	// ExpandCount relays the pipeline's liveness counts for the
	// reference currently expanding.
	ExpandCount func(n int)

	// ExpansionIdle fires when the pipeline's mailbox drains.
	ExpansionIdle func()

	// CurrentItem, FilePercent, FileETA, TotalPercent and TotalETA relay
	// the active run's progress display state.
	CurrentItem  func(title string)
	FilePercent  func(percent int)
	FileETA      func(eta string)
	TotalPercent func(percent int)
	TotalETA     func(eta string)

	// RunFinished fires when the active run reaches a terminal status.
	RunFinished func(status model.RunStatus, msg string)
}

// Coordinator wires user actions to the expansion pipeline and the download
// orchestrator. All methods are safe for concurrent use.
type Coordinator struct {
	store      *queue.Store
	pipeline   *expand.Pipeline
	downloader engine.Downloader
	events     Events

	mu       sync.Mutex
	settings config.Settings
	pending  int
	run      *download.Orchestrator
}

// New builds a coordinator around the given resolver and downloader. Call
// Start before submitting references.
func New(resolver engine.Resolver, downloader engine.Downloader, settings config.Settings, events Events) *Coordinator {
	c := &Coordinator{
		store:      queue.NewStore(),
		downloader: downloader,
		events:     events,
		settings:   settings,
	}
	c.pipeline = expand.NewPipeline(resolver, expand.Events{
		Log:      c.emitLog,
		Count:    c.emitExpandCount,
		Finished: c.onExpansionFinished,
		Idle:     c.emitExpansionIdle,
	})
	return c
}

// Start launches the expansion pipeline worker.
func (c *Coordinator) Start() {
	c.pipeline.Start()
}

// Store exposes the queue store for read access and selection changes.
func (c *Coordinator) Store() *queue.Store {
	return c.store
}

// Settings returns a copy of the current settings.
func (c *Coordinator) Settings() config.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// UpdateSettings replaces the shared settings. An active run is unaffected;
// it holds an immutable snapshot taken at start.
func (c *Coordinator) UpdateSettings(s config.Settings) {
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
}

// Pending returns the pending expansion counter.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// AddReferences normalizes and submits raw references to the expansion
// pipeline. Blank references are dropped; channel roots are rewritten to
// their content listing before submission. Returns how many were accepted.
func (c *Coordinator) AddReferences(refs []string) int {
	accepted := 0
	for _, raw := range refs {
		ref := platform.NormalizeURL(raw)
		if ref == "" {
			continue
		}
		ref = platform.ToContentListing(ref)

		c.mu.Lock()
		c.pending++
		pending := c.pending
		c.mu.Unlock()
		c.emitPending(pending)

		if !c.pipeline.Submit(ref) {
			c.decrementPending()
			continue
		}
		accepted++
	}
	return accepted
}

// ImportFile bulk-loads URL-shaped lines from a text file and submits each
// as a root reference, so listing URLs in the file expand into per-video
// items exactly like pasted ones. Returns how many references were
// submitted; the resulting items arrive through the expansion pipeline and
// the store's dedup gate.
func (c *Coordinator) ImportFile(path string) (int, error) {
	urls, err := queue.ReadURLsTxt(path)
	if err != nil {
		return 0, err
	}
	submitted := c.AddReferences(urls)
	c.emitLog(fmt.Sprintf("imported %d references from %s", submitted, path))
	return submitted, nil
}

// ExportFile writes the queue's URLs to a text file, one per line.
func (c *Coordinator) ExportFile(path string) error {
	if err := c.store.ExportTxt(path); err != nil {
		return err
	}
	c.emitLog(fmt.Sprintf("exported %d items to %s", c.store.Len(), path))
	return nil
}

// Remove deletes items at the given positions.
func (c *Coordinator) Remove(indices []int) int {
	removed := c.store.Remove(indices)
	if removed > 0 {
		c.emitQueueChanged()
	}
	return removed
}

// Clear empties the queue.
func (c *Coordinator) Clear() {
	c.store.Clear()
	c.emitQueueChanged()
}

// StartRun dispatches the selected items as one download run. The run is
// rejected while expansions are pending, while another run is active, when
// nothing is selected, when no folder is set, or when the filter excludes
// everything. Filtered-out items are marked Skipped in the store.
func (c *Coordinator) StartRun() error {
	c.mu.Lock()
	if c.pending > 0 {
		c.mu.Unlock()
		return ErrExpansionBusy
	}
	if c.run != nil && !c.run.Status().IsTerminal() {
		c.mu.Unlock()
		return ErrRunActive
	}
	settings := c.settings
	c.mu.Unlock()

	selected := c.store.SelectedItems()
	if len(selected) == 0 {
		return ErrEmptyQueue
	}
	if settings.SaveFolder == "" {
		return ErrNoFolder
	}

	matched, excluded := settings.FilterSpec().Apply(selected)
	for _, item := range excluded {
		item.Status = model.ItemStatusSkipped
	}
	if len(excluded) > 0 {
		c.emitQueueChanged()
		c.emitLog(fmt.Sprintf("filter excluded %d of %d selected items", len(excluded), len(selected)))
	}
	if len(matched) == 0 {
		return ErrNothingToDownload
	}

	orch, err := download.NewOrchestrator(c.downloader, matched, settings.RunOptions(), download.Events{
		Log:          c.emitLog,
		CurrentItem:  c.emitCurrentItem,
		FilePercent:  c.emitFilePercent,
		FileETA:      c.emitFileETA,
		TotalPercent: c.emitTotalPercent,
		TotalETA:     c.emitTotalETA,
		Finished:     c.onRunFinished,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.run != nil && !c.run.Status().IsTerminal() {
		c.mu.Unlock()
		return ErrRunActive
	}
	c.run = orch
	c.mu.Unlock()

	c.emitLog(fmt.Sprintf("starting run: %d items", len(matched)))
	orch.Start()
	return nil
}

// StopRun requests cancellation of the active run, if any. The in-flight
// item is allowed to finish.
func (c *Coordinator) StopRun() {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()
	if run != nil {
		run.Stop()
	}
}

// CancelExpansion discards queued references and resets the pending counter.
// An in-flight resolution finishes but its result is discarded.
func (c *Coordinator) CancelExpansion() {
	c.pipeline.Cancel()
	c.mu.Lock()
	c.pending = 0
	c.mu.Unlock()
	c.emitPending(0)
}

// Shutdown cancels both processors and waits bounded for each to go idle.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.StopRun()
	c.CancelExpansion()

	deadline := time.Now().Add(timeout)

	c.mu.Lock()
	run := c.run
	c.mu.Unlock()
	if run != nil {
		select {
		case <-run.Done():
		case <-time.After(time.Until(deadline)):
			return errors.New("download run did not stop in time")
		}
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		remaining = time.Millisecond
	}
	return c.pipeline.Close(remaining)
}

// onExpansionFinished merges one expansion result into the store and
// decrements the pending counter. Duplicates are silently rejected by the
// store's dedup gate.
func (c *Coordinator) onExpansionFinished(res expand.Result) {
	added := 0
	if !res.Cancelled || len(res.Items) > 0 {
		added = c.store.AddAll(res.Items)
	}
	if res.Message != "" {
		c.emitLog(res.Message)
	}
	if added > 0 {
		c.emitQueueChanged()
	}
	c.decrementPending()
}

func (c *Coordinator) onRunFinished(status model.RunStatus, msg string) {
	c.emitQueueChanged()
	if c.events.RunFinished != nil {
		c.events.RunFinished(status, msg)
	}
}

func (c *Coordinator) decrementPending() {
	c.mu.Lock()
	if c.pending > 0 {
		c.pending--
	}
	pending := c.pending
	c.mu.Unlock()
	c.emitPending(pending)
}

func (c *Coordinator) emitLog(msg string) {
	if c.events.Log != nil {
		c.events.Log(msg)
	}
}

func (c *Coordinator) emitQueueChanged() {
	if c.events.QueueChanged != nil {
		c.events.QueueChanged()
	}
}

func (c *Coordinator) emitPending(n int) {
	if c.events.Pending != nil {
		c.events.Pending(n)
	}
}

func (c *Coordinator) emitExpandCount(n int) {
	if c.events.ExpandCount != nil {
		c.events.ExpandCount(n)
	}
}

func (c *Coordinator) emitExpansionIdle() {
	if c.events.ExpansionIdle != nil {
		c.events.ExpansionIdle()
	}
}

func (c *Coordinator) emitCurrentItem(title string) {
	if c.events.CurrentItem != nil {
		c.events.CurrentItem(title)
	}
}

func (c *Coordinator) emitFilePercent(p int) {
	if c.events.FilePercent != nil {
		c.events.FilePercent(p)
	}
}

func (c *Coordinator) emitFileETA(eta string) {
	if c.events.FileETA != nil {
		c.events.FileETA(eta)
	}
}

func (c *Coordinator) emitTotalPercent(p int) {
	if c.events.TotalPercent != nil {
		c.events.TotalPercent(p)
	}
}

func (c *Coordinator) emitTotalETA(eta string) {
	if c.events.TotalETA != nil {
		c.events.TotalETA(eta)
	}
}
