package expand

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ytqueue/ytqueue/internal/engine"
	"github.com/ytqueue/ytqueue/internal/model"
	"github.com/ytqueue/ytqueue/internal/platform"
)

// Pipeline tuning constants
const (
	// CountInterval is how many collected items pass between liveness
	// count notifications while a large listing is being built.
	CountInterval = 200
)

// Result is the outcome of expanding one reference.
type Result struct {
	// OK means the reference resolved and its items were fully collected.
	OK bool

	// Cancelled means collection stopped at a user-cancel checkpoint;
	// Items holds the partial result gathered so far.
	Cancelled bool

	// Message is a human-readable log line describing the outcome.
	Message string

	// Items are the collected queue items, zero or more.
	Items []*model.Item
}

// Events carries the pipeline's notification callbacks. Nil callbacks are
// skipped. Callbacks fire on the pipeline goroutine, in processing order.
type Events struct {
	// Log receives human-readable progress lines.
	Log func(msg string)

	// Count receives the number of items collected so far for the
	// reference currently expanding, every CountInterval items and once
	// at the end.
	Count func(n int)

	// Finished fires exactly once per processed reference.
	Finished func(res Result)

	// Idle fires when the mailbox drains and the pipeline goes quiet.
	Idle func()
}

// Pipeline is the persistent expansion worker. Create with NewPipeline,
// start with Start, feed with Submit, and tear down with Close.
type Pipeline struct {
	resolver engine.Resolver
	events   Events

	mu      sync.Mutex
	fifo    []string
	stopped bool

	wake chan struct{}
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPipeline creates a pipeline over the given resolver.
func NewPipeline(resolver engine.Resolver, events Events) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		resolver: resolver,
		events:   events,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker goroutine. Call once.
func (p *Pipeline) Start() {
	go p.run()
}

// Submit appends a reference to the mailbox. Empty input (after trimming)
// is rejected as a no-op and Submit returns false. Never blocks.
func (p *Pipeline) Submit(ref string) bool {
	ref = platform.NormalizeURL(ref)
	if ref == "" {
		return false
	}

	p.mu.Lock()
	p.fifo = append(p.fifo, ref)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return true
}

// Cancel clears the mailbox and flags the expansion in flight to stop at
// its next checkpoint. The in-flight external call itself is not
// interrupted; its result is discarded or truncated at the checkpoint.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	p.stopped = true
	p.fifo = nil
	p.mu.Unlock()
}

// Close cancels outstanding work and waits up to timeout for the worker to
// acknowledge. Returns an error when the worker does not stop in time.
func (p *Pipeline) Close(timeout time.Duration) error {
	p.Cancel()
	p.cancel()

	select {
	case <-p.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("expansion pipeline did not stop within %v", timeout)
	}
}

// run is the mailbox loop: block until woken, drain the FIFO one reference
// at a time, then go idle. Processing never overlaps.
func (p *Pipeline) run() {
	defer close(p.done)

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.wake:
		}

		processed := 0
		for {
			ref, ok := p.pop()
			if !ok {
				break
			}
			if p.isStopped() {
				// Cancel landed after the pop; the reference must not
				// process as if nothing happened.
				p.emitFinished(Result{Cancelled: true, Message: "cancelled before expansion"})
				processed++
				continue
			}
			p.expand(ref)
			processed++
		}
		if processed > 0 {
			p.emitIdle()
		}
	}
}

// pop takes the head of the FIFO. A cancel observed here has already
// cleared the mailbox, so it is consumed in the same critical section and
// cannot leak into references submitted afterwards.
func (p *Pipeline) pop() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = false
	if len(p.fifo) == 0 {
		return "", false
	}
	ref := p.fifo[0]
	p.fifo = p.fifo[1:]
	return ref, true
}

// isStopped reads the cancel flag at a checkpoint.
func (p *Pipeline) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// expand resolves one reference into items and emits the result. The cancel
// flag was consumed by pop, so any stop observed from here on belongs to
// this reference.
func (p *Pipeline) expand(ref string) {
	p.emitCount(0)
	p.emitLog(fmt.Sprintf("expanding: %s", ref))

	resolved, err := p.resolver.Resolve(p.ctx, ref)
	if err != nil {
		p.emitFinished(Result{Message: fmt.Sprintf("resolve failed: %v", err)})
		return
	}

	if p.isStopped() {
		p.emitFinished(Result{Cancelled: true, Message: "cancelled before collection"})
		return
	}

	if !resolved.IsListing() {
		// Single playable entity; the submitted reference stays the key.
		title := resolved.Title
		if title == "" {
			title = ref
		}
		item := model.NewItem(ref, title)
		p.emitCount(1)
		p.emitFinished(Result{OK: true, Message: "added 1 item", Items: []*model.Item{item}})
		return
	}

	entries := p.correctTabAmbiguity(ref, resolved.Entries)
	p.collect(entries)
}

// correctTabAmbiguity applies the one-shot retry heuristic: when every
// resolved entry is itself a listing, the resolver handed back channel tabs
// instead of content, so the reference is rewritten to its content-listing
// variant and resolved once more. If the retry fails, or again yields only
// listing entries, the original entries are kept; there is never a second
// retry.
func (p *Pipeline) correctTabAmbiguity(ref string, entries []engine.Entry) []engine.Entry {
	if len(entries) == 0 || !allListingEntries(entries) {
		return entries
	}

	p.emitLog("only tab entries detected, retrying against the content listing")
	retryRef := platform.ToContentListing(ref)
	if retryRef == ref {
		return entries
	}

	retried, err := p.resolver.Resolve(p.ctx, retryRef)
	if err != nil {
		p.emitLog(fmt.Sprintf("content listing retry failed: %v", err))
		return entries
	}
	if !retried.IsListing() || allListingEntries(retried.Entries) {
		p.emitLog("retry still returned tabs or nothing, keeping original result")
		return entries
	}

	p.emitLog(fmt.Sprintf("retry succeeded: %s", retryRef))
	return retried.Entries
}

// collect builds items from listing entries, honoring the cancel checkpoint
// between entries and emitting a liveness count every CountInterval items.
func (p *Pipeline) collect(entries []engine.Entry) {
	collected := make([]*model.Item, 0, len(entries))

	n := 0
	for _, e := range entries {
		if p.isStopped() {
			p.emitFinished(Result{
				Cancelled: true,
				Message:   fmt.Sprintf("cancelled by user (%d items collected)", n),
				Items:     collected,
			})
			return
		}
		if e.URL == "" {
			continue
		}
		collected = append(collected, model.NewItem(e.URL, e.Title))
		n++
		if n%CountInterval == 0 {
			p.emitCount(n)
		}
	}

	p.emitCount(n)
	p.emitFinished(Result{OK: true, Message: fmt.Sprintf("added %d items", n), Items: collected})
}

func (p *Pipeline) emitLog(msg string) {
	if p.events.Log != nil {
		p.events.Log(msg)
	}
}

func (p *Pipeline) emitCount(n int) {
	if p.events.Count != nil {
		p.events.Count(n)
	}
}

func (p *Pipeline) emitFinished(res Result) {
	if p.events.Finished != nil {
		p.events.Finished(res)
	}
}

func (p *Pipeline) emitIdle() {
	if p.events.Idle != nil {
		p.events.Idle()
	}
}

// allListingEntries reports whether every entry's URL points at another
// listing.
func allListingEntries(entries []engine.Entry) bool {
	for _, e := range entries {
		if !platform.IsListingEntry(e.URL) {
			return false
		}
	}
	return true
}
