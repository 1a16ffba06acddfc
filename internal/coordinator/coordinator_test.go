package coordinator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ytqueue/ytqueue/internal/config"
	"github.com/ytqueue/ytqueue/internal/engine"
	"github.com/ytqueue/ytqueue/internal/model"
)

// fakeResolver answers each URL with a scripted resolution or error and can
// hold every resolution open until released.
type fakeResolver struct {
	mu        sync.Mutex
	responses map[string]*engine.Resolved
	errs      map[string]error
	hold      chan struct{}
}

func (f *fakeResolver) Resolve(_ context.Context, url string) (*engine.Resolved, error) {
	f.mu.Lock()
	hold := f.hold
	f.mu.Unlock()
	if hold != nil {
		<-hold
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if res, ok := f.responses[url]; ok {
		return res, nil
	}
	return &engine.Resolved{Title: "video", URL: url}, nil
}

type fakeDownloader struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeDownloader) Download(_ context.Context, url string, _ engine.RunOptions, _ func(engine.Progress)) error {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	return nil
}

func (f *fakeDownloader) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// blockingDownloader parks every call until released so a run can be
// observed mid-flight.
type blockingDownloader struct {
	release chan struct{}
	startCh chan struct{}
	once    sync.Once
}

func newBlockingDownloader() *blockingDownloader {
	return &blockingDownloader{
		release: make(chan struct{}),
		startCh: make(chan struct{}),
	}
}

func (b *blockingDownloader) Download(_ context.Context, _ string, _ engine.RunOptions, _ func(engine.Progress)) error {
	b.once.Do(func() { close(b.startCh) })
	<-b.release
	return nil
}

func (b *blockingDownloader) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-b.startCh:
	case <-time.After(3 * time.Second):
		t.Fatal("download never started")
	}
}

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	s.SaveFolder = t.TempDir()
	return s
}

// newTestCoordinator wires a coordinator whose run-finished events land on
// the returned channel.
func newTestCoordinator(t *testing.T, resolver engine.Resolver, dl engine.Downloader, settings config.Settings) (*Coordinator, chan model.RunStatus) {
	t.Helper()
	runDone := make(chan model.RunStatus, 4)
	c := New(resolver, dl, settings, Events{
		RunFinished: func(status model.RunStatus, _ string) {
			runDone <- status
		},
	})
	c.Start()
	t.Cleanup(func() {
		if err := c.Shutdown(2 * time.Second); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})
	return c, runDone
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// waitExpanded waits until all submissions have settled and the store holds
// the expected number of items.
func waitExpanded(t *testing.T, c *Coordinator, storeLen int) {
	t.Helper()
	waitFor(t, "expansion to settle", func() bool {
		return c.Pending() == 0 && c.Store().Len() == storeLen
	})
}

func waitRunDone(t *testing.T, runDone chan model.RunStatus) model.RunStatus {
	t.Helper()
	select {
	case status := <-runDone:
		return status
	case <-time.After(3 * time.Second):
		t.Fatal("run did not finish in time")
		return model.RunStatusIdle
	}
}

func TestAddReferencesExpandsIntoStore(t *testing.T) {
	c, _ := newTestCoordinator(t, &fakeResolver{}, &fakeDownloader{}, testSettings(t))

	n := c.AddReferences([]string{"  https://v.test/a  ", "", "https://v.test/b"})
	if n != 2 {
		t.Fatalf("accepted: got %d, want 2", n)
	}
	waitExpanded(t, c, 2)
}

func TestAddReferencesRewritesChannelRoot(t *testing.T) {
	resolver := &fakeResolver{responses: map[string]*engine.Resolved{
		"https://x.test/@handle/videos": {
			Entries: []engine.Entry{
				{URL: "https://x.test/watch?v=1", Title: "one"},
				{URL: "https://x.test/watch?v=2", Title: "two"},
			},
		},
	}}
	c, _ := newTestCoordinator(t, resolver, &fakeDownloader{}, testSettings(t))

	c.AddReferences([]string{"https://x.test/@handle"})
	waitExpanded(t, c, 2)
}

func TestResolutionFailureLeavesQueueUnchanged(t *testing.T) {
	resolver := &fakeResolver{errs: map[string]error{
		"https://v.test/bad": errors.New("extraction failed"),
	}}
	c, _ := newTestCoordinator(t, resolver, &fakeDownloader{}, testSettings(t))

	c.AddReferences([]string{"https://v.test/bad"})
	waitExpanded(t, c, 0)
}

func TestStartRunUsageErrors(t *testing.T) {
	settings := testSettings(t)
	c, _ := newTestCoordinator(t, &fakeResolver{}, &fakeDownloader{}, settings)

	if err := c.StartRun(); !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("empty queue: got %v, want ErrEmptyQueue", err)
	}

	c.AddReferences([]string{"https://v.test/a"})
	waitExpanded(t, c, 1)

	settings.SaveFolder = ""
	c.UpdateSettings(settings)
	if err := c.StartRun(); !errors.Is(err, ErrNoFolder) {
		t.Errorf("no folder: got %v, want ErrNoFolder", err)
	}
}

func TestStartRunRejectedWhileExpansionPending(t *testing.T) {
	hold := make(chan struct{})
	resolver := &fakeResolver{hold: hold}
	c, _ := newTestCoordinator(t, resolver, &fakeDownloader{}, testSettings(t))

	c.AddReferences([]string{"https://v.test/a"})
	if err := c.StartRun(); !errors.Is(err, ErrExpansionBusy) {
		t.Errorf("got %v, want ErrExpansionBusy", err)
	}

	close(hold)
	waitExpanded(t, c, 1)
}

func TestStartRunDispatchesSelectedFilteredItems(t *testing.T) {
	dl := &fakeDownloader{}
	settings := testSettings(t)
	settings.ExcludeShorts = true
	c, runDone := newTestCoordinator(t, &fakeResolver{}, dl, settings)

	c.AddReferences([]string{
		"https://v.test/a",
		"https://v.test/shorts/b",
		"https://v.test/c",
	})
	waitExpanded(t, c, 3)

	if err := c.StartRun(); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if status := waitRunDone(t, runDone); status != model.RunStatusCompleted {
		t.Errorf("run status: got %v, want Completed", status)
	}

	calls := dl.callList()
	if len(calls) != 2 {
		t.Fatalf("downloads: got %d, want 2", len(calls))
	}
	for _, url := range calls {
		if url == "https://v.test/shorts/b" {
			t.Error("shorts item was dispatched despite the filter")
		}
	}
	for _, item := range c.Store().Items() {
		if item.URL == "https://v.test/shorts/b" && item.Status != model.ItemStatusSkipped {
			t.Errorf("filtered item status: got %v, want Skipped", item.Status)
		}
	}
}

func TestStartRunNothingToDownload(t *testing.T) {
	settings := testSettings(t)
	settings.ExcludeShorts = true
	c, _ := newTestCoordinator(t, &fakeResolver{}, &fakeDownloader{}, settings)

	c.AddReferences([]string{"https://v.test/shorts/only"})
	waitExpanded(t, c, 1)

	if err := c.StartRun(); !errors.Is(err, ErrNothingToDownload) {
		t.Errorf("got %v, want ErrNothingToDownload", err)
	}
}

func TestSecondRunRejectedWhileActive(t *testing.T) {
	dl := newBlockingDownloader()
	c, runDone := newTestCoordinator(t, &fakeResolver{}, dl, testSettings(t))

	c.AddReferences([]string{"https://v.test/a"})
	waitExpanded(t, c, 1)

	if err := c.StartRun(); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	dl.waitStarted(t)

	if err := c.StartRun(); !errors.Is(err, ErrRunActive) {
		t.Errorf("got %v, want ErrRunActive", err)
	}

	close(dl.release)
	waitRunDone(t, runDone)
}

func TestImportExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.txt")
	outPath := filepath.Join(dir, "out.txt")
	content := "https://v.test/a\nsee https://v.test/b, also noise\nhttps://v.test/a\n"
	if err := os.WriteFile(inPath, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, _ := newTestCoordinator(t, &fakeResolver{}, &fakeDownloader{}, testSettings(t))

	submitted, err := c.ImportFile(inPath)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if submitted != 3 {
		t.Errorf("submitted: got %d, want 3", submitted)
	}
	// The duplicate reference expands again but the store's dedup gate
	// rejects its item.
	waitExpanded(t, c, 2)

	if err := c.ExportFile(outPath); err != nil {
		t.Fatalf("ExportFile: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "https://v.test/a\nhttps://v.test/b\n"
	if string(data) != want {
		t.Errorf("export content:\ngot  %q\nwant %q", string(data), want)
	}
}

func TestImportFileExpandsListingURLs(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.txt")
	content := "https://x.test/playlist?list=p1\nhttps://v.test/solo\n"
	if err := os.WriteFile(inPath, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	resolver := &fakeResolver{responses: map[string]*engine.Resolved{
		"https://x.test/playlist?list=p1": {
			Entries: []engine.Entry{
				{URL: "https://x.test/watch?v=1", Title: "one"},
				{URL: "https://x.test/watch?v=2", Title: "two"},
				{URL: "https://x.test/watch?v=3", Title: "three"},
			},
		},
	}}
	c, _ := newTestCoordinator(t, resolver, &fakeDownloader{}, testSettings(t))

	submitted, err := c.ImportFile(inPath)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if submitted != 2 {
		t.Fatalf("submitted: got %d, want 2", submitted)
	}
	waitExpanded(t, c, 4)

	if c.Store().Contains("https://x.test/playlist?list=p1") {
		t.Error("listing URL stored as a raw item instead of its entries")
	}
	for _, url := range []string{
		"https://x.test/watch?v=1",
		"https://x.test/watch?v=2",
		"https://x.test/watch?v=3",
		"https://v.test/solo",
	} {
		if !c.Store().Contains(url) {
			t.Errorf("missing expanded item %s", url)
		}
	}
}

func TestCancelExpansionResetsPending(t *testing.T) {
	hold := make(chan struct{})
	resolver := &fakeResolver{hold: hold}
	c, _ := newTestCoordinator(t, resolver, &fakeDownloader{}, testSettings(t))

	c.AddReferences([]string{"https://v.test/a", "https://v.test/b", "https://v.test/c"})
	if c.Pending() != 3 {
		t.Fatalf("pending: got %d, want 3", c.Pending())
	}

	c.CancelExpansion()
	if c.Pending() != 0 {
		t.Errorf("pending after cancel: got %d, want 0", c.Pending())
	}
	close(hold)
}
