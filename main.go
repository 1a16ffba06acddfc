package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/ytqueue/ytqueue/internal/config"
	"github.com/ytqueue/ytqueue/internal/coordinator"
	"github.com/ytqueue/ytqueue/internal/engine"
	"github.com/ytqueue/ytqueue/internal/model"
	"github.com/ytqueue/ytqueue/internal/platform"
)

var (
	version = "dev"
	commit  string
	date    string
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		failLine.Fprintf(color.Error, "ytqueue: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "ytqueue"
	app.HelpName = "ytqueue"
	app.Usage = "queue-based video downloader for channels, playlists and single videos"
	app.Version = appVersion()
	app.Commands = []cli.Command{
		{
			Name:      "download",
			Aliases:   []string{"d"},
			Usage:     "expand the given references, then download the resulting queue",
			ArgsUsage: "<url> [url...]",
			Flags:     downloadFlags,
			Action:    downloadAction,
		},
		{
			Name:      "resolve",
			Aliases:   []string{"r"},
			Usage:     "expand the given references and print the queue without downloading",
			ArgsUsage: "<url> [url...]",
			Flags:     downloadFlags,
			Action:    resolveAction,
		},
	}
	return app
}

func appVersion() string {
	if commit == "" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

func downloadAction(ctx *cli.Context) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if settings.SaveFolder != "" {
		if err := platform.CreateDirectoryIfNotExists(settings.SaveFolder); err != nil {
			return fmt.Errorf("save folder: %w", err)
		}
	}

	eng := engine.NewYTDLP()
	rend := newRenderer()
	runDone := make(chan model.RunStatus, 1)
	waiter := newExpansionWaiter()

	coord := coordinator.New(eng, eng, settings, coordinator.Events{
		Log:           rend.Log,
		CurrentItem:   rend.CurrentItem,
		FilePercent:   rend.FilePercent,
		FileETA:       rend.FileETA,
		TotalPercent:  rend.TotalPercent,
		TotalETA:      rend.TotalETA,
		ExpansionIdle: waiter.notify,
		ExpandCount: func(n int) {
			if n > 0 {
				rend.Log(infoLine.Sprintf("collected %d items...", n))
			}
		},
		RunFinished: func(status model.RunStatus, msg string) {
			runDone <- status
		},
	})
	coord.Start()
	defer coord.Shutdown(shutdownTimeout)

	stopOnSignal(coord, waiter)

	if err := feedQueue(ctx, coord); err != nil {
		return err
	}
	waiter.wait(coord)

	if coord.Store().Len() == 0 {
		return coordinator.ErrEmptyQueue
	}
	rend.Log(infoLine.Sprintf("queue ready: %d items", coord.Store().Len()))

	if exportPath != "" {
		if err := coord.ExportFile(exportPath); err != nil {
			return err
		}
	}

	if err := coord.StartRun(); err != nil {
		return err
	}
	status := <-runDone
	rend.Finish()

	switch status {
	case model.RunStatusCompleted:
		doneLine.Println("run completed")
	case model.RunStatusCancelled:
		warnLine.Println("run cancelled")
	default:
		failLine.Printf("run finished with status %s\n", status)
	}
	return nil
}

func resolveAction(ctx *cli.Context) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	eng := engine.NewYTDLP()
	waiter := newExpansionWaiter()
	coord := coordinator.New(eng, eng, settings, coordinator.Events{
		Log:           func(msg string) { infoLine.Println(msg) },
		ExpansionIdle: waiter.notify,
		ExpandCount: func(n int) {
			if n > 0 {
				infoLine.Printf("collected %d items...\n", n)
			}
		},
	})
	coord.Start()
	defer coord.Shutdown(shutdownTimeout)

	stopOnSignal(coord, waiter)

	if err := feedQueue(ctx, coord); err != nil {
		return err
	}
	waiter.wait(coord)

	items := coord.Store().Items()
	if len(items) == 0 {
		return coordinator.ErrEmptyQueue
	}
	for i, item := range items {
		fmt.Printf("%4d  %s\n      %s\n", i+1, item.DisplayTitle(), item.URL)
	}
	doneLine.Printf("%d items\n", len(items))

	if exportPath != "" {
		return coord.ExportFile(exportPath)
	}
	return nil
}

// feedQueue submits command-line references and the optional import file.
// At least one source is required.
func feedQueue(ctx *cli.Context, coord *coordinator.Coordinator) error {
	refs := ctx.Args()
	if len(refs) == 0 && importPath == "" {
		return fmt.Errorf("no references given: pass URLs as arguments or use --import")
	}

	coord.AddReferences(refs)
	if importPath != "" {
		submitted, err := coord.ImportFile(importPath)
		if err != nil {
			return err
		}
		infoLine.Printf("imported %d references from %s\n", submitted, importPath)
	}
	return nil
}

// expansionWaiter blocks until the pending expansion counter drains, woken
// by the pipeline's idle notifications. There is no upper bound: large
// channels legitimately take a while to resolve.
type expansionWaiter struct {
	ch chan struct{}
}

func newExpansionWaiter() *expansionWaiter {
	return &expansionWaiter{ch: make(chan struct{}, 1)}
}

// notify is wired to the coordinator's ExpansionIdle event.
func (w *expansionWaiter) notify() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// wait returns once every submitted reference has settled. The counter is
// rechecked after each idle signal because the mailbox can drain in several
// rounds while references are still being submitted.
func (w *expansionWaiter) wait(coord *coordinator.Coordinator) {
	for coord.Pending() > 0 {
		<-w.ch
	}
}

// stopOnSignal requests a graceful stop on the first interrupt and exits
// hard on the second. Cancelling expansion zeroes the pending counter, so
// the waiter is woken to observe it.
func stopOnSignal(coord *coordinator.Coordinator, waiter *expansionWaiter) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		warnLine.Fprintln(color.Error, "stopping after the current item (interrupt again to abort)")
		coord.CancelExpansion()
		coord.StopRun()
		waiter.notify()
		<-ch
		os.Exit(130)
	}()
}

// loadSettings reads the settings file and applies command-line overrides.
func loadSettings() (config.Settings, error) {
	path := configPath
	if path == "" {
		path = defaultConfigPath()
	}
	settings, err := config.Load(path)
	if err != nil {
		return config.Settings{}, err
	}
	return applyFlagOverrides(settings), nil
}

// applyFlagOverrides layers non-empty command-line flags over the file
// settings. Boolean flags only ever switch features on; the file remains
// the way to keep one on by default.
func applyFlagOverrides(s config.Settings) config.Settings {
	if saveFolder != "" {
		s.SaveFolder = saveFolder
	}
	if quality != "" {
		s.Quality = quality
	}
	if codec != "" {
		s.Codec = codec
	}
	if excludeShorts {
		s.ExcludeShorts = true
	}
	if includeKeyword != "" {
		s.IncludeKeyword = includeKeyword
	}
	if excludeKeyword != "" {
		s.ExcludeKeyword = excludeKeyword
	}
	if dateAfter != "" {
		s.DateAfter = dateAfter
	}
	if dateBefore != "" {
		s.DateBefore = dateBefore
	}
	if keepThumbnails {
		s.KeepThumbnails = true
	}
	if keepSubtitles {
		s.KeepSubtitles = true
	}
	if cookieBrowser != "" {
		s.CookieBrowser = cookieBrowser
	}
	if logPath != "" {
		s.LogPath = logPath
	}
	return s
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return config.DefaultConfigFileName
	}
	return filepath.Join(home, ".config", "ytqueue", config.DefaultConfigFileName)
}
