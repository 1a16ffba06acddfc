package main

import (
	"fmt"
	"sync"

	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Colored line printers for queue and run output.
var (
	infoLine = color.New(color.FgCyan)
	warnLine = color.New(color.FgYellow)
	doneLine = color.New(color.FgGreen)
	failLine = color.New(color.FgRed)
)

// renderer owns the terminal output for one run: a per-file bar, a batch
// bar, and log lines routed through the bar manager so they do not tear
// the bars apart.
type renderer struct {
	p       *mpb.Progress
	fileBar *mpb.Bar
	runBar  *mpb.Bar

	mu      sync.Mutex
	fileETA string
	runETA  string
	title   string
}

func newRenderer() *renderer {
	r := &renderer{
		p:       mpb.New(mpb.WithAutoRefresh(), mpb.WithOutput(color.Output)),
		fileETA: "--:--",
	}

	barStyle := mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding(" ").Rbound("]")

	r.fileBar = r.p.New(100,
		barStyle,
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string { return r.currentTitle() }, decor.WC{W: 32, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Any(func(decor.Statistics) string { return " eta " + r.currentFileETA() }),
		),
	)
	r.runBar = r.p.New(100,
		barStyle,
		mpb.PrependDecorators(
			decor.Name("batch", decor.WC{W: 32, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Any(func(decor.Statistics) string { return " eta " + r.currentRunETA() }),
		),
	)
	return r
}

// Log writes one line above the bars.
func (r *renderer) Log(msg string) {
	fmt.Fprintln(r.p, msg)
}

func (r *renderer) CurrentItem(title string) {
	r.mu.Lock()
	r.title = title
	r.mu.Unlock()
}

func (r *renderer) FilePercent(percent int) {
	r.fileBar.SetCurrent(int64(percent))
}

func (r *renderer) FileETA(eta string) {
	r.mu.Lock()
	r.fileETA = eta
	r.mu.Unlock()
}

func (r *renderer) TotalPercent(percent int) {
	r.runBar.SetCurrent(int64(percent))
}

func (r *renderer) TotalETA(eta string) {
	r.mu.Lock()
	r.runETA = eta
	r.mu.Unlock()
}

// Finish completes both bars and flushes the manager.
func (r *renderer) Finish() {
	r.fileBar.Abort(true)
	r.runBar.Abort(true)
	r.p.Shutdown()
}

func (r *renderer) currentTitle() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.title == "" {
		return "waiting"
	}
	return truncate(r.title, 30)
}

func (r *renderer) currentFileETA() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fileETA
}

func (r *renderer) currentRunETA() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runETA == "" {
		return "calculating"
	}
	return r.runETA
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
