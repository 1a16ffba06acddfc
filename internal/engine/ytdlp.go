package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// Engine tuning constants
const (
	// DefaultResolveTimeout bounds one flat resolution.
	DefaultResolveTimeout = 60 * time.Second

	// ProgressInterval is how often the engine reports file progress.
	ProgressInterval = 500 * time.Millisecond

	// UnknownETA is reported while the engine has no estimate yet.
	UnknownETA = "--:--"
)

// YTDLP implements Resolver and Downloader on top of the yt-dlp binary via
// github.com/lrstanley/go-ytdlp.
type YTDLP struct {
	resolveTimeout time.Duration
}

// NewYTDLP creates the yt-dlp backed engine.
func NewYTDLP() *YTDLP {
	return &YTDLP{
		resolveTimeout: DefaultResolveTimeout,
	}
}

// SetResolveTimeout overrides the per-reference resolution timeout.
func (y *YTDLP) SetResolveTimeout(d time.Duration) {
	y.resolveTimeout = d
}

// Resolve extracts a reference in flat mode: listings report their entries
// without recursing into them, single videos report title and URL.
func (y *YTDLP) Resolve(ctx context.Context, url string) (*Resolved, error) {
	ctx, cancel := context.WithTimeout(ctx, y.resolveTimeout)
	defer cancel()

	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreErrors().
		FlatPlaylist().
		SkipDownload().
		DumpSingleJSON()

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	resolved, err := parseFlatResolution(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("extraction returned unreadable info: %w", err)
	}
	return resolved, nil
}

// flatEntry mirrors one entry of yt-dlp's flat single-JSON dump. Entries can
// be null in the dump, hence the pointer slice in flatInfo.
type flatEntry struct {
	URL        string `json:"url"`
	WebpageURL string `json:"webpage_url"`
	Title      string `json:"title"`
}

// flatInfo mirrors the top level of the dump.
type flatInfo struct {
	Title      string       `json:"title"`
	URL        string       `json:"url"`
	WebpageURL string       `json:"webpage_url"`
	Entries    []*flatEntry `json:"entries"`
}

// parseFlatResolution converts yt-dlp's flat single-JSON dump into a
// Resolved. Null entries are filtered out; an entry's URL prefers the direct
// url field and falls back to webpage_url.
func parseFlatResolution(stdout string) (*Resolved, error) {
	var info flatInfo
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &info); err != nil {
		return nil, err
	}

	resolved := &Resolved{
		Title: info.Title,
		URL:   firstNonEmpty(info.URL, info.WebpageURL),
	}
	for _, e := range info.Entries {
		if e == nil {
			continue
		}
		resolved.Entries = append(resolved.Entries, Entry{
			URL:   firstNonEmpty(e.URL, e.WebpageURL),
			Title: e.Title,
		})
	}
	return resolved, nil
}

// Download fetches a single URL with the run's option snapshot, forwarding
// engine progress into onProgress.
func (y *YTDLP) Download(ctx context.Context, url string, opts RunOptions, onProgress func(Progress)) error {
	dl := ytdlp.New().
		Quiet().
		NoWarnings().
		Format(opts.FormatString()).
		MergeOutputFormat(DefaultMergeFormat).
		Output(filepath.Join(opts.SaveFolder, opts.Template()))

	if sort := opts.FormatSortArgs(); len(sort) > 0 {
		dl = dl.FormatSort(strings.Join(sort, ","))
	}
	if opts.KeepThumbnails {
		dl = dl.WriteThumbnail()
	}
	if opts.KeepSubtitles {
		dl = dl.WriteSubs()
	}
	if opts.CookieBrowser != "" {
		dl = dl.CookiesFromBrowser(opts.CookieBrowser)
	}
	if opts.DateAfter != "" {
		dl = dl.DateAfter(opts.DateAfter)
	}
	if opts.DateBefore != "" {
		dl = dl.DateBefore(opts.DateBefore)
	}

	if onProgress != nil {
		dl = dl.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
			onProgress(progressFromUpdate(update))
		})
	}

	if _, err := dl.Run(ctx, url); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	return nil
}

// progressFromUpdate maps a go-ytdlp progress update onto the engine
// progress contract: a percent string, an hh:mm:ss ETA string and a phase.
func progressFromUpdate(update ytdlp.ProgressUpdate) Progress {
	if update.Status == ytdlp.ProgressStatusFinished ||
		update.Status == ytdlp.ProgressStatusPostProcessing {
		return Progress{Phase: PhaseFinished}
	}

	p := Progress{Phase: PhaseDownloading, Percent: "0", ETA: UnknownETA}
	if update.TotalBytes > 0 {
		percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
		p.Percent = fmt.Sprintf("%.1f", percent)
	}
	if eta := update.ETA(); eta > 0 {
		p.ETA = formatClock(eta)
	}
	return p
}

// formatClock renders an ETA as mm:ss, or hh:mm:ss past the hour mark.
func formatClock(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 0 {
		secs = 0
	}
	if secs >= 3600 {
		return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
