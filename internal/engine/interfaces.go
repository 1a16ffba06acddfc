package engine

import "context"

// Progress phases reported by the download engine.
type Phase string

const (
	// PhaseDownloading means bytes are moving; Percent and ETA are valid
	PhaseDownloading Phase = "downloading"

	// PhaseFinished means the file is complete and post-processing (merge)
	// has started; Percent and ETA are not meaningful
	PhaseFinished Phase = "finished"
)

// Progress is one progress callback payload for the currently active file.
// Percent and ETA are display strings taken from the engine; they may carry
// terminal color codes and are sanitized by the consumer.
type Progress struct {
	Phase   Phase
	Percent string
	ETA     string
}

// Entry is one element of a resolved listing. URL may be empty; such
// entries are dropped silently by the expansion pipeline.
type Entry struct {
	URL   string
	Title string
}

// Resolved is the outcome of resolving a reference in flat mode. A non-empty
// Entries slice means the reference was a listing (channel or playlist);
// otherwise the reference is a single playable entity described by Title.
type Resolved struct {
	Title   string
	URL     string
	Entries []Entry
}

// IsListing reports whether the resolution produced a listing.
func (r *Resolved) IsListing() bool {
	return len(r.Entries) > 0
}

// Resolver resolves a reference into a single entity or a flat listing.
// Implementations are not assumed safe for overlapping calls; the expansion
// pipeline serializes its use.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*Resolved, error)
}

// Downloader downloads one URL, reporting file progress through onProgress.
// A returned error is per-URL and non-fatal to the run.
type Downloader interface {
	Download(ctx context.Context, url string, opts RunOptions, onProgress func(Progress)) error
}
