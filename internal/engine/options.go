package engine

import "fmt"

// Codec is the user's codec preference for format selection.
type Codec string

const (
	CodecAuto Codec = "auto"
	CodecH264 Codec = "h264"
	CodecVP9  Codec = "vp9"
	CodecAV1  Codec = "av1"
)

// Format building constants
const (
	FormatBest = "bestvideo+bestaudio/best"

	// DefaultMergeFormat is the container the engine merges into.
	DefaultMergeFormat = "mkv"

	// DefaultOutputTemplate names downloaded files after their title.
	DefaultOutputTemplate = "%(title)s.%(ext)s"
)

// RunOptions is the immutable option set for one download run. The
// coordinator snapshots it at run start; background processors never see a
// live handle to mutable settings.
type RunOptions struct {
	// SaveFolder is the target directory; required.
	SaveFolder string

	// OutputTemplate is the engine filename template; empty means
	// DefaultOutputTemplate.
	OutputTemplate string

	// ForceBest requests the best available quality regardless of MaxHeight.
	ForceBest bool

	// MaxHeight caps the video height in pixels when ForceBest is unset.
	// Zero also means best available.
	MaxHeight int

	// Codec is the codec preference translated to engine format sorting.
	Codec Codec

	// KeepThumbnails and KeepSubtitles retain side assets next to the video.
	KeepThumbnails bool
	KeepSubtitles  bool

	// CookieBrowser names the browser to read cookies from; empty disables
	// cookie use.
	CookieBrowser string

	// DateAfter and DateBefore are YYYYMMDD upload-date bounds evaluated by
	// the engine, not locally. Empty means unbounded.
	DateAfter  string
	DateBefore string

	// LogPath, when set, enables the append-only session log.
	LogPath string
}

// FormatString returns the engine format selector for the configured
// quality ceiling.
func (o RunOptions) FormatString() string {
	if o.ForceBest || o.MaxHeight <= 0 {
		return FormatBest
	}
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", o.MaxHeight, o.MaxHeight)
}

// FormatSortArgs returns the engine format-sort keys for the codec
// preference, or nil for auto.
func (o RunOptions) FormatSortArgs() []string {
	switch o.Codec {
	case CodecH264:
		return []string{"vcodec:h264", "res", "acodec:m4a"}
	case CodecVP9:
		return []string{"vcodec:vp9", "res", "acodec:opus"}
	case CodecAV1:
		return []string{"vcodec:av01", "res", "acodec"}
	default:
		return nil
	}
}

// Template returns the effective output template.
func (o RunOptions) Template() string {
	if o.OutputTemplate == "" {
		return DefaultOutputTemplate
	}
	return o.OutputTemplate
}
