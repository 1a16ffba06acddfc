// Package config loads and persists user settings and turns them into the
// immutable option snapshots the rest of the application consumes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/ytqueue/ytqueue/internal/engine"
	"github.com/ytqueue/ytqueue/internal/filter"
	"github.com/ytqueue/ytqueue/internal/platform"
)

// Quality labels offered to the user. Anything except QualityBest carries a
// height cap parsed out of the label.
const (
	QualityBest  = "best"
	Quality4K    = "2160p (4K)"
	Quality2K    = "1440p (2K)"
	Quality1080p = "1080p"
	Quality720p  = "720p"
	Quality480p  = "480p"
)

// Default values
const (
	DefaultConfigFileName = "ytqueue.yaml"
	DefaultQuality        = QualityBest
	DefaultOutputTemplate = "%(title)s.%(ext)s"
	DefaultLogFileName    = "download.log"

	configFilePermissions = 0644
)

// Settings is the on-disk configuration. Zero values fall back to defaults
// during Load, so a partial file is fine.
type Settings struct {
	SaveFolder     string `yaml:"save_folder"`
	OutputTemplate string `yaml:"output_template"`
	Quality        string `yaml:"quality"`
	Codec          string `yaml:"codec"`

	ExcludeShorts  bool   `yaml:"exclude_shorts"`
	IncludeKeyword string `yaml:"include_keyword"`
	ExcludeKeyword string `yaml:"exclude_keyword"`
	DateAfter      string `yaml:"date_after"`
	DateBefore     string `yaml:"date_before"`

	KeepThumbnails bool   `yaml:"keep_thumbnails"`
	KeepSubtitles  bool   `yaml:"keep_subtitles"`
	CookieBrowser  string `yaml:"cookie_browser"`
	LogPath        string `yaml:"log_path"`
}

// DefaultSettings returns settings with every field at its default.
func DefaultSettings() Settings {
	saveFolder, err := platform.GetHomeDownloadsDir()
	if err != nil {
		saveFolder = ""
	}
	return Settings{
		SaveFolder:     saveFolder,
		OutputTemplate: DefaultOutputTemplate,
		Quality:        DefaultQuality,
		Codec:          string(engine.CodecAuto),
	}
}

// Load reads the settings file at path. A missing file is not an error; the
// defaults are returned. A malformed file is rejected outright rather than
// silently repaired.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}

	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	s.normalize()
	return s, nil
}

// Save writes the settings to path, creating parent directories as needed.
func Save(path string, s Settings) error {
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(path)); err != nil {
		return fmt.Errorf("settings directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, configFilePermissions); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}

// normalize fills empty fields with defaults and drops values that cannot
// be consumed downstream.
func (s *Settings) normalize() {
	if s.OutputTemplate == "" {
		s.OutputTemplate = DefaultOutputTemplate
	}
	if s.Quality == "" {
		s.Quality = DefaultQuality
	}
	switch engine.Codec(s.Codec) {
	case engine.CodecAuto, engine.CodecH264, engine.CodecVP9, engine.CodecAV1:
	default:
		s.Codec = string(engine.CodecAuto)
	}
	if _, ok := platform.ParseDateToken(s.DateAfter); !ok {
		s.DateAfter = ""
	}
	if _, ok := platform.ParseDateToken(s.DateBefore); !ok {
		s.DateBefore = ""
	}
}

// QualityOptions returns the labels in descending quality order.
func QualityOptions() []string {
	return []string{QualityBest, Quality4K, Quality2K, Quality1080p, Quality720p, Quality480p}
}

// ParseQualityHeight extracts the height cap from a quality label.
// QualityBest and unparseable labels yield 0, meaning no cap.
func ParseQualityHeight(label string) int {
	label = strings.TrimSpace(label)
	if label == "" || strings.EqualFold(label, QualityBest) {
		return 0
	}
	if i := strings.Index(label, "("); i >= 0 {
		label = strings.TrimSpace(label[:i])
	}
	label = strings.TrimSuffix(strings.ToLower(label), "p")
	height, err := strconv.Atoi(label)
	if err != nil || height <= 0 {
		return 0
	}
	return height
}

// RunOptions builds the immutable option snapshot for one download run.
// Date tokens are normalized to yt-dlp's YYYYMMDD form.
func (s Settings) RunOptions() engine.RunOptions {
	opts := engine.RunOptions{
		SaveFolder:     s.SaveFolder,
		OutputTemplate: s.OutputTemplate,
		ForceBest:      strings.EqualFold(s.Quality, QualityBest),
		MaxHeight:      ParseQualityHeight(s.Quality),
		Codec:          engine.Codec(s.Codec),
		KeepThumbnails: s.KeepThumbnails,
		KeepSubtitles:  s.KeepSubtitles,
		CookieBrowser:  s.CookieBrowser,
		LogPath:        s.LogPath,
	}
	if token, ok := platform.ParseDateToken(s.DateAfter); ok {
		opts.DateAfter = token
	}
	if token, ok := platform.ParseDateToken(s.DateBefore); ok {
		opts.DateBefore = token
	}
	return opts
}

// FilterSpec builds the dispatch-time filter from the settings.
func (s Settings) FilterSpec() filter.Spec {
	return filter.Spec{
		ExcludeShorts:  s.ExcludeShorts,
		IncludeKeyword: s.IncludeKeyword,
		ExcludeKeyword: s.ExcludeKeyword,
		DateAfter:      s.DateAfter,
		DateBefore:     s.DateBefore,
	}
}
