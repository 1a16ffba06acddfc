package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ytqueue/ytqueue/internal/engine"
)

func TestParseQualityHeight(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{QualityBest, 0},
		{"Best", 0},
		{Quality4K, 2160},
		{Quality2K, 1440},
		{Quality1080p, 1080},
		{Quality720p, 720},
		{Quality480p, 480},
		{"1080P", 1080},
		{"", 0},
		{"garbage", 0},
		{"-5p", 0},
	}
	for _, tt := range tests {
		if got := ParseQualityHeight(tt.label); got != tt.want {
			t.Errorf("ParseQualityHeight(%q) = %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Quality != DefaultQuality {
		t.Errorf("quality: got %q, want %q", s.Quality, DefaultQuality)
	}
	if s.OutputTemplate != DefaultOutputTemplate {
		t.Errorf("template: got %q, want %q", s.OutputTemplate, DefaultOutputTemplate)
	}
	if s.Codec != string(engine.CodecAuto) {
		t.Errorf("codec: got %q, want auto", s.Codec)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	if err := os.WriteFile(path, []byte("save_folder: [unterminated"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error, got nil")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultConfigFileName)
	in := Settings{
		SaveFolder:     "/videos",
		OutputTemplate: "%(id)s.%(ext)s",
		Quality:        Quality1080p,
		Codec:          string(engine.CodecVP9),
		ExcludeShorts:  true,
		IncludeKeyword: "live",
		DateAfter:      "2024-01-01",
		CookieBrowser:  "chrome",
	}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.SaveFolder != in.SaveFolder || out.Quality != in.Quality || out.Codec != in.Codec {
		t.Errorf("round trip mismatch: got %+v", out)
	}
	if !out.ExcludeShorts || out.IncludeKeyword != "live" {
		t.Errorf("filter fields lost: got %+v", out)
	}
}

func TestLoadNormalizesBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	content := "codec: divx\ndate_after: yesterday\nquality: \"\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Codec != string(engine.CodecAuto) {
		t.Errorf("codec: got %q, want auto", s.Codec)
	}
	if s.DateAfter != "" {
		t.Errorf("date_after: got %q, want cleared", s.DateAfter)
	}
	if s.Quality != DefaultQuality {
		t.Errorf("quality: got %q, want %q", s.Quality, DefaultQuality)
	}
}

func TestRunOptionsSnapshot(t *testing.T) {
	s := Settings{
		SaveFolder:     "/videos",
		OutputTemplate: DefaultOutputTemplate,
		Quality:        Quality720p,
		Codec:          string(engine.CodecH264),
		DateAfter:      "2024/01/02",
		DateBefore:     "not-a-date",
		CookieBrowser:  "firefox",
	}
	opts := s.RunOptions()
	if opts.ForceBest {
		t.Error("ForceBest should be false for a capped quality")
	}
	if opts.MaxHeight != 720 {
		t.Errorf("MaxHeight: got %d, want 720", opts.MaxHeight)
	}
	if opts.DateAfter != "20240102" {
		t.Errorf("DateAfter: got %q, want 20240102", opts.DateAfter)
	}
	if opts.DateBefore != "" {
		t.Errorf("DateBefore: got %q, want empty", opts.DateBefore)
	}
	if opts.Codec != engine.CodecH264 {
		t.Errorf("Codec: got %q, want h264", opts.Codec)
	}
}

func TestFilterSpec(t *testing.T) {
	s := Settings{ExcludeShorts: true, IncludeKeyword: "tour", ExcludeKeyword: "teaser"}
	spec := s.FilterSpec()
	if !spec.ExcludeShorts || spec.IncludeKeyword != "tour" || spec.ExcludeKeyword != "teaser" {
		t.Errorf("spec mismatch: got %+v", spec)
	}
}
