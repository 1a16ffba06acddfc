package queue

import (
	"fmt"
	"os"
	"strings"

	"github.com/ytqueue/ytqueue/internal/platform"
)

// ExportTxt writes the store's URLs to path, one per line, in sequence order.
func (s *Store) ExportTxt(path string) error {
	urls := s.URLs()

	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write queue file: %w", err)
	}
	return nil
}

// ReadURLsTxt reads a plain-text URL list, tolerating surrounding prose:
// URL-shaped substrings are extracted from each line, and bare lines that
// start with "http" are kept as-is. Returns the URLs in file order.
func ReadURLsTxt(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue file: %w", err)
	}

	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if found := platform.ExtractURLs(line); len(found) > 0 {
			urls = append(urls, found...)
			continue
		}
		if strings.HasPrefix(line, "http") {
			urls = append(urls, line)
		}
	}
	return urls, nil
}
