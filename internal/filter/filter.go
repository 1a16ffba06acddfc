// Package filter implements the dispatch-time predicate applied to queue
// items before a download run. Keyword and shorts checks run locally against
// url/title; date bounds require upload timestamps the flat queue does not
// hold, so they ride into the engine as run-level options instead.
package filter

import (
	"strings"

	"github.com/ytqueue/ytqueue/internal/model"
)

// ShortsMarker is the URL path fragment identifying a shorts item.
const ShortsMarker = "/shorts/"

// Spec describes the per-run item filter. The zero value matches everything.
// DateAfter/DateBefore are YYYYMMDD tokens; they are carried here so the run
// option builder can hand them to the engine, but Matches ignores them.
type Spec struct {
	ExcludeShorts  bool
	IncludeKeyword string
	ExcludeKeyword string
	DateAfter      string
	DateBefore     string
}

// Matches reports whether the item passes the local predicates. An item is
// excluded if its URL carries the shorts marker (when ExcludeShorts is set),
// if the include keyword is set and absent from the title, or if the exclude
// keyword is set and present in the title. Keyword checks are
// case-insensitive substring matches.
func (spec Spec) Matches(item *model.Item) bool {
	if spec.ExcludeShorts {
		if strings.Contains(strings.ToLower(item.URL), ShortsMarker) {
			return false
		}
	}

	title := strings.ToLower(item.Title)

	if spec.IncludeKeyword != "" {
		if !strings.Contains(title, strings.ToLower(spec.IncludeKeyword)) {
			return false
		}
	}

	if spec.ExcludeKeyword != "" {
		if strings.Contains(title, strings.ToLower(spec.ExcludeKeyword)) {
			return false
		}
	}

	return true
}

// Apply splits items into the dispatch list and the excluded remainder,
// preserving order within both.
func (spec Spec) Apply(items []*model.Item) (matched, excluded []*model.Item) {
	for _, it := range items {
		if spec.Matches(it) {
			matched = append(matched, it)
		} else {
			excluded = append(excluded, it)
		}
	}
	return matched, excluded
}
