package platform

import (
	"regexp"
	"strings"
)

// Listing suffix tokens. A URL whose path ends in one of these points at a
// content listing (a channel tab or playlist index), not at playable media.
var ListingSuffixes = []string{"videos", "streams", "live", "shorts", "featured", "playlists"}

// Channel-root path markers. A URL containing one of these, without a
// listing suffix, is a bare channel page whose resolution may return tab
// links instead of content.
var channelRootMarkers = []string{"/@", "/channel/", "/c/", "/user/"}

// Default listing suffix appended to bare channel roots.
const DefaultListingSuffix = "videos"

// Trailing punctuation stripped from URLs extracted out of prose.
const urlTrailingPunct = ")>]}.,"

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// NormalizeURL trims surrounding whitespace from a raw reference. A blank
// input yields the empty string; callers treat that as a no-op, not an error.
func NormalizeURL(raw string) string {
	return strings.TrimSpace(raw)
}

// ToContentListing rewrites a bare channel-root URL to its default content
// listing (".../videos"). URLs that already end in a listing suffix, and
// URLs that are not channel roots, are returned unchanged. Purely syntactic;
// never touches the network.
func ToContentListing(ref string) string {
	u := NormalizeURL(ref)
	if u == "" {
		return u
	}
	base := strings.TrimRight(u, "/")
	if hasListingSuffix(base) {
		return u
	}
	for _, marker := range channelRootMarkers {
		if strings.Contains(base, marker) {
			return base + "/" + DefaultListingSuffix
		}
	}
	return u
}

// IsListingEntry reports whether a resolved entry's URL is itself another
// content listing (a "tab entry") rather than playable media.
func IsListingEntry(url string) bool {
	u := strings.ToLower(strings.TrimSpace(url))
	if u == "" {
		return false
	}
	return hasListingSuffix(strings.TrimRight(u, "/"))
}

// hasListingSuffix reports whether the URL path ends in "/<suffix>" for any
// known listing suffix. The input must already have trailing slashes removed.
func hasListingSuffix(base string) bool {
	for _, t := range ListingSuffixes {
		if strings.HasSuffix(base, "/"+t) {
			return true
		}
	}
	return false
}

// ExtractURLs pulls URL-shaped substrings out of free text, tolerating
// surrounding prose. Trailing punctuation that commonly rides along when a
// URL is pasted inside a sentence is stripped.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		u := strings.TrimRight(strings.TrimSpace(m), urlTrailingPunct)
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
