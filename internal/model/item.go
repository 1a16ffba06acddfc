package model

// Item represents a single resolved, downloadable unit in the queue.
// The URL is the unique key for the whole system; the expansion pipeline
// creates items and never touches them afterwards, the download orchestrator
// advances Status as it works through a run.
type Item struct {
	URL    string
	Title  string
	Status ItemStatus

	// Selected mirrors the user's checkbox for the item. It is independent
	// of Status: a Done item may stay selected, a Queued item may be
	// deselected before a run.
	Selected bool
}

// NewItem creates a queued, selected item. An empty title falls back to the
// URL so the item always has something displayable.
func NewItem(url, title string) *Item {
	if title == "" {
		title = url
	}
	return &Item{
		URL:      url,
		Title:    title,
		Status:   ItemStatusQueued,
		Selected: true,
	}
}

// DisplayTitle returns the item title, falling back to the URL when the
// title is empty.
func (it *Item) DisplayTitle() string {
	if it.Title != "" {
		return it.Title
	}
	return it.URL
}
