package expand

// Package expand implements the expansion pipeline: a persistent background
// worker that turns submitted root references (video, channel, playlist)
// into concrete queue items. References are processed strictly one at a
// time through a mailbox, so the external resolver never sees overlapping
// calls, while new submissions are accepted at any moment.
