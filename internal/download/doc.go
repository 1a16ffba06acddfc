package download

// Package download implements the download orchestrator: a per-run worker
// that takes an already-filtered, ordered item list and an immutable option
// snapshot, downloads the items strictly one at a time, and derives per-file
// and whole-batch progress/ETA from the engine's progress callbacks.
