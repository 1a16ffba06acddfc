package model

// ItemStatus represents the lifecycle state of a queue item.
type ItemStatus string

const (
	// ItemStatusQueued means the item is in the queue and not yet dispatched
	ItemStatusQueued ItemStatus = "Queued"

	// ItemStatusDownloading means the item's download is in progress
	ItemStatusDownloading ItemStatus = "Downloading"

	// ItemStatusDone means the item downloaded successfully
	ItemStatusDone ItemStatus = "Done"

	// ItemStatusFailed means the item's download failed and was skipped over
	ItemStatusFailed ItemStatus = "Failed"

	// ItemStatusSkipped means the item was excluded by the dispatch filter
	ItemStatusSkipped ItemStatus = "Skipped"
)

// String returns the string representation of ItemStatus.
func (s ItemStatus) String() string {
	return string(s)
}

// IsFinished returns true once the item will not be dispatched again in the
// current run (downloaded, failed or filtered out).
func (s ItemStatus) IsFinished() bool {
	return s == ItemStatusDone || s == ItemStatusFailed || s == ItemStatusSkipped
}

// RunStatus represents the state of a download run.
type RunStatus string

const (
	// RunStatusIdle means no run has started yet
	RunStatusIdle RunStatus = "Idle"

	// RunStatusRunning means a run is working through its item list
	RunStatusRunning RunStatus = "Running"

	// RunStatusCompleted means the run processed every item (item-level
	// failures included; they are tallied, not fatal)
	RunStatusCompleted RunStatus = "Completed"

	// RunStatusCancelled means the run was stopped at an item boundary
	RunStatusCancelled RunStatus = "Cancelled"

	// RunStatusFailed means the run never started working (usage error)
	RunStatusFailed RunStatus = "Failed"
)

// String returns the string representation of RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the run reached a final state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCancelled || s == RunStatusFailed
}
