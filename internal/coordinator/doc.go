package coordinator

// Package coordinator is the front controller. It owns the queue store and
// the settings, funnels expansion results into the store, tracks the pending
// expansion counter, and is the only component allowed to start a download
// run or mutate shared option state.
