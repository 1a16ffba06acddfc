package model

// Package model defines domain data structures shared across the app: queue
// items, item lifecycle statuses, and download run statuses. Structures carry
// explicit state transitions and no behavior beyond display helpers.
