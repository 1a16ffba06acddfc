package queue

// Package queue implements the ordered, deduplicated item store that both
// the expansion pipeline and the download orchestrator mutate. It is the
// single source of truth for the queue and the single dedup gate: every
// path that adds items funnels through Add.
