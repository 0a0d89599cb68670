// Package engine runs one posting decision: load state, pick a slot, decide
// whether to skip, generate or fall back to text, publish, and persist.
//
// A run is single-threaded and performs its external calls in sequence. The
// state file has one writer; callers that may overlap (cron plus a manual run)
// take state.AcquireLock first.
//
// Capability errors degrade instead of failing: a broken generator falls back
// to the static pool, a missing publisher becomes a logged would-post, and a
// weather outage drops the weather line. Only a publish error after the text
// is final is returned as fatal, wrapped in ErrPublishFailed.
package engine
