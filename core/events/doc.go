// Package events defines the planning events emitted on the event bus.
//
// Available event types:
//   - AttemptEvent: one solve call of the makespan search finished
//   - SearchEvent: the search started, retried a bound, succeeded or ran out
package events
