// Package events defines the contracts through which the engine reports
// progress to its caller (a UI, a CLI printer, telemetry). The engine only
// ever produces events; it never reads them back.
package events

import "mediagrab/pkg/media"

// Sink receives job lifecycle events and per-item discovery events.
//
// Guarantees: percentage is monotonically non-decreasing per job, and every
// job receives exactly one terminal Finished event.
type Sink interface {
	// Status reports a human-readable status line for a job.
	Status(jobID, message string)
	// Progress reports download progress for a job, 0-100.
	Progress(jobID string, percent int)
	// Finished reports the terminal outcome of a job. err is nil on success.
	Finished(jobID string, err error)
	// ItemFound reports one item discovered mid-scrape so callers can render
	// results incrementally.
	ItemFound(item media.Item)
}

// Nop is a Sink that discards all events.
type Nop struct{}

func (Nop) Status(string, string)  {}
func (Nop) Progress(string, int)   {}
func (Nop) Finished(string, error) {}
func (Nop) ItemFound(media.Item)   {}
