package pipeline

import "fmt"

// Status is the state of one file in a run.
type Status string

const (
	StatusExtracting  Status = "extracting"
	StatusExtracted   Status = "extracted"
	StatusUnchanged   Status = "unchanged"
	StatusUnsupported Status = "unsupported"
	StatusSkipped     Status = "skipped"
	StatusFailed      Status = "failed"
	StatusRemoved     Status = "removed"
)

// Event is emitted for every file a run touches.
type Event struct {
	Path    string
	Status  Status
	Message string
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan Event
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan Event, 64),
	}
}

// Emit sends a progress event without blocking.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event Event) {
	if pr == nil {
		return
	}
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan Event {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats an Event as a human-readable status line.
func FormatProgress(event Event) string {
	switch event.Status {
	case StatusExtracting:
		return fmt.Sprintf("  ● %s...", event.Path)
	case StatusExtracted:
		if event.Message != "" {
			return fmt.Sprintf("  ✓ %s (%s)", event.Path, event.Message)
		}
		return fmt.Sprintf("  ✓ %s", event.Path)
	case StatusUnchanged:
		return fmt.Sprintf("  = %s unchanged", event.Path)
	case StatusUnsupported, StatusSkipped:
		return fmt.Sprintf("  ○ %s %s", event.Path, event.Status)
	case StatusFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.Path, event.Message)
	case StatusRemoved:
		return fmt.Sprintf("  - %s removed", event.Path)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.Path)
	}
}
