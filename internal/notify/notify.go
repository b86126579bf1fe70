// Package notify carries user-facing, non-fatal notifications out of the
// reconciliation engine. The engine never surfaces errors any other way:
// callers get a boolean outcome plus whatever the Notifier showed.
package notify

import (
	"fmt"
	"io"
	"sync"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

type Notifier interface {
	Notify(level Level, message string)
}

// Writer notifies by printing one line per notification (CLI surface).
type Writer struct {
	W io.Writer
}

func (w Writer) Notify(level Level, message string) {
	fmt.Fprintf(w.W, "%s: %s\n", level, message)
}

// Recorder collects notifications for tests and for the TUI status bar.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

type Entry struct {
	Level   Level
	Message string
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: message})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Recorder) Last() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[len(r.entries)-1], true
}

// Discard drops all notifications.
type Discard struct{}

func (Discard) Notify(Level, string) {}
