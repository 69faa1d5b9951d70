// internal/connlog/connlog.go
//
// Connection audit log.
// Responsibilities:
//   - Record a timestamped line whenever a named player connects or leaves.
//   - Back the log with a protobuf Logs file (File) or a SQLite table (SQL).
//
// The log is best-effort: gameplay never depends on it, so callers log and
// ignore Record errors.

package connlog

import (
	"context"
	"time"
)

// Kind is the event being recorded.
type Kind string

const (
	Connect    Kind = "CONNECT"
	Disconnect Kind = "DISCONNECT"
)

// Event is one audit entry.
type Event struct {
	Time    time.Time
	Name    string
	Kind    Kind
	Remote  string
	Session string
}

// Line renders the event the way it is stored in the log file:
// "<date>: <name> - <kind>".
func (e Event) Line() string {
	return e.Time.Format(time.UnixDate) + ": " + e.Name + " - " + string(e.Kind)
}

// Logger records connection events.
type Logger interface {
	Record(ctx context.Context, e Event) error
	// Recent returns up to n of the latest lines, oldest first.
	Recent(ctx context.Context, n int) ([]string, error)
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

func (Nop) Recent(context.Context, int) ([]string, error) { return nil, nil }

func (Nop) Close() error { return nil }

func tail(lines []string, n int) []string {
	if n <= 0 || n >= len(lines) {
		return lines
	}
	return lines[len(lines)-n:]
}
