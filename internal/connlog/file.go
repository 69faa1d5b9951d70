package connlog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/robalobadob/battleship/internal/protocol"
)

// File appends entries to a protobuf-encoded Logs message on disk. Each
// record appends one encoded `log` field, which keeps the file a valid Logs
// message without rewriting it.
type File struct {
	mu   sync.Mutex
	path string
}

// OpenFile returns a File logger for path. The file is created on the
// first Record.
func OpenFile(path string) *File {
	return &File{path: path}
}

func (f *File) Record(_ context.Context, e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fh, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open connection log: %w", err)
	}
	if _, err := fh.Write(protocol.AppendLogEntry(nil, e.Line())); err != nil {
		fh.Close()
		return fmt.Errorf("append connection log: %w", err)
	}
	return fh.Close()
}

func (f *File) Recent(_ context.Context, n int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines, err := ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	return tail(lines, n), nil
}

func (f *File) Close() error { return nil }

// ReadFile decodes every entry of a Logs file. A missing file has no entries.
func ReadFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read connection log: %w", err)
	}
	lines, err := protocol.DecodeLogs(b)
	if err != nil {
		return nil, fmt.Errorf("decode connection log: %w", err)
	}
	return lines, nil
}
