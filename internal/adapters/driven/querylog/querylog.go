// Package querylog appends searches to a JSON Lines file.
package querylog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
)

// Ensure the log types implement the interface.
var (
	_ driven.QueryLog = (*File)(nil)
	_ driven.QueryLog = Discard{}
)

// File writes one JSON object per line. Safe for concurrent use.
type File struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// Open opens path for appending, creating it and its directory if needed.
func Open(path string) (*File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating query log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening query log: %w", err)
	}
	return &File{f: f, enc: json.NewEncoder(f)}, nil
}

// Record appends entry. The encoder terminates each object with a newline.
func (l *File) Record(ctx context.Context, entry domain.QueryLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return os.ErrClosed
	}
	return l.enc.Encode(entry)
}

// Close closes the file. Further Records fail with os.ErrClosed.
func (l *File) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// Discard drops every entry. Used when no query log is configured.
type Discard struct{}

// Record does nothing.
func (Discard) Record(context.Context, domain.QueryLogEntry) error { return nil }

// Close does nothing.
func (Discard) Close() error { return nil }

// New returns a File for path, or Discard when path is empty.
func New(path string) (driven.QueryLog, error) {
	if path == "" {
		return Discard{}, nil
	}
	return Open(path)
}
