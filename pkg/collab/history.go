package collab

import (
	"fmt"
	"os"
	"sync"
)

// FileHistorySink appends chat lines to a history file, one line per entry.
// The file is opened once and held for the server's lifetime.
type FileHistorySink struct {
	mu sync.Mutex
	f  *os.File
}

var _ HistorySink = (*FileHistorySink)(nil)

// NewFileHistorySink opens (or creates) the history file in append mode.
func NewFileHistorySink(path string) (*FileHistorySink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) //nolint:gosec // path from server config
	if err != nil {
		return nil, fmt.Errorf("collab: open history file: %w", err)
	}
	return &FileHistorySink{f: f}, nil
}

// Append writes one line to the history file.
func (s *FileHistorySink) Append(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("collab: append history: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *FileHistorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
