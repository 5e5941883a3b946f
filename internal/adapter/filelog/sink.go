// Package filelog appends activity records to a local file, one JSON object per line.
package filelog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/YelzhanWeb/cafe/internal/domain"
)

type entry struct {
	Timestamp string          `json:"timestamp"`
	State     domain.Snapshot `json:"state"`
}

type Sink struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// Open opens path for appending, creating it if needed.
func Open(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity file: %w", err)
	}
	return &Sink{file: f, w: bufio.NewWriter(f)}, nil
}

func (s *Sink) Name() string { return "file" }

func (s *Sink) Write(_ context.Context, rec *domain.ActivityRecord) error {
	line, err := json.Marshal(entry{
		Timestamp: rec.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		State:     rec.State,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal activity record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write activity record: %w", err)
	}
	return s.w.Flush()
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
