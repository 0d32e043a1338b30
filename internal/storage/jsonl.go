package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"liquidityPool/internal/model"
)

// JsonlJournal writes instruction records to a JSONL file. When maxBytes is
// positive the file is rotated to path.1, path.2, ... before a batch would
// push it past that size.
type JsonlJournal struct {
	path     string
	maxBytes int64
	mu       sync.Mutex
}

// NewJsonlJournal returns a journal at path. maxBytes of zero disables rotation.
func NewJsonlJournal(path string, maxBytes int64) *JsonlJournal {
	return &JsonlJournal{path: path, maxBytes: maxBytes}
}

// Append writes records as JSON lines. A batch is never split across files.
func (s *JsonlJournal) Append(records ...model.InstructionRecord) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, record := range records {
		if record.Instruction == "" {
			return fmt.Errorf("instruction record without instruction name")
		}
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal instruction record: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rotateIfFull(int64(buf.Len())); err != nil {
		return err
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write instruction records: %w", err)
	}
	return nil
}

func (s *JsonlJournal) rotateIfFull(pending int64) error {
	if s.maxBytes <= 0 {
		return nil
	}
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat journal: %w", err)
	}
	if info.Size() == 0 || info.Size()+pending <= s.maxBytes {
		return nil
	}

	for n := 1; ; n++ {
		rotated := fmt.Sprintf("%s.%d", s.path, n)
		if _, err := os.Stat(rotated); errors.Is(err, os.ErrNotExist) {
			if err := os.Rename(s.path, rotated); err != nil {
				return fmt.Errorf("rotate journal: %w", err)
			}
			return nil
		} else if err != nil {
			return fmt.Errorf("stat rotated journal: %w", err)
		}
	}
}
