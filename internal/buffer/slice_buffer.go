// internal/buffer/slice_buffer.go
package buffer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// SliceBuffer keeps the source as a slice of lines.
type SliceBuffer struct {
	mu       sync.RWMutex
	lines    [][]byte
	raw      []byte
	filePath string
	modTime  time.Time
	size     int64
}

// NewSliceBuffer creates an empty SliceBuffer.
func NewSliceBuffer() *SliceBuffer {
	return &SliceBuffer{
		// Start with a single empty line
		lines: [][]byte{[]byte("")},
	}
}

// Load reads a file into the buffer, replacing existing content.
// A missing file loads as empty so it can be created later.
func (sb *SliceBuffer) Load(filePath string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.filePath = filePath
	return sb.readLocked()
}

// Reload rereads the file if its modification time or size changed.
func (sb *SliceBuffer) Reload() (bool, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.filePath == "" {
		return false, nil
	}
	info, err := os.Stat(sb.filePath)
	if errors.Is(err, os.ErrNotExist) {
		if sb.modTime.IsZero() {
			return false, nil
		}
		sb.setContentLocked(nil)
		sb.modTime, sb.size = time.Time{}, 0
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat file '%s': %w", sb.filePath, err)
	}
	if info.ModTime().Equal(sb.modTime) && info.Size() == sb.size {
		return false, nil
	}
	return true, sb.readLocked()
}

func (sb *SliceBuffer) readLocked() error {
	if sb.filePath == "" {
		sb.setContentLocked(nil)
		return nil
	}
	data, err := os.ReadFile(sb.filePath)
	if errors.Is(err, os.ErrNotExist) {
		sb.setContentLocked(nil)
		sb.modTime, sb.size = time.Time{}, 0
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", sb.filePath, err)
	}
	if info, statErr := os.Stat(sb.filePath); statErr == nil {
		sb.modTime, sb.size = info.ModTime(), info.Size()
	}
	sb.setContentLocked(data)
	return nil
}

// setContentLocked splits data into lines, dropping CR of CRLF endings.
func (sb *SliceBuffer) setContentLocked(data []byte) {
	sb.raw = data
	lines := bytes.Split(data, []byte("\n"))
	if n := len(lines); n > 1 && len(lines[n-1]) == 0 {
		lines = lines[:n-1] // Trailing newline does not start a line
	}
	for i, line := range lines {
		lines[i] = bytes.TrimSuffix(line, []byte("\r"))
	}
	sb.lines = lines
}

// Lines returns all lines. Callers must not modify them.
func (sb *SliceBuffer) Lines() [][]byte {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.lines
}

// LineCount returns the number of lines.
func (sb *SliceBuffer) LineCount() int {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return len(sb.lines)
}

// Line returns one line.
func (sb *SliceBuffer) Line(index int) ([]byte, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	if index < 0 || index >= len(sb.lines) {
		return nil, fmt.Errorf("line index %d out of bounds (0-%d)", index, len(sb.lines)-1)
	}
	return sb.lines[index], nil
}

// Bytes returns the file content as read.
func (sb *SliceBuffer) Bytes() []byte {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.raw
}

// FilePath returns the path the buffer was loaded from.
func (sb *SliceBuffer) FilePath() string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.filePath
}

// ModTime returns the modification time seen at the last read.
func (sb *SliceBuffer) ModTime() time.Time {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.modTime
}
