// internal/buffer/buffer.go
package buffer

import "time"

// Buffer holds the Markdown source being previewed. It is read-only; the file
// on disk is the only writer.
type Buffer interface {
	Load(filePath string) error
	Reload() (changed bool, err error)
	Lines() [][]byte
	Line(index int) ([]byte, error)
	LineCount() int
	Bytes() []byte
	FilePath() string
	ModTime() time.Time
}
