package chat

import (
	"io"
	"strings"
	"sync"
)

const lineTerminator = "\n"

// lineWriter serializes writes to a client stream. Each call emits its lines
// with a single Write so concurrent callers never interleave mid-line.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{w: w}
}

func (w *lineWriter) writeLines(lines ...string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString(lineTerminator)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := io.WriteString(w.w, b.String())
	return err
}
