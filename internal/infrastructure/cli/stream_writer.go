package cli

import (
	"fmt"
	"io"
)

// StreamWriter prints response fragments as they arrive.
type StreamWriter struct {
	out   io.Writer
	wrote bool
}

// NewStreamWriter builds a StreamWriter for stdout/stderr.
func NewStreamWriter(out io.Writer) *StreamWriter {
	return &StreamWriter{out: out}
}

// WriteChunk prints text without a trailing newline. Empty fragments are dropped.
func (s *StreamWriter) WriteChunk(text string) {
	if text == "" {
		return
	}
	fmt.Fprint(s.out, text)
	s.wrote = true
}

// Done terminates the streamed line.
func (s *StreamWriter) Done() {
	if s.wrote {
		fmt.Fprintln(s.out)
	}
}
