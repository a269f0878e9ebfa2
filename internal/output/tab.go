// Package output writes annotated breakpoint records.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/vibe-circ/internal/breakpoint"
)

// TabWriter writes records in tab-delimited format: the input columns
// unchanged, followed by the annotation columns.
type TabWriter struct {
	w     *bufio.Writer
	lines int
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// Write writes a single record as one complete line.
func (tw *TabWriter) Write(bp *breakpoint.Breakpoint, columns []string) error {
	var b strings.Builder
	for i, f := range bp.Fields {
		if i > 0 {
			b.WriteByte('\t')
		}
		b.WriteString(f)
	}
	for _, c := range columns {
		b.WriteByte('\t')
		b.WriteString(c)
	}
	b.WriteByte('\n')

	if _, err := tw.w.WriteString(b.String()); err != nil {
		return err
	}
	tw.lines++
	return nil
}

// Lines returns the number of records written.
func (tw *TabWriter) Lines() int {
	return tw.lines
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
