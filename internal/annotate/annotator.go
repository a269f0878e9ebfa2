// Package annotate snaps circular-RNA breakpoints to annotated splice sites
// and reports the genes at each end.
package annotate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-circ/internal/breakpoint"
)

// Processor computes the output columns appended to a breakpoint record.
// Resolver and GeneAnnotator implement it.
type Processor interface {
	Columns(bp *breakpoint.Breakpoint) ([]string, error)
}

// RecordWriter defines the interface for writing annotated records.
type RecordWriter interface {
	Write(bp *breakpoint.Breakpoint, columns []string) error
	Flush() error
}

// Annotator runs a Processor over every record of a breakpoint file.
type Annotator struct {
	proc    Processor
	workers int
	logger  *zap.Logger
}

// NewAnnotator creates a new annotator around the given processor.
func NewAnnotator(p Processor) *Annotator {
	return &Annotator{
		proc:   p,
		logger: zap.NewNop(),
	}
}

// SetWorkers sets the number of concurrent workers. Zero or less uses
// runtime.NumCPU().
func (a *Annotator) SetWorkers(n int) {
	a.workers = n
}

// SetLogger sets the logger for progress messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Annotate computes the output columns of a single record.
func (a *Annotator) Annotate(bp *breakpoint.Breakpoint) ([]string, error) {
	return a.proc.Columns(bp)
}

// AnnotateAll annotates all records from reader and writes them in input
// order. The first malformed or unprocessable record stops the run; records
// before it have been written and flushed.
func (a *Annotator) AnnotateAll(reader breakpoint.Reader, writer RecordWriter) error {
	items := make(chan WorkItem, 2*a.workerCount())
	stop := make(chan struct{})
	var parseErr error
	recordCount := 0

	go func() {
		defer close(items)
		for seq := 0; ; seq++ {
			bp, err := reader.Next()
			if err != nil {
				parseErr = fmt.Errorf("read record: %w", err)
				return
			}
			if bp == nil {
				return
			}
			recordCount++

			select {
			case items <- WorkItem{Seq: seq, Record: bp}:
			case <-stop:
				return
			}
		}
	}()

	results := a.ParallelAnnotate(items, a.workers)

	written := 0
	collectErr := OrderedCollect(results, func(r WorkResult) error {
		if r.Err != nil {
			close(stop)
			return fmt.Errorf("line %d: %w", r.Record.Line, r.Err)
		}
		if err := writer.Write(r.Record, r.Columns); err != nil {
			close(stop)
			return fmt.Errorf("write record: %w", err)
		}
		written++
		return nil
	})

	flushErr := writer.Flush()

	switch {
	case collectErr != nil:
		return collectErr
	case parseErr != nil:
		return parseErr
	case flushErr != nil:
		return fmt.Errorf("flush output: %w", flushErr)
	}

	if recordCount == 0 {
		a.logger.Info("0 records processed")
	} else {
		a.logger.Info("records processed", zap.Int("records", written))
	}
	return nil
}
