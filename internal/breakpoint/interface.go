package breakpoint

// Reader is the interface for sources of breakpoint records.
type Reader interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Breakpoint, error)

	// LineNumber returns the number of the last line read.
	LineNumber() int
}
