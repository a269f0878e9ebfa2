// Package breakpoint reads candidate back-splice breakpoints from TSV files.
package breakpoint

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-circ/internal/fileio"
)

// MinColumns is the number of leading columns every record must have:
// chromosome, pos1, pos2 and strand.
const MinColumns = 4

// Breakpoint is one input record. Fields holds every input column,
// including the leading four, for verbatim passthrough.
type Breakpoint struct {
	Chrom  string
	Pos1   int64
	Pos2   int64
	Strand string
	Fields []string
	Line   int
}

// Parser reads breakpoints from a TSV file.
type Parser struct {
	reader     *bufio.Reader
	closer     io.Closer
	lineNumber int
	done       bool
}

// NewParser creates a parser for the given path, or stdin when path is "-".
// Gzip and lz4 input is detected automatically.
func NewParser(path string) (*Parser, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open regions file: %w", err)
	}
	return &Parser{reader: bufio.NewReader(r), closer: r}, nil
}

// NewParserFromReader creates a parser from an io.Reader. The reader is
// not decompressed.
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{reader: bufio.NewReader(r)}
}

// Next reads the next breakpoint. Blank lines are skipped.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Breakpoint, error) {
	for !p.done {
		line, err := p.reader.ReadString('\n')
		if err == io.EOF {
			p.done = true
			if line == "" {
				break
			}
		} else if err != nil {
			return nil, fmt.Errorf("read line %d: %w", p.lineNumber+1, err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		return p.parseLine(line)
	}
	return nil, nil
}

func (p *Parser) parseLine(line string) (*Breakpoint, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < MinColumns {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", MinColumns, len(fields)),
		}
	}

	pos1, err := p.parsePos("pos1", fields[1])
	if err != nil {
		return nil, err
	}
	pos2, err := p.parsePos("pos2", fields[2])
	if err != nil {
		return nil, err
	}

	return &Breakpoint{
		Chrom:  fields[0],
		Pos1:   pos1,
		Pos2:   pos2,
		Strand: fields[3],
		Fields: fields,
		Line:   p.lineNumber,
	}, nil
}

func (p *Parser) parsePos(name, s string) (int64, error) {
	pos, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid %s: %q", name, s),
		}
	}
	if pos < 0 {
		return 0, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("negative %s: %d", name, pos),
		}
	}
	return pos, nil
}

// LineNumber returns the number of the last line read.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the underlying file, if the parser opened one.
func (p *Parser) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// ParseError is a malformed record, with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("regions parse error at line %d: %s", e.Line, e.Message)
}
