package cache

import "fmt"

// SiteType distinguishes donor from acceptor splice sites.
type SiteType uint8

const (
	Donor SiteType = iota
	Acceptor
)

func (t SiteType) String() string {
	switch t {
	case Donor:
		return "donor"
	case Acceptor:
		return "acceptor"
	}
	return fmt.Sprintf("SiteType(%d)", uint8(t))
}

// ParseSiteType converts "donor" or "acceptor" to a SiteType.
func ParseSiteType(s string) (SiteType, error) {
	switch s {
	case "donor":
		return Donor, nil
	case "acceptor":
		return Acceptor, nil
	}
	return 0, fmt.Errorf("unknown site type %q", s)
}

// Strand is a genomic strand. StrandUnknown matches either strand in
// lookups.
type Strand int8

const (
	StrandUnknown Strand = 0
	StrandForward Strand = 1
	StrandReverse Strand = -1
)

func (s Strand) String() string {
	switch s {
	case StrandForward:
		return "+"
	case StrandReverse:
		return "-"
	}
	return "."
}

// ParseStrand converts "+" or "-" to a Strand. ok is false for any other
// value.
func ParseStrand(s string) (strand Strand, ok bool) {
	switch s {
	case "+":
		return StrandForward, true
	case "-":
		return StrandReverse, true
	}
	return StrandUnknown, false
}

// JunctionSite is an annotated donor or acceptor position together with the
// exons whose boundary it is.
type JunctionSite struct {
	ID       int64 // Insertion-order key, breaks ties between equal positions
	Type     SiteType
	Chrom    string
	Strand   Strand
	Position int64
	Exons    []*Exon
}

// GeneSymbols returns the symbol of every gene reachable through the site's
// exons and their transcripts, in traversal order. Symbols repeat when
// several transcripts of one gene share an exon.
func (s *JunctionSite) GeneSymbols() []string {
	var symbols []string
	for _, e := range s.Exons {
		for _, t := range e.Transcripts {
			if t.Gene != nil {
				symbols = append(symbols, t.Gene.Symbol)
			}
		}
	}
	return symbols
}

// Distance returns the absolute distance between the site and pos.
func (s *JunctionSite) Distance(pos int64) int64 {
	d := s.Position - pos
	if d < 0 {
		return -d
	}
	return d
}
