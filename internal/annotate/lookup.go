package annotate

import (
	"errors"
	"fmt"

	"github.com/inodb/vibe-circ/internal/cache"
)

// ErrInvalidStrand is returned for a breakpoint whose strand is neither
// "+" nor "-".
var ErrInvalidStrand = errors.New("invalid strand")

// SiteLookup finds annotated junction sites. duckdb.Store implements it.
type SiteLookup interface {
	NearestSite(t cache.SiteType, chrom string, pos int64, strand cache.Strand, maxDist int64) (*cache.JunctionSite, error)
	ExactSite(t cache.SiteType, chrom string, pos int64, strand cache.Strand) (*cache.JunctionSite, error)
}

// ends assigns splice roles to the two breakpoint positions. On the forward
// strand pos2 is the donor and pos1 the acceptor; on the reverse strand the
// roles swap.
type ends struct {
	strand   cache.Strand
	donor    int64
	acceptor int64
}

func splitEnds(pos1, pos2 int64, strand string) (ends, error) {
	switch strand {
	case "+":
		return ends{strand: cache.StrandForward, donor: pos2, acceptor: pos1}, nil
	case "-":
		return ends{strand: cache.StrandReverse, donor: pos1, acceptor: pos2}, nil
	}
	return ends{}, fmt.Errorf("%w %q", ErrInvalidStrand, strand)
}

// donorIsPos1 reports whether the donor end maps back to pos1.
func (e ends) donorIsPos1() bool {
	return e.strand == cache.StrandReverse
}
