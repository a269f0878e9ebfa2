package annotate

import (
	"fmt"
	"strconv"

	"github.com/inodb/vibe-circ/internal/breakpoint"
	"github.com/inodb/vibe-circ/internal/cache"
)

// End is one resolved breakpoint end.
type End struct {
	Pos   int64 // annotated site position
	Shift int64 // Pos minus the input position
	Found bool
}

// Adjustment is a breakpoint with both ends snapped to annotated sites.
type Adjustment struct {
	End1 End
	End2 End
}

// Fields renders adjustedPos1, adjustedPos2, pos1Shift and pos2Shift, using
// na for ends without a site.
func (a *Adjustment) Fields(na string) []string {
	pos := func(e End, v int64) string {
		if !e.Found {
			return na
		}
		return strconv.FormatInt(v, 10)
	}
	return []string{
		pos(a.End1, a.End1.Pos),
		pos(a.End2, a.End2.Pos),
		pos(a.End1, a.End1.Shift),
		pos(a.End2, a.End2.Shift),
	}
}

// Resolver snaps breakpoint ends to the nearest annotated donor and
// acceptor sites.
type Resolver struct {
	sites   SiteLookup
	dist    int64
	naValue string
}

// NewResolver creates a resolver accepting sites up to dist bases away.
// naValue is written for ends without a site.
func NewResolver(sites SiteLookup, dist int64, naValue string) *Resolver {
	return &Resolver{sites: sites, dist: dist, naValue: naValue}
}

// MaxDist returns the search radius handed to the site lookup. It is one
// wider than the configured distance, so a site at dist+1 still matches.
func (r *Resolver) MaxDist() int64 {
	return r.dist + 1
}

// Resolve looks up the donor and acceptor nearest to the breakpoint ends.
func (r *Resolver) Resolve(chrom string, pos1, pos2 int64, strand string) (*Adjustment, error) {
	e, err := splitEnds(pos1, pos2, strand)
	if err != nil {
		return nil, err
	}

	donor, err := r.sites.NearestSite(cache.Donor, chrom, e.donor, e.strand, r.MaxDist())
	if err != nil {
		return nil, fmt.Errorf("donor lookup: %w", err)
	}
	acceptor, err := r.sites.NearestSite(cache.Acceptor, chrom, e.acceptor, e.strand, r.MaxDist())
	if err != nil {
		return nil, fmt.Errorf("acceptor lookup: %w", err)
	}

	d, a := snap(donor, e.donor), snap(acceptor, e.acceptor)
	if e.donorIsPos1() {
		return &Adjustment{End1: d, End2: a}, nil
	}
	return &Adjustment{End1: a, End2: d}, nil
}

// Columns implements Processor.
func (r *Resolver) Columns(bp *breakpoint.Breakpoint) ([]string, error) {
	adj, err := r.Resolve(bp.Chrom, bp.Pos1, bp.Pos2, bp.Strand)
	if err != nil {
		return nil, err
	}
	return adj.Fields(r.naValue), nil
}

func snap(site *cache.JunctionSite, pos int64) End {
	if site == nil {
		return End{}
	}
	return End{Pos: site.Position, Shift: site.Position - pos, Found: true}
}
