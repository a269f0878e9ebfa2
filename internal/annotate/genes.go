package annotate

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/fatih/set.v0"

	"github.com/inodb/vibe-circ/internal/breakpoint"
	"github.com/inodb/vibe-circ/internal/cache"
)

// Intragenic tells whether both breakpoint ends share a gene.
type Intragenic int8

const (
	IntragenicUnknown Intragenic = iota // at least one end has no gene
	IntragenicNo
	IntragenicYes
)

// Format renders the value as "1", "0" or na.
func (i Intragenic) Format(na string) string {
	switch i {
	case IntragenicYes:
		return "1"
	case IntragenicNo:
		return "0"
	}
	return na
}

// GeneAnnotation holds the genes at both breakpoint ends. Gene lists are
// sorted and free of duplicates.
type GeneAnnotation struct {
	Pos1Genes  []string
	Pos2Genes  []string
	Intragenic Intragenic
}

// Fields renders pos1Genes, pos2Genes and intragenic. Empty lists become na.
func (g *GeneAnnotation) Fields(na string) []string {
	join := func(genes []string) string {
		if len(genes) == 0 {
			return na
		}
		return strings.Join(genes, ",")
	}
	return []string{join(g.Pos1Genes), join(g.Pos2Genes), g.Intragenic.Format(na)}
}

// GeneAnnotator reports the genes whose exons have a donor or acceptor
// exactly at the breakpoint ends.
type GeneAnnotator struct {
	sites   SiteLookup
	naValue string
}

// NewGeneAnnotator creates a gene annotator.
func NewGeneAnnotator(sites SiteLookup, naValue string) *GeneAnnotator {
	return &GeneAnnotator{sites: sites, naValue: naValue}
}

// Annotate collects the genes at the donor and acceptor end of a breakpoint.
func (g *GeneAnnotator) Annotate(chrom string, pos1, pos2 int64, strand string) (*GeneAnnotation, error) {
	e, err := splitEnds(pos1, pos2, strand)
	if err != nil {
		return nil, err
	}

	donor, err := g.sites.ExactSite(cache.Donor, chrom, e.donor, e.strand)
	if err != nil {
		return nil, fmt.Errorf("donor lookup: %w", err)
	}
	acceptor, err := g.sites.ExactSite(cache.Acceptor, chrom, e.acceptor, e.strand)
	if err != nil {
		return nil, fmt.Errorf("acceptor lookup: %w", err)
	}

	donorGenes, acceptorGenes := geneSet(donor), geneSet(acceptor)

	ann := &GeneAnnotation{Intragenic: intragenic(donorGenes, acceptorGenes)}
	if e.donorIsPos1() {
		ann.Pos1Genes, ann.Pos2Genes = sortedGenes(donorGenes), sortedGenes(acceptorGenes)
	} else {
		ann.Pos1Genes, ann.Pos2Genes = sortedGenes(acceptorGenes), sortedGenes(donorGenes)
	}
	return ann, nil
}

// Columns implements Processor.
func (g *GeneAnnotator) Columns(bp *breakpoint.Breakpoint) ([]string, error) {
	ann, err := g.Annotate(bp.Chrom, bp.Pos1, bp.Pos2, bp.Strand)
	if err != nil {
		return nil, err
	}
	return ann.Fields(g.naValue), nil
}

func geneSet(site *cache.JunctionSite) set.Interface {
	s := set.New(set.NonThreadSafe)
	if site == nil {
		return s
	}
	for _, sym := range site.GeneSymbols() {
		if sym != "" {
			s.Add(sym)
		}
	}
	return s
}

func sortedGenes(s set.Interface) []string {
	genes := set.StringSlice(s)
	sort.Strings(genes)
	return genes
}

func intragenic(a, b set.Interface) Intragenic {
	if a.IsEmpty() || b.IsEmpty() {
		return IntragenicUnknown
	}
	if set.Intersection(a, b).IsEmpty() {
		return IntragenicNo
	}
	return IntragenicYes
}
