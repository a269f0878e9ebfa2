package cache

import "sort"

// Cache is the in-memory splice-site annotation: genes, transcripts, exons
// and junction sites linked into one object graph.
type Cache struct {
	genes       []*Gene
	transcripts []*Transcript
	exons       []*Exon
	sites       []*JunctionSite
}

// New creates a new empty cache.
func New() *Cache {
	return &Cache{}
}

// AddGene adds a gene to the cache.
func (c *Cache) AddGene(g *Gene) {
	c.genes = append(c.genes, g)
}

// AddTranscript adds a transcript to the cache and links it to its gene.
func (c *Cache) AddTranscript(t *Transcript) {
	c.transcripts = append(c.transcripts, t)
	if t.Gene != nil {
		t.Gene.Transcripts = append(t.Gene.Transcripts, t)
	}
}

// AddExon adds an exon to the cache.
func (c *Cache) AddExon(e *Exon) {
	c.exons = append(c.exons, e)
}

// AddSite adds a junction site to the cache.
func (c *Cache) AddSite(s *JunctionSite) {
	c.sites = append(c.sites, s)
}

// LinkExon records that transcript t contains exon e.
func LinkExon(t *Transcript, e *Exon) {
	t.Exons = append(t.Exons, e)
	e.Transcripts = append(e.Transcripts, t)
}

// Genes returns all genes in insertion order.
func (c *Cache) Genes() []*Gene { return c.genes }

// Transcripts returns all transcripts in insertion order.
func (c *Cache) Transcripts() []*Transcript { return c.transcripts }

// Exons returns all exons in insertion order.
func (c *Cache) Exons() []*Exon { return c.exons }

// Sites returns all junction sites in insertion order.
func (c *Cache) Sites() []*JunctionSite { return c.sites }

// SiteCount returns the number of junction sites of the given type.
func (c *Cache) SiteCount(t SiteType) int {
	n := 0
	for _, s := range c.sites {
		if s.Type == t {
			n++
		}
	}
	return n
}

// Chromosomes returns a sorted list of chromosomes that carry junction sites.
func (c *Cache) Chromosomes() []string {
	seen := make(map[string]bool)
	for _, s := range c.sites {
		seen[s.Chrom] = true
	}
	chroms := make([]string, 0, len(seen))
	for chrom := range seen {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	return chroms
}
