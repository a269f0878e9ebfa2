package cache

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/inodb/vibe-circ/internal/fileio"
)

// GTFLoader builds a splice-site annotation from GENCODE/Ensembl GTF files.
type GTFLoader struct {
	path string
}

// NewGTFLoader creates a new GTF loader.
func NewGTFLoader(path string) *GTFLoader {
	return &GTFLoader{path: path}
}

// Load loads all genes, transcripts, exons and derived junction sites from
// the GTF file into the cache.
func (l *GTFLoader) Load(c *Cache) error {
	return l.loadGTF(c, "")
}

// LoadChromosome loads the annotation of a single chromosome.
func (l *GTFLoader) LoadChromosome(c *Cache, chrom string) error {
	return l.loadGTF(c, chrom)
}

func (l *GTFLoader) loadGTF(c *Cache, filterChrom string) error {
	r, err := fileio.Open(l.path)
	if err != nil {
		return fmt.Errorf("open GTF file: %w", err)
	}
	defer r.Close()

	return ParseGTF(c, r, filterChrom)
}

// gtfFeature represents a parsed GTF line.
type gtfFeature struct {
	chrom       string
	featureType string
	start       int64
	end         int64
	strand      string
	attributes  map[string]string
}

type exonKey struct {
	chrom      string
	start, end int64
	strand     Strand
}

type junctionKey struct {
	chrom    string
	siteType SiteType
	strand   Strand
	position int64
}

// ParseGTF parses GTF content into c. If filterChrom is non-empty, only
// that chromosome is loaded. Exons shared by several transcripts become one
// Exon; every exon contributes one donor and one acceptor site, and sites at
// the same (type, chromosome, strand, position) are merged. Site IDs follow
// (chromosome, type, strand, position) order.
func ParseGTF(c *Cache, reader io.Reader, filterChrom string) error {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	genes := make(map[string]*Gene)
	var geneOrder []*Gene
	transcripts := make(map[string]*Transcript)
	var transcriptOrder []*Transcript
	exons := make(map[exonKey]*Exon)
	var exonOrder []*Exon

	gene := func(f *gtfFeature) *Gene {
		id := stripVersion(f.attributes["gene_id"])
		if g, ok := genes[id]; ok {
			return g
		}
		symbol := f.attributes["gene_name"]
		if symbol == "" {
			symbol = id
		}
		g := &Gene{GeneID: id, Symbol: symbol, Biotype: f.attributes["gene_type"]}
		if g.Biotype == "" {
			g.Biotype = f.attributes["gene_biotype"]
		}
		genes[id] = g
		geneOrder = append(geneOrder, g)
		return g
	}

	transcript := func(f *gtfFeature) *Transcript {
		id := stripVersion(f.attributes["transcript_id"])
		if t, ok := transcripts[id]; ok {
			return t
		}
		t := &Transcript{TranscriptID: id, Gene: gene(f), Biotype: f.attributes["transcript_type"]}
		if t.Biotype == "" {
			t.Biotype = f.attributes["transcript_biotype"]
		}
		transcripts[id] = t
		transcriptOrder = append(transcriptOrder, t)
		return t
	}

	memberOf := make(map[*Transcript]map[*Exon]bool)

	for scanner.Scan() {
		line := scanner.Text()

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		feat, err := parseLine(line)
		if err != nil {
			continue // Skip malformed lines
		}

		if filterChrom != "" && feat.chrom != filterChrom {
			continue
		}
		if feat.attributes["gene_id"] == "" {
			continue
		}

		switch feat.featureType {
		case "gene":
			gene(feat)

		case "transcript":
			if feat.attributes["transcript_id"] != "" {
				transcript(feat)
			}

		case "exon":
			if feat.attributes["transcript_id"] == "" {
				continue
			}
			strand, ok := ParseStrand(feat.strand)
			if !ok {
				continue
			}
			t := transcript(feat)
			k := exonKey{chrom: feat.chrom, start: feat.start, end: feat.end, strand: strand}
			e, ok := exons[k]
			if !ok {
				e = &Exon{Chrom: feat.chrom, Start: feat.start, End: feat.end, Strand: strand}
				exons[k] = e
				exonOrder = append(exonOrder, e)
			}
			if memberOf[t] == nil {
				memberOf[t] = make(map[*Exon]bool)
			}
			if !memberOf[t][e] {
				memberOf[t][e] = true
				LinkExon(t, e)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan GTF: %w", err)
	}

	for i, g := range geneOrder {
		g.ID = int64(i + 1)
		c.AddGene(g)
	}
	for i, t := range transcriptOrder {
		t.ID = int64(i + 1)
		// Sort exons by genomic position
		sort.Slice(t.Exons, func(a, b int) bool {
			return t.Exons[a].Start < t.Exons[b].Start
		})
		c.AddTranscript(t)
	}
	for i, e := range exonOrder {
		e.ID = int64(i + 1)
		c.AddExon(e)
	}

	for _, s := range deriveSites(exonOrder) {
		c.AddSite(s)
	}
	return nil
}

// deriveSites returns one donor and one acceptor site per distinct exon
// boundary, numbered in (chromosome, type, strand, position) order.
func deriveSites(exons []*Exon) []*JunctionSite {
	sites := make(map[junctionKey]*JunctionSite)
	add := func(t SiteType, e *Exon, pos int64) {
		k := junctionKey{chrom: e.Chrom, siteType: t, strand: e.Strand, position: pos}
		s, ok := sites[k]
		if !ok {
			s = &JunctionSite{Type: t, Chrom: e.Chrom, Strand: e.Strand, Position: pos}
			sites[k] = s
		}
		s.Exons = append(s.Exons, e)
	}
	for _, e := range exons {
		add(Donor, e, e.DonorPos())
		add(Acceptor, e, e.AcceptorPos())
	}

	result := make([]*JunctionSite, 0, len(sites))
	for _, s := range sites {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Chrom != b.Chrom {
			return a.Chrom < b.Chrom
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Strand != b.Strand {
			return a.Strand > b.Strand
		}
		return a.Position < b.Position
	})
	for i, s := range result {
		s.ID = int64(i + 1)
	}
	return result
}

// parseLine parses a single GTF line.
func parseLine(line string) (*gtfFeature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	return &gtfFeature{
		chrom:       fields[0],
		featureType: fields[2],
		start:       start,
		end:         end,
		strand:      fields[6],
		attributes:  parseAttributes(fields[8]),
	}, nil
}

// parseAttributes parses GTF attribute column.
// Format: key "value"; key "value"; ...
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, " ")
		if !ok {
			continue
		}
		attrs[key] = strings.Trim(strings.TrimSpace(value), "\"")
	}

	return attrs
}

// stripVersion removes the version suffix from an Ensembl ID.
// e.g., "ENST00000456328.2" -> "ENST00000456328"
func stripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}
