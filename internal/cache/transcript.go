package cache

// Transcript represents a specific gene isoform.
type Transcript struct {
	ID           int64   // Store row key
	TranscriptID string  // Transcript identifier (e.g., ENST00000357654)
	Biotype      string  // Transcript biotype
	Gene         *Gene   // Owning gene, never nil once loaded
	Exons        []*Exon // Exons sorted by genomic start
}

// Exon is a genomic exon interval. The same exon may be shared by several
// transcripts of one or more genes.
type Exon struct {
	ID          int64  // Store row key
	Chrom       string // Chromosome, as named in the annotation
	Start       int64  // Genomic start (1-based)
	End         int64  // Genomic end (1-based, inclusive)
	Strand      Strand
	Transcripts []*Transcript
}

// DonorPos returns the donor (5' splice) boundary of the exon: its end on
// the forward strand, its start on the reverse strand.
func (e *Exon) DonorPos() int64 {
	if e.Strand == StrandReverse {
		return e.Start
	}
	return e.End
}

// AcceptorPos returns the acceptor (3' splice) boundary of the exon: its
// start on the forward strand, its end on the reverse strand.
func (e *Exon) AcceptorPos() int64 {
	if e.Strand == StrandReverse {
		return e.End
	}
	return e.Start
}
