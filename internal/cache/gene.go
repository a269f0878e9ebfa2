// Package cache holds the in-memory splice-site annotation model.
package cache

// Gene is an annotated gene and the transcripts it owns.
type Gene struct {
	ID          int64         // Store row key
	GeneID      string        // Gene identifier (e.g., ENSG00000012048)
	Symbol      string        // Gene symbol (e.g., BRCA1)
	Biotype     string        // Gene biotype (e.g., protein_coding)
	Transcripts []*Transcript // Associated transcripts
}
