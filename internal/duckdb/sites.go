package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/inodb/vibe-circ/internal/cache"
)

// Preload loads the complete annotation into an in-memory site index. All
// later lookups are answered from memory without database round trips.
// It returns the number of indexed sites.
func (s *Store) Preload(ctx context.Context) (int, error) {
	c, err := s.LoadCache(ctx)
	if err != nil {
		return 0, fmt.Errorf("preload annotation: %w", err)
	}
	s.index = cache.BuildSiteIndex(c.Sites())
	return s.index.Len(), nil
}

// Preloaded reports whether lookups are served from memory.
func (s *Store) Preloaded() bool {
	return s.index != nil
}

// NearestSite returns the site of type t closest to pos on chrom, or nil
// when none lies within maxDist (cache.NoMaxDist disables the cutoff).
// cache.StrandUnknown matches both strands. The returned site carries its
// exons, their transcripts and genes.
func (s *Store) NearestSite(t cache.SiteType, chrom string, pos int64, strand cache.Strand, maxDist int64) (*cache.JunctionSite, error) {
	if s.index != nil {
		return s.index.Nearest(t, chrom, pos, strand, maxDist), nil
	}

	up, err := s.querySite(t, chrom, pos, strand, true)
	if err != nil {
		return nil, err
	}
	down, err := s.querySite(t, chrom, pos, strand, false)
	if err != nil {
		return nil, err
	}

	site := cache.WithinDist(cache.PickNearest(up, down, pos), pos, maxDist)
	if site == nil {
		return nil, nil
	}
	if err := s.loadSiteExons(site); err != nil {
		return nil, err
	}
	return site, nil
}

// ExactSite returns the site of type t at exactly pos, or nil.
func (s *Store) ExactSite(t cache.SiteType, chrom string, pos int64, strand cache.Strand) (*cache.JunctionSite, error) {
	return s.NearestSite(t, chrom, pos, strand, 0)
}

// querySite fetches the first site at or above pos (up) or the last site at
// or below pos, ordered by (position, id).
func (s *Store) querySite(t cache.SiteType, chrom string, pos int64, strand cache.Strand, up bool) (*cache.JunctionSite, error) {
	var q strings.Builder
	q.WriteString(`SELECT id, strand, position FROM junction_sites WHERE site_type = ? AND chrom = ?`)
	args := []any{t.String(), chrom}

	if strand != cache.StrandUnknown {
		q.WriteString(` AND strand = ?`)
		args = append(args, int8(strand))
	}
	if up {
		q.WriteString(` AND position >= ? ORDER BY position, id LIMIT 1`)
	} else {
		q.WriteString(` AND position <= ? ORDER BY position DESC, id DESC LIMIT 1`)
	}
	args = append(args, pos)

	site := &cache.JunctionSite{Type: t, Chrom: chrom}
	var st int8
	err := s.db.QueryRow(q.String(), args...).Scan(&site.ID, &st, &site.Position)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s site: %w", t, err)
	}
	site.Strand = cache.Strand(st)
	return site, nil
}

// loadSiteExons attaches the exons of site together with their transcripts
// and genes.
func (s *Store) loadSiteExons(site *cache.JunctionSite) error {
	rows, err := s.db.Query(`
		SELECT e.id, e.chrom, e.start, e.end_, e.strand,
		       t.id, t.transcript_id, t.biotype,
		       g.id, g.gene_id, g.gene_symbol, g.biotype
		FROM site_exons se
		JOIN exons e ON e.id = se.exon_id
		LEFT JOIN transcript_exons te ON te.exon_id = e.id
		LEFT JOIN transcripts t ON t.id = te.transcript_id
		LEFT JOIN genes g ON g.id = t.gene_id
		WHERE se.site_id = ?
		ORDER BY e.id, t.id
	`, site.ID)
	if err != nil {
		return fmt.Errorf("query site exons: %w", err)
	}
	defer rows.Close()

	exons := make(map[int64]*cache.Exon)
	genes := make(map[int64]*cache.Gene)
	for rows.Next() {
		var (
			e                        cache.Exon
			strand                   int8
			txID, geneID             sql.NullInt64
			txName, txBiotype        sql.NullString
			geneName, symbol, gnType sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Chrom, &e.Start, &e.End, &strand,
			&txID, &txName, &txBiotype,
			&geneID, &geneName, &symbol, &gnType); err != nil {
			return fmt.Errorf("scan site exon: %w", err)
		}

		exon, ok := exons[e.ID]
		if !ok {
			e.Strand = cache.Strand(strand)
			exon = &e
			exons[e.ID] = exon
			site.Exons = append(site.Exons, exon)
		}
		if !txID.Valid {
			continue
		}

		t := &cache.Transcript{ID: txID.Int64, TranscriptID: txName.String, Biotype: txBiotype.String}
		if geneID.Valid {
			gn, ok := genes[geneID.Int64]
			if !ok {
				gn = &cache.Gene{ID: geneID.Int64, GeneID: geneName.String, Symbol: symbol.String, Biotype: gnType.String}
				genes[gn.ID] = gn
			}
			t.Gene = gn
			gn.Transcripts = append(gn.Transcripts, t)
		}
		cache.LinkExon(t, exon)
	}
	return rows.Err()
}
