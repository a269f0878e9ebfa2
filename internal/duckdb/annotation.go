package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-circ/internal/cache"
)

// WriteCache bulk-inserts the whole annotation graph using the Appender API.
// Row keys are taken from the cache objects, so the store must be empty.
func (s *Store) WriteCache(c *cache.Cache) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if err := appendRows(conn, "genes", func(a *goduckdb.Appender) error {
		for _, g := range c.Genes() {
			if err := a.AppendRow(g.ID, g.GeneID, g.Symbol, g.Biotype); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := appendRows(conn, "transcripts", func(a *goduckdb.Appender) error {
		for _, t := range c.Transcripts() {
			if err := a.AppendRow(t.ID, t.TranscriptID, t.Gene.ID, t.Biotype); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := appendRows(conn, "exons", func(a *goduckdb.Appender) error {
		for _, e := range c.Exons() {
			if err := a.AppendRow(e.ID, e.Chrom, e.Start, e.End, int8(e.Strand)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := appendRows(conn, "transcript_exons", func(a *goduckdb.Appender) error {
		for _, t := range c.Transcripts() {
			for _, e := range t.Exons {
				if err := a.AppendRow(t.ID, e.ID); err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := appendRows(conn, "junction_sites", func(a *goduckdb.Appender) error {
		for _, site := range c.Sites() {
			if err := a.AppendRow(site.ID, site.Type.String(), site.Chrom, int8(site.Strand), site.Position); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return appendRows(conn, "site_exons", func(a *goduckdb.Appender) error {
		for _, site := range c.Sites() {
			for _, e := range site.Exons {
				if err := a.AppendRow(site.ID, e.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// appendRows opens an appender on table, runs fill and flushes.
func appendRows(conn *sql.Conn, table string, fill func(*goduckdb.Appender) error) error {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create %s appender: %w", table, err)
	}
	defer appender.Close()

	if err := fill(appender); err != nil {
		return fmt.Errorf("append %s row: %w", table, err)
	}
	if err := appender.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", table, err)
	}
	return nil
}

type linkRow struct{ from, to int64 }

type siteRow struct {
	id       int64
	siteType string
	chrom    string
	strand   int8
	position int64
}

// LoadCache reads the whole annotation graph. The tables are queried
// concurrently and linked once all of them are in.
func (s *Store) LoadCache(ctx context.Context) (*cache.Cache, error) {
	var (
		genes       []*cache.Gene
		transcripts []*cache.Transcript
		geneOf      []int64
		exons       []*cache.Exon
		txExons     []linkRow
		sites       []siteRow
		siteExons   []linkRow
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.scan(gctx, `SELECT id, gene_id, gene_symbol, biotype FROM genes ORDER BY id`,
			func(rows *sql.Rows) error {
				gn := &cache.Gene{}
				var biotype sql.NullString
				if err := rows.Scan(&gn.ID, &gn.GeneID, &gn.Symbol, &biotype); err != nil {
					return err
				}
				gn.Biotype = biotype.String
				genes = append(genes, gn)
				return nil
			})
	})

	g.Go(func() error {
		return s.scan(gctx, `SELECT id, transcript_id, gene_id, biotype FROM transcripts ORDER BY id`,
			func(rows *sql.Rows) error {
				t := &cache.Transcript{}
				var geneID int64
				var biotype sql.NullString
				if err := rows.Scan(&t.ID, &t.TranscriptID, &geneID, &biotype); err != nil {
					return err
				}
				t.Biotype = biotype.String
				transcripts = append(transcripts, t)
				geneOf = append(geneOf, geneID)
				return nil
			})
	})

	g.Go(func() error {
		return s.scan(gctx, `SELECT id, chrom, start, end_, strand FROM exons ORDER BY id`,
			func(rows *sql.Rows) error {
				e := &cache.Exon{}
				var strand int8
				if err := rows.Scan(&e.ID, &e.Chrom, &e.Start, &e.End, &strand); err != nil {
					return err
				}
				e.Strand = cache.Strand(strand)
				exons = append(exons, e)
				return nil
			})
	})

	g.Go(func() error {
		return s.scan(gctx, `SELECT transcript_id, exon_id FROM transcript_exons ORDER BY transcript_id, exon_id`,
			func(rows *sql.Rows) error {
				var l linkRow
				if err := rows.Scan(&l.from, &l.to); err != nil {
					return err
				}
				txExons = append(txExons, l)
				return nil
			})
	})

	g.Go(func() error {
		return s.scan(gctx, `SELECT id, site_type, chrom, strand, position FROM junction_sites ORDER BY id`,
			func(rows *sql.Rows) error {
				var r siteRow
				if err := rows.Scan(&r.id, &r.siteType, &r.chrom, &r.strand, &r.position); err != nil {
					return err
				}
				sites = append(sites, r)
				return nil
			})
	})

	g.Go(func() error {
		return s.scan(gctx, `SELECT site_id, exon_id FROM site_exons ORDER BY site_id, exon_id`,
			func(rows *sql.Rows) error {
				var l linkRow
				if err := rows.Scan(&l.from, &l.to); err != nil {
					return err
				}
				siteExons = append(siteExons, l)
				return nil
			})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := cache.New()

	genesByID := make(map[int64]*cache.Gene, len(genes))
	for _, gn := range genes {
		genesByID[gn.ID] = gn
		c.AddGene(gn)
	}

	transcriptsByID := make(map[int64]*cache.Transcript, len(transcripts))
	for i, t := range transcripts {
		gn, ok := genesByID[geneOf[i]]
		if !ok {
			return nil, fmt.Errorf("transcript %s references missing gene %d", t.TranscriptID, geneOf[i])
		}
		t.Gene = gn
		transcriptsByID[t.ID] = t
		c.AddTranscript(t)
	}

	exonsByID := make(map[int64]*cache.Exon, len(exons))
	for _, e := range exons {
		exonsByID[e.ID] = e
		c.AddExon(e)
	}

	for _, l := range txExons {
		t, e := transcriptsByID[l.from], exonsByID[l.to]
		if t == nil || e == nil {
			return nil, fmt.Errorf("dangling transcript_exons row (%d, %d)", l.from, l.to)
		}
		cache.LinkExon(t, e)
	}

	sitesByID := make(map[int64]*cache.JunctionSite, len(sites))
	for _, r := range sites {
		st, err := cache.ParseSiteType(r.siteType)
		if err != nil {
			return nil, fmt.Errorf("junction site %d: %w", r.id, err)
		}
		site := &cache.JunctionSite{
			ID:       r.id,
			Type:     st,
			Chrom:    r.chrom,
			Strand:   cache.Strand(r.strand),
			Position: r.position,
		}
		sitesByID[site.ID] = site
		c.AddSite(site)
	}

	for _, l := range siteExons {
		site, e := sitesByID[l.from], exonsByID[l.to]
		if site == nil || e == nil {
			return nil, fmt.Errorf("dangling site_exons row (%d, %d)", l.from, l.to)
		}
		site.Exons = append(site.Exons, e)
	}

	return c, nil
}

// scan runs query and calls fn for every row.
func (s *Store) scan(ctx context.Context, query string, fn func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
	}
	return rows.Err()
}
