// Package duckdb provides the DuckDB-backed splice-site annotation store.
// Sites are served from an in-memory index after Preload, or straight from
// SQL otherwise.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-circ/internal/cache"
)

// Store manages a DuckDB connection to an annotation database.
type Store struct {
	db   *sql.DB
	path string

	// index serves lookups once Preload has run.
	index *cache.SiteIndex
}

// Open opens or creates a DuckDB annotation database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// OpenReadOnly opens an existing annotation database without write access.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open annotation store: %w", err)
	}

	db, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM information_schema.tables
		WHERE table_name = 'junction_sites'`).Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("inspect schema: %w", err)
	}
	if n == 0 {
		db.Close()
		return nil, fmt.Errorf("%s is not an annotation store (no junction_sites table)", path)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS genes (
			id BIGINT PRIMARY KEY,
			gene_id VARCHAR,
			gene_symbol VARCHAR,
			biotype VARCHAR
		);

		CREATE TABLE IF NOT EXISTS transcripts (
			id BIGINT PRIMARY KEY,
			transcript_id VARCHAR,
			gene_id BIGINT,
			biotype VARCHAR
		);

		CREATE TABLE IF NOT EXISTS exons (
			id BIGINT PRIMARY KEY,
			chrom VARCHAR,
			start BIGINT,
			end_ BIGINT,
			strand TINYINT
		);

		CREATE TABLE IF NOT EXISTS transcript_exons (
			transcript_id BIGINT,
			exon_id BIGINT
		);

		CREATE TABLE IF NOT EXISTS junction_sites (
			id BIGINT PRIMARY KEY,
			site_type VARCHAR,
			chrom VARCHAR,
			strand TINYINT,
			position BIGINT
		);

		CREATE TABLE IF NOT EXISTS site_exons (
			site_id BIGINT,
			exon_id BIGINT
		);

		CREATE TABLE IF NOT EXISTS metadata (
			key VARCHAR PRIMARY KEY,
			value VARCHAR
		);

		CREATE INDEX IF NOT EXISTS idx_sites_lookup ON junction_sites(site_type, chrom, strand, position);
		CREATE INDEX IF NOT EXISTS idx_site_exons_site ON site_exons(site_id);
		CREATE INDEX IF NOT EXISTS idx_transcript_exons_exon ON transcript_exons(exon_id);
	`)
	return err
}

// Counts holds row counts of the annotation tables.
type Counts struct {
	Genes       int64
	Transcripts int64
	Exons       int64
	Donors      int64
	Acceptors   int64
}

// Counts returns the number of rows in each annotation table.
func (s *Store) Counts() (Counts, error) {
	var c Counts
	err := s.db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM genes),
		(SELECT COUNT(*) FROM transcripts),
		(SELECT COUNT(*) FROM exons),
		(SELECT COUNT(*) FROM junction_sites WHERE site_type = 'donor'),
		(SELECT COUNT(*) FROM junction_sites WHERE site_type = 'acceptor')`).
		Scan(&c.Genes, &c.Transcripts, &c.Exons, &c.Donors, &c.Acceptors)
	if err != nil {
		return Counts{}, fmt.Errorf("count annotation rows: %w", err)
	}
	return c, nil
}
