package duckdb

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Metadata keys written by RecordSource.
const (
	MetaSourcePath    = "source_path"
	MetaSourceSize    = "source_size"
	MetaSourceModTime = "source_modtime"
	MetaCreatedAt     = "created_at"
)

// RecordSource stores the fingerprint of the GTF the annotation was built
// from.
func (s *Store) RecordSource(src FileFingerprint) error {
	return s.SetMetadata(map[string]string{
		MetaSourcePath:    src.Path,
		MetaSourceSize:    strconv.FormatInt(src.Size, 10),
		MetaSourceModTime: src.ModTime.UTC().Format(time.RFC3339Nano),
		MetaCreatedAt:     time.Now().UTC().Format(time.RFC3339),
	})
}

// BuiltFrom reports whether the store was built from a file matching src.
func (s *Store) BuiltFrom(src FileFingerprint) bool {
	meta, err := s.Metadata()
	if err != nil {
		return false
	}

	checks := []struct{ key, val string }{
		{MetaSourceSize, strconv.FormatInt(src.Size, 10)},
		{MetaSourceModTime, src.ModTime.UTC().Format(time.RFC3339Nano)},
	}
	for _, c := range checks {
		if meta[c.key] != c.val {
			return false
		}
	}
	return true
}

// SetMetadata upserts key/value pairs into the metadata table.
func (s *Store) SetMetadata(kv map[string]string) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := s.db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, k, kv[k]); err != nil {
			return fmt.Errorf("write metadata %s: %w", k, err)
		}
	}
	return nil
}

// Metadata returns all metadata key/value pairs.
func (s *Store) Metadata() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}
