package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-circ/internal/cache"
	"github.com/inodb/vibe-circ/internal/duckdb"
)

// metaChromFilter records the --chrom value a store was built with.
const metaChromFilter = "chrom_filter"

func newBuildCmd() *cobra.Command {
	var (
		chrom string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "build <annotation.gtf[.gz]> <annotation.duckdb>",
		Short: "Build the splice-site annotation store from a GTF file",
		Long: `Parse exons from a GENCODE or Ensembl GTF file and derive donor and
acceptor sites from the exon boundaries. Genes, transcripts, exons and sites
are written to a DuckDB database used by adjust and genes.

The build is skipped when the store was already built from the same GTF
(same size and modification time) unless --force is given.`,
		Example: `  vibe-circ build gencode.v46.annotation.gtf.gz annotation.duckdb
  vibe-circ build --chrom chr17 gencode.v46.annotation.gtf.gz chr17.duckdb`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), viper.GetBool(keyVerbose))
			defer logger.Sync()
			return runBuild(logger, args[0], args[1], chrom, force)
		},
	}

	cmd.Flags().StringVar(&chrom, "chrom", "", "Only load this chromosome")
	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even if the store is up to date")

	return cmd
}

func runBuild(logger *zap.Logger, gtfPath, dbPath, chrom string, force bool) error {
	src, err := duckdb.StatFile(gtfPath)
	if err != nil {
		return fmt.Errorf("stat GTF file: %w", err)
	}

	if !force && upToDate(dbPath, src, chrom) {
		logger.Info("annotation store is up to date", zap.String("path", dbPath))
		return nil
	}
	if err := removeStore(dbPath); err != nil {
		return err
	}

	c := cache.New()
	loader := cache.NewGTFLoader(gtfPath)
	if chrom != "" {
		err = loader.LoadChromosome(c, chrom)
	} else {
		err = loader.Load(c)
	}
	if err != nil {
		return fmt.Errorf("load GTF: %w", err)
	}
	logger.Info("parsed GTF",
		zap.String("path", gtfPath),
		zap.Int("genes", len(c.Genes())),
		zap.Int("transcripts", len(c.Transcripts())),
		zap.Int("exons", len(c.Exons())),
		zap.Int("donors", c.SiteCount(cache.Donor)),
		zap.Int("acceptors", c.SiteCount(cache.Acceptor)))
	if len(c.Sites()) == 0 {
		logger.Warn("no exons found, the store will be empty")
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WriteCache(c); err != nil {
		return fmt.Errorf("write annotation store: %w", err)
	}
	if err := store.RecordSource(src); err != nil {
		return err
	}
	if err := store.SetMetadata(map[string]string{metaChromFilter: chrom}); err != nil {
		return err
	}

	logger.Info("wrote annotation store",
		zap.String("path", dbPath),
		zap.Strings("chromosomes", c.Chromosomes()))
	return nil
}

// upToDate reports whether dbPath holds a store built from src with the
// same chromosome filter.
func upToDate(dbPath string, src duckdb.FileFingerprint, chrom string) bool {
	if _, err := os.Stat(dbPath); err != nil {
		return false
	}
	store, err := duckdb.OpenReadOnly(dbPath)
	if err != nil {
		return false
	}
	defer store.Close()

	if !store.BuiltFrom(src) {
		return false
	}
	meta, err := store.Metadata()
	return err == nil && meta[metaChromFilter] == chrom
}

// removeStore deletes a previous database and its write-ahead log.
func removeStore(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + ".wal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove old store: %w", err)
		}
	}
	return nil
}
