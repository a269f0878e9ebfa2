package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-circ/internal/annotate"
	"github.com/inodb/vibe-circ/internal/breakpoint"
	"github.com/inodb/vibe-circ/internal/duckdb"
	"github.com/inodb/vibe-circ/internal/fileio"
	"github.com/inodb/vibe-circ/internal/output"
)

// pipelineOptions are the flags shared by adjust and genes that are not
// backed by a config key.
type pipelineOptions struct {
	output    string
	noPreload bool
}

func addPipelineFlags(cmd *cobra.Command, opts *pipelineOptions) {
	cmd.Flags().String(keyNAValue, "NA", "Placeholder written for missing values")
	cmd.Flags().Int(keyWorkers, 0, "Number of annotation workers (0 = number of CPUs)")
	cmd.Flags().BoolVar(&opts.noPreload, "no-preload", false, "Query the store for every record instead of loading all sites into memory")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
}

// processorFactory builds the per-record processor once the store is open.
type processorFactory func(sites annotate.SiteLookup) annotate.Processor

// runPipeline annotates every record of regionsPath against the store at
// dbPath and writes input columns plus processor columns.
func runPipeline(cmd *cobra.Command, dbPath, regionsPath string, opts *pipelineOptions, newProc processorFactory) error {
	logger := newLogger(cmd.ErrOrStderr(), viper.GetBool(keyVerbose))
	defer logger.Sync()

	store, err := duckdb.OpenReadOnly(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("opened annotation store", zap.String("path", dbPath))

	if viper.GetBool(keyPreload) && !opts.noPreload {
		n, err := store.Preload(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("preloaded junction sites", zap.Int("sites", n))
	} else {
		logger.Debug("serving lookups from SQL")
	}

	parser, closeInput, err := openRegions(cmd, regionsPath)
	if err != nil {
		return err
	}
	defer closeInput()

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	workers := viper.GetInt(keyWorkers)
	ann := annotate.NewAnnotator(newProc(store))
	ann.SetWorkers(workers)
	ann.SetLogger(logger)
	logger.Debug("annotating", zap.String("input", regionsPath), zap.Int("workers", workers))

	return ann.AnnotateAll(parser, output.NewTabWriter(out))
}

// openRegions opens the breakpoint file, reading stdin for "-".
func openRegions(cmd *cobra.Command, path string) (*breakpoint.Parser, func() error, error) {
	if path != "-" {
		p, err := breakpoint.NewParser(path)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}

	r, err := fileio.NewReader(cmd.InOrStdin())
	if err != nil {
		return nil, nil, fmt.Errorf("read stdin: %w", err)
	}
	return breakpoint.NewParserFromReader(r), r.Close, nil
}

// stdinOr returns "-" when no regions path was given.
func stdinOr(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return "-"
}
