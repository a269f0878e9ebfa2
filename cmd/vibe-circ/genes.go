package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-circ/internal/annotate"
)

func newGenesCmd() *cobra.Command {
	opts := &pipelineOptions{}

	cmd := &cobra.Command{
		Use:   "genes <annotation.duckdb> [regions.tsv]",
		Short: "Report the genes at both breakpoint ends",
		Long: `Look up the donor and acceptor sites exactly at the breakpoint ends and
report the genes whose exons they bound. Appends pos1Genes, pos2Genes and
intragenic (1 when both ends share a gene, 0 when they don't) to every input
line. Run adjust first to snap ends onto annotated sites.

Regions are read from stdin when no file is given or the file is '-'.`,
		Example: `  vibe-circ genes annotation.duckdb adjusted.tsv
  vibe-circ genes --na_value . -o genes.tsv annotation.duckdb adjusted.tsv`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, keyNAValue, keyWorkers); err != nil {
				return err
			}
			na := viper.GetString(keyNAValue)

			return runPipeline(cmd, args[0], stdinOr(args, 1), opts, func(sites annotate.SiteLookup) annotate.Processor {
				return annotate.NewGeneAnnotator(sites, na)
			})
		},
	}

	addPipelineFlags(cmd, opts)

	return cmd
}
