package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-circ/internal/annotate"
)

func newAdjustCmd() *cobra.Command {
	opts := &pipelineOptions{}

	cmd := &cobra.Command{
		Use:   "adjust <annotation.duckdb> [regions.tsv]",
		Short: "Snap breakpoints to the nearest annotated splice sites",
		Long: `Adjust each breakpoint end to the nearest annotated splice site of the
matching role: on the + strand pos1 is moved to an acceptor and pos2 to a
donor, on the - strand the roles swap. Appends adjustedPos1, adjustedPos2,
pos1Shift and pos2Shift to every input line.

Regions are read from stdin when no file is given or the file is '-'.`,
		Example: `  vibe-circ adjust annotation.duckdb candidates.tsv
  vibe-circ adjust --dist 10 --na_value . annotation.duckdb candidates.tsv.gz
  zcat candidates.tsv.gz | vibe-circ adjust annotation.duckdb -`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, keyDist, keyNAValue, keyWorkers); err != nil {
				return err
			}

			dist := viper.GetInt64(keyDist)
			if dist < 0 {
				return fmt.Errorf("--dist must be >= 0, got %d", dist)
			}
			na := viper.GetString(keyNAValue)

			return runPipeline(cmd, args[0], stdinOr(args, 1), opts, func(sites annotate.SiteLookup) annotate.Processor {
				return annotate.NewResolver(sites, dist, na)
			})
		},
	}

	cmd.Flags().Int64(keyDist, 5, "Maximum distance in bases between a breakpoint end and a splice site")
	addPipelineFlags(cmd, opts)

	return cmd
}
