package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-circ/internal/duckdb"
)

type storeInfo struct {
	Path        string            `yaml:"path"`
	Genes       int64             `yaml:"genes"`
	Transcripts int64             `yaml:"transcripts"`
	Exons       int64             `yaml:"exons"`
	Donors      int64             `yaml:"donor_sites"`
	Acceptors   int64             `yaml:"acceptor_sites"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <annotation.duckdb>",
		Short: "Show annotation store contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := duckdb.OpenReadOnly(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.Counts()
			if err != nil {
				return err
			}
			meta, err := store.Metadata()
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(storeInfo{
				Path:        args[0],
				Genes:       counts.Genes,
				Transcripts: counts.Transcripts,
				Exons:       counts.Exons,
				Donors:      counts.Donors,
				Acceptors:   counts.Acceptors,
				Metadata:    meta,
			})
			if err != nil {
				return fmt.Errorf("marshaling store info: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
