package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evomics/promex/internal/genome"
)

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index <genome.fa>",
		Short: "Build the random-access index for a genome FASTA file",
		Long: `Build a samtools-faidx compatible index (<genome.fa>.fai) mapping each
sequence name to its byte offset, length and line geometry. extract
builds this index automatically when missing; pre-building it is useful
for large genomes shared between runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Rebuild even if the index already exists")

	return cmd
}

func runIndex(genomePath string, force bool) error {
	faiPath := genome.IndexPath(genomePath)

	if !force {
		if _, err := os.Stat(faiPath); err == nil {
			fmt.Fprintf(os.Stderr, "%s already exists, use --force to rebuild\n", faiPath)
			return nil
		}
	}

	idx, err := genome.BuildIndex(genomePath)
	if err != nil {
		return err
	}

	if err := idx.Save(faiPath); err != nil {
		return err
	}

	var total int64
	for _, name := range idx.Names() {
		e, _ := idx.Entry(name)
		total += e.Length
	}
	fmt.Fprintf(os.Stderr, "Indexed %d sequences (%d bases) into %s\n", idx.Len(), total, faiPath)

	return nil
}
