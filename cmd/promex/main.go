// Package main provides the promex command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "promex",
		Short:   "Extract promoter sequences upstream of gene transcription start sites",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Long: `promex extracts, for every protein-coding gene in a genome, the
sequence immediately upstream of its transcription start site. It takes
a genome FASTA file and a GTF/GFF3 annotation, consolidates features
into per-gene loci, and writes one promoter sequence per gene.`,
		Example: `  # One-time setup: fetch a genome and annotation from Ensembl
  promex download --species saccharomyces_cerevisiae --assembly R64-1-1

  # Extract 1kb promoters
  promex extract --genome genome.fa --annotation genes.gtf --organism "baker's yeast"

  # Pre-build the genome index
  promex index genome.fa`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cobra.OnInitialize(initConfig)

	root.AddCommand(newExtractCmd())
	root.AddCommand(newIndexCmd())
	root.AddCommand(newDownloadCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig loads ~/.promex.yaml and PROMEX_* environment variables.
func initConfig() {
	viper.SetDefault("defaults.width", 1000)
	viper.SetDefault("defaults.workers", 0)

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".promex")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PROMEX")
	viper.AutomaticEnv()

	// A missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
}

// newLogger builds the CLI logger. Verbose runs get debug-level
// development output; normal runs log info and above.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
