package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const ensemblBaseURL = "https://ftp.ensembl.org/pub"

// ensemblURLs returns the genome FASTA and GTF URLs for a species
// following the Ensembl FTP layout.
func ensemblURLs(species, assembly string, release int) (fastaURL, gtfURL string) {
	// File names capitalize the species: homo_sapiens -> Homo_sapiens.
	capitalized := strings.ToUpper(species[:1]) + species[1:]
	fastaURL = fmt.Sprintf("%s/release-%d/fasta/%s/dna/%s.%s.dna_sm.toplevel.fa.gz",
		ensemblBaseURL, release, species, capitalized, assembly)
	gtfURL = fmt.Sprintf("%s/release-%d/gtf/%s/%s.%s.%d.gtf.gz",
		ensemblBaseURL, release, species, capitalized, assembly, release)
	return
}

func newDownloadCmd() *cobra.Command {
	var (
		species   string
		assembly  string
		release   int
		outputDir string
		gtfOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a genome and annotation from Ensembl",
		Long: `Download the soft-masked toplevel genome FASTA and the GTF annotation
for a species from the Ensembl FTP site. Note that the genome must be
decompressed before extraction, since random access needs an
uncompressed file.`,
		Example: `  promex download --species saccharomyces_cerevisiae --assembly R64-1-1
  promex download --species homo_sapiens --assembly GRCh38 --release 110`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				outputDir = viper.GetString("defaults.datadir")
			}
			return runDownload(species, assembly, release, outputDir, gtfOnly)
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "Ensembl species name, e.g. homo_sapiens (required)")
	cmd.Flags().StringVar(&assembly, "assembly", "", "Assembly name as used in Ensembl file names (required)")
	cmd.Flags().IntVar(&release, "release", 115, "Ensembl release number")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default: ~/.promex/<species>)")
	cmd.Flags().BoolVar(&gtfOnly, "gtf-only", false, "Only download the GTF annotation (skip the genome)")

	cmd.MarkFlagRequired("species")
	cmd.MarkFlagRequired("assembly")

	return cmd
}

func runDownload(species, assembly string, release int, outputDir string, gtfOnly bool) error {
	if outputDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		outputDir = filepath.Join(home, ".promex", species)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", outputDir, err)
	}

	fastaURL, gtfURL := ensemblURLs(strings.ToLower(species), assembly, release)

	fmt.Printf("Downloading Ensembl release %d files for %s...\n", release, species)
	fmt.Printf("Destination: %s\n\n", outputDir)

	gtfFile := filepath.Join(outputDir, filepath.Base(gtfURL))
	if err := downloadFile(gtfURL, gtfFile); err != nil {
		return fmt.Errorf("download GTF: %w", err)
	}

	if !gtfOnly {
		fastaFile := filepath.Join(outputDir, filepath.Base(fastaURL))
		if err := downloadFile(fastaURL, fastaFile); err != nil {
			return fmt.Errorf("download genome: %w", err)
		}
		fmt.Printf("\nDecompress the genome before extraction:\n")
		fmt.Printf("  gunzip %s\n", fastaFile)
	}

	fmt.Printf("\nDownload complete. To extract promoters, run:\n")
	fmt.Printf("  promex extract --genome <genome.fa> --annotation %s --organism %q\n", gtfFile, species)

	return nil
}

// downloadFile downloads a file from URL to the destination path with progress.
func downloadFile(url, destPath string) error {
	if info, err := os.Stat(destPath); err == nil {
		fmt.Printf("  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Printf("  Downloading %s...\n", filepath.Base(destPath))

	client := &http.Client{
		Timeout: 30 * time.Minute, // Long timeout for large files
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	var downloaded int64
	pw := &progressWriter{
		total:      resp.ContentLength,
		downloaded: &downloaded,
		lastPrint:  time.Now(),
	}

	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	f.Close()

	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Printf("    Done: %s\n", formatSize(downloaded))
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	total      int64
	downloaded *int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	*pw.downloaded += int64(n)

	// Print progress every second
	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(*pw.downloaded) / float64(pw.total) * 100
			fmt.Printf("\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(*pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Printf("\r    Progress: %s  ", formatSize(*pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
