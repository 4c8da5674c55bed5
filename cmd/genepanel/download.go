package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// UCSC download locations.
const (
	ucscBaseURL        = "https://hgdownload.soe.ucsc.edu/goldenPath"
	referenceFileName  = "ncbiRefSeq.txt.gz"
	chromSizesFileName = "chrom.sizes"
)

// supportedAssemblies lists the UCSC assemblies the download command knows.
var supportedAssemblies = []string{"hg19", "hg38"}

// ucscURLs returns the reference table and chromosome sizes URLs for the
// given assembly.
func ucscURLs(assembly string) (refURL, sizesURL string) {
	refURL = fmt.Sprintf("%s/%s/database/%s", ucscBaseURL, assembly, referenceFileName)
	sizesURL = fmt.Sprintf("%s/%s/bigZips/%s.chrom.sizes", ucscBaseURL, assembly, assembly)
	return
}

// normalizeAssembly maps common assembly aliases onto UCSC names.
func normalizeAssembly(assembly string) (string, error) {
	switch strings.ToLower(assembly) {
	case "hg38", "grch38":
		return "hg38", nil
	case "hg19", "grch37":
		return "hg19", nil
	}
	return "", fmt.Errorf("unsupported assembly %q (supported: %s)", assembly, strings.Join(supportedAssemblies, ", "))
}

func newDownloadCmd() *cobra.Command {
	var (
		assembly  string
		outputDir string
		sizesOnly bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a UCSC RefSeq table and chromosome sizes",
		Long: `Download the UCSC ncbiRefSeq table and chromosome sizes for an assembly.

Files are stored in ~/.genepanel/<assembly>/ and picked up automatically when
--reference or --chrom-sizes is not given.`,
		Example: `  genepanel download
  genepanel download --assembly hg19
  genepanel download --output /data/ucsc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, err := normalizeAssembly(assembly)
			if err != nil {
				return usageError{err}
			}

			destDir := outputDir
			if destDir == "" {
				destDir = DefaultDownloadPath(asm)
				if destDir == "" {
					return fmt.Errorf("cannot determine home directory")
				}
			} else {
				destDir = filepath.Join(destDir, asm)
			}
			if err := os.MkdirAll(destDir, 0755); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", destDir, err)
			}

			refURL, sizesURL := ucscURLs(asm)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Downloading UCSC files for %s...\n", asm)
			fmt.Fprintf(out, "Destination: %s\n\n", destDir)

			if !sizesOnly {
				if err := downloadFile(cmd.Context(), out, refURL, filepath.Join(destDir, referenceFileName)); err != nil {
					return fmt.Errorf("downloading reference table: %w", err)
				}
			}
			if err := downloadFile(cmd.Context(), out, sizesURL, filepath.Join(destDir, chromSizesFileName)); err != nil {
				return fmt.Errorf("downloading chromosome sizes: %w", err)
			}

			fmt.Fprintf(out, "\nDownload complete!\n")
			fmt.Fprintf(out, "To build a panel, run:\n")
			fmt.Fprintf(out, "  genepanel extract --assembly %s -i '{\"genename\": \"BRCA1\"}'\n", asm)
			return nil
		},
	}

	cmd.Flags().StringVar(&assembly, "assembly", "hg38", "Genome assembly: hg19 or hg38")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default: ~/.genepanel/)")
	cmd.Flags().BoolVar(&sizesOnly, "chrom-sizes-only", false, "Only download chromosome sizes")

	return cmd
}

// downloadFile downloads url to destPath, reporting progress on out. Existing
// files are kept.
func downloadFile(ctx context.Context, out io.Writer, url, destPath string) error {
	if info, err := os.Stat(destPath); err == nil {
		fmt.Fprintf(out, "  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Fprintf(out, "  Downloading %s...\n", filepath.Base(destPath))

	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Minute}
	resp, err := client.Do(req)
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

	pw := &progressWriter{
		out:       out,
		total:     resp.ContentLength,
		lastPrint: time.Now(),
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

	fmt.Fprintf(out, "    Done: %s\n", formatSize(pw.downloaded))
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	out        io.Writer
	total      int64
	downloaded int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(pw.downloaded) / float64(pw.total) * 100
			fmt.Fprintf(pw.out, "\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Fprintf(pw.out, "\r    Progress: %s  ", formatSize(pw.downloaded))
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

// DefaultDownloadPath returns the directory downloaded files for an assembly
// are stored in.
func DefaultDownloadPath(assembly string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".genepanel", strings.ToLower(assembly))
}

// FindDownloadedFiles looks for downloaded files in the default location.
// Missing files are returned as empty paths.
func FindDownloadedFiles(assembly string) (refPath, chromSizesPath string) {
	asm, err := normalizeAssembly(assembly)
	if err != nil {
		return "", ""
	}
	dir := DefaultDownloadPath(asm)
	if dir == "" {
		return "", ""
	}

	if p := filepath.Join(dir, referenceFileName); fileExists(p) {
		refPath = p
	}
	if p := filepath.Join(dir, chromSizesFileName); fileExists(p) {
		chromSizesPath = p
	}
	return refPath, chromSizesPath
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
