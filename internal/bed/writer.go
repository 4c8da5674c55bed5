package bed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Writer writes regions as tab-delimited BED records:
// chrom, start, end, then one column per collapsed annotation.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a new BED writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes a single region.
func (bw *Writer) Write(r Region) error {
	values := make([]string, 0, 3+len(r.Annotations))
	values = append(values,
		r.Chrom,
		strconv.FormatInt(r.Start, 10),
		strconv.FormatInt(r.End, 10),
	)
	values = append(values, r.Annotations...)

	_, err := bw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteAll writes every region in order.
func (bw *Writer) WriteAll(regions []Region) error {
	for _, r := range regions {
		if err := bw.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (bw *Writer) Flush() error {
	return bw.w.Flush()
}

// WriteFile writes regions to path atomically: the records go to a uniquely
// named temporary file in the same directory which is renamed into place only
// on success.
func WriteFile(path string, regions []Region) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	tmpPath := f.Name()
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod file: %w", err)
	}

	w := NewWriter(f)
	err = w.WriteAll(regions)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write bed: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
