package bed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ChromSizes maps chromosome name to length in base pairs.
type ChromSizes map[string]int64

// LoadChromSizes reads a UCSC-style chrom.sizes file (chrom<TAB>length),
// plain or gzipped.
func LoadChromSizes(path string) (ChromSizes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chromosome sizes: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var reader io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return ParseChromSizes(reader)
}

// ParseChromSizes parses chrom.sizes content. Blank lines and lines starting
// with "#" are skipped.
func ParseChromSizes(r io.Reader) (ChromSizes, error) {
	sizes := make(ChromSizes)
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("chromosome sizes line %d: expected chrom and length", lineNum)
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || size < 0 {
			return nil, fmt.Errorf("chromosome sizes line %d: invalid length %q", lineNum, fields[1])
		}
		sizes[fields[0]] = size
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan chromosome sizes: %w", err)
	}
	return sizes, nil
}
