// Package coord parses explicit chromosomal coordinate lists such as
// "16:123456-123457,chr18:1-2".
package coord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedCoordinate is returned when a coordinate token is not of the
// form chrom:start-end with integer positions.
var ErrMalformedCoordinate = errors.New("malformed coordinate")

// Coordinate is a raw interval taken verbatim from a coordinate string.
// Start and End are not validated against each other.
type Coordinate struct {
	Chrom string // always "chr"-prefixed
	Start int64
	End   int64
}

// String formats the coordinate as chrom:start-end.
func (c Coordinate) String() string {
	return fmt.Sprintf("%s:%d-%d", c.Chrom, c.Start, c.End)
}

// NormalizeChrom prepends "chr" to a chromosome name unless already present.
func NormalizeChrom(chrom string) string {
	if strings.HasPrefix(chrom, "chr") {
		return chrom
	}
	return "chr" + chrom
}

// Parse splits a comma-separated list of chrom:start-end tokens.
// Empty tokens from stray commas are skipped.
func Parse(spec string) ([]Coordinate, error) {
	var coords []Coordinate
	for _, raw := range strings.Split(spec, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		c, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("%w: no coordinates in %q", ErrMalformedCoordinate, spec)
	}
	return coords, nil
}

func parseToken(token string) (Coordinate, error) {
	fields := strings.Split(strings.ReplaceAll(token, ":", "-"), "-")
	if len(fields) != 3 || strings.TrimSpace(fields[0]) == "" {
		return Coordinate{}, fmt.Errorf("%w: %q (expected chrom:start-end)", ErrMalformedCoordinate, token)
	}

	start, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %q: bad start %q", ErrMalformedCoordinate, token, fields[1])
	}
	end, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %q: bad end %q", ErrMalformedCoordinate, token, fields[2])
	}

	return Coordinate{
		Chrom: NormalizeChrom(strings.TrimSpace(fields[0])),
		Start: start,
		End:   end,
	}, nil
}
