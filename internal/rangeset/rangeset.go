// Package rangeset parses compact integer range strings such as "<3,4-7,10-12"
// into a set of integers.
package rangeset

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned (wrapped in *InvalidTokensError) when a range
// string contains tokens that are neither integers nor two-part dash ranges.
var ErrInvalidRange = errors.New("invalid range spec")

// maxSpan bounds a single dash range so a typo like "1-9999999999" cannot
// allocate an arbitrarily large set.
const maxSpan = 100000

// InvalidTokensError reports every offending token of a range string.
type InvalidTokensError struct {
	Tokens []string // sorted, unique
}

func (e *InvalidTokensError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidRange, strings.Join(e.Tokens, ", "))
}

func (e *InvalidTokensError) Unwrap() error {
	return ErrInvalidRange
}

// Set is an unordered set of integers.
type Set map[int]struct{}

// Of builds a Set from the given values.
func Of(values ...int) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether n is a member of the set.
func (s Set) Contains(n int) bool {
	_, ok := s[n]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []int {
	out := make([]int, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// String returns the canonical form: ascending members joined by commas.
// Parsing the canonical form yields the same set.
func (s Set) String() string {
	sorted := s.Sorted()
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// Parse expands a comma-separated list of integers, dash ranges ("4-7" or
// "7-4") and less-than tokens ("<3", meaning 1-3) into a Set.
// Empty tokens are ignored. If any token is invalid the whole parse fails
// and the returned *InvalidTokensError lists all of them.
func Parse(spec string) (Set, error) {
	selection := make(Set)
	invalid := make(map[string]struct{})

	for _, raw := range strings.Split(spec, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}

		expr := token
		if strings.HasPrefix(expr, "<") {
			expr = "1-" + strings.TrimSpace(expr[1:])
		}

		if n, err := strconv.Atoi(expr); err == nil {
			selection[n] = struct{}{}
			continue
		}

		lo, hi, ok := parseDashRange(expr)
		if !ok {
			invalid[token] = struct{}{}
			continue
		}
		for n := lo; n <= hi; n++ {
			selection[n] = struct{}{}
		}
	}

	if len(invalid) > 0 {
		tokens := make([]string, 0, len(invalid))
		for t := range invalid {
			tokens = append(tokens, t)
		}
		sort.Strings(tokens)
		return nil, &InvalidTokensError{Tokens: tokens}
	}

	return selection, nil
}

// parseDashRange parses "a-b" in either order into lo <= hi.
func parseDashRange(expr string) (lo, hi int, ok bool) {
	parts := strings.Split(expr, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	if a > b {
		a, b = b, a
	}
	if b-a > maxSpan {
		return 0, 0, false
	}
	return a, b, true
}
