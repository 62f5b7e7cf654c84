package survey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cerrors "github.com/a3tai/survey2pdf/internal/errors"
)

// RowRange is an inclusive range of zero-based row indexes
type RowRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParseRowRanges parses a selection expression such as "0,2,5-7".
// Tokens are comma separated, each a non-negative index or an inclusive
// start-end range with start <= end. The first malformed token is
// reported as an InvalidRowSelection error naming it.
func ParseRowRanges(expr string) ([]RowRange, error) {
	var ranges []RowRange
	for _, raw := range strings.Split(expr, ",") {
		token := strings.TrimSpace(raw)
		r, err := parseRowToken(token)
		if err != nil {
			return nil, cerrors.Wrap(cerrors.ErrorTypeInvalidRowSelection, "invalid row selection", err).WithToken(token)
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func parseRowToken(token string) (RowRange, error) {
	if token == "" {
		return RowRange{}, fmt.Errorf("empty entry")
	}

	if start, end, isRange := strings.Cut(token, "-"); isRange {
		a, err := parseIndex(strings.TrimSpace(start))
		if err != nil {
			return RowRange{}, err
		}
		b, err := parseIndex(strings.TrimSpace(end))
		if err != nil {
			return RowRange{}, err
		}
		if b < a {
			return RowRange{}, fmt.Errorf("range end %d is before start %d", b, a)
		}
		return RowRange{Start: a, End: b}, nil
	}

	i, err := parseIndex(token)
	if err != nil {
		return RowRange{}, err
	}
	return RowRange{Start: i, End: i}, nil
}

func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("missing index")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q is not a non-negative integer", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is out of range: %w", s, err)
	}
	return n, nil
}

// SelectRows resolves expr against a table of total rows and returns the
// ascending, deduplicated indexes. A blank expression selects every row.
// Any index at or beyond total is an error naming the token it came from.
func SelectRows(expr string, total int) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		all := make([]int, total)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	tokens := strings.Split(expr, ",")
	ranges, err := ParseRowRanges(expr)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	for i, r := range ranges {
		if r.End >= total {
			token := strings.TrimSpace(tokens[i])
			return nil, cerrors.New(cerrors.ErrorTypeInvalidRowSelection,
				fmt.Sprintf("row index %d is out of range (table has %d rows)", r.End, total)).
				WithToken(token)
		}
		for idx := r.Start; idx <= r.End; idx++ {
			seen[idx] = true
		}
	}

	selected := make([]int, 0, len(seen))
	for idx := range seen {
		selected = append(selected, idx)
	}
	sort.Ints(selected)
	return selected, nil
}
