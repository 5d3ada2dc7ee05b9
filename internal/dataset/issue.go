package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Issue is the identifier of a draw. An Issue that is not Valid is absent.
type Issue struct {
	Value int64
	Valid bool
}

// NewIssue returns a valid issue with the given value
func NewIssue(v int64) Issue {
	return Issue{Value: v, Valid: true}
}

// ParseIssue coerces a cell to an issue key. Integer literals and integral float literals
// ("24001.0", as written by tools that promote a column with gaps to floats) are accepted;
// anything else yields the absent issue.
func ParseIssue(s string) Issue {
	s = strings.TrimSpace(s)
	if s == "" {
		return Issue{}
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewIssue(v)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return Issue{}
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return Issue{}
	}
	return NewIssue(int64(f))
}

// Greater reports whether i is strictly greater than other. Absent issues never compare
// greater and nothing compares greater than an absent issue.
func (i Issue) Greater(other Issue) bool {
	if !i.Valid || !other.Valid {
		return false
	}
	return i.Value > other.Value
}

// String renders the issue as an integer, or "" when absent
func (i Issue) String() string {
	if !i.Valid {
		return ""
	}
	return strconv.FormatInt(i.Value, 10)
}
