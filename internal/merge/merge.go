package merge

import (
	"errors"
	"fmt"

	"github.com/pfrederiksen/draw-sync/internal/dataset"
)

// ExpectedWidth is the column count the local store is assumed to have when the remote table
// and the local header disagree on width
const ExpectedWidth = 15

// ErrSchemaMismatch is returned when the truncated remote rows still cannot be mapped onto
// the local header
var ErrSchemaMismatch = errors.New("remote columns cannot be aligned to local header")

// Keyed is a remote record together with its coerced issue
type Keyed struct {
	Issue  dataset.Issue
	Record dataset.Record
}

// NormalizeRemote reads the issue of every remote record from its first column and drops the
// records whose issue is absent. Order is preserved.
func NormalizeRemote(remote *dataset.Dataset) []Keyed {
	out := make([]Keyed, 0, remote.Len())
	for _, r := range remote.Records {
		issue := dataset.ParseIssue(r.Cell(0))
		if !issue.Valid {
			continue
		}
		out = append(out, Keyed{Issue: issue, Record: r})
	}
	return out
}

// Filter returns the rows whose issue is strictly greater than max. When max is absent no
// row qualifies.
func Filter(rows []Keyed, max dataset.Issue) []Keyed {
	out := make([]Keyed, 0)
	for _, k := range rows {
		if k.Issue.Greater(max) {
			out = append(out, k)
		}
	}
	return out
}

// Alignment is the result of mapping new rows onto the local header
type Alignment struct {
	Records []dataset.Record
	// Truncated is set when the widths differed and the fixed-width fallback was applied.
	// The fallback trusts that remote and local columns share an order; nothing checks it.
	Truncated bool
	// Width is the number of remote columns carried into each row
	Width int
}

// Align renames the new rows' columns to the local header by position. When the remote width
// equals the local width every column is carried. Otherwise the rows are cut to
// expectedWidth columns and mapped onto the first expectedWidth local labels; the remaining
// local columns are left empty.
func Align(rows []Keyed, remoteWidth int, header []string, expectedWidth int) (*Alignment, error) {
	a := &Alignment{
		Records: make([]dataset.Record, 0, len(rows)),
		Width:   remoteWidth,
	}

	if remoteWidth != len(header) {
		if expectedWidth <= 0 {
			return nil, fmt.Errorf("%w: invalid expected width %d", ErrSchemaMismatch, expectedWidth)
		}
		if remoteWidth < expectedWidth || len(header) < expectedWidth {
			return nil, fmt.Errorf("%w: remote has %d columns, local has %d, expected at least %d",
				ErrSchemaMismatch, remoteWidth, len(header), expectedWidth)
		}
		a.Truncated = true
		a.Width = expectedWidth
	}

	for _, k := range rows {
		rec := make(dataset.Record, len(header))
		for i := 0; i < a.Width; i++ {
			rec[i] = k.Record.Cell(i)
		}
		a.Records = append(a.Records, rec)
	}

	return a, nil
}

// Merge places the new records ahead of the local ones under the local header. The issue
// is the first column on both sides; its cells are rewritten in canonical form, so cells
// that do not hold an issue become empty.
func Merge(newRecords []dataset.Record, local *dataset.Dataset) *dataset.Dataset {
	merged := &dataset.Dataset{
		Header:  append([]string(nil), local.Header...),
		Records: make([]dataset.Record, 0, len(newRecords)+local.Len()),
	}

	add := func(r dataset.Record) {
		rec := r.Clone()
		if len(rec) > 0 {
			rec[0] = dataset.ParseIssue(rec[0]).String()
		}
		merged.Append(rec)
	}
	for _, r := range newRecords {
		add(r)
	}
	for _, r := range local.Records {
		add(r)
	}

	return merged
}

// Issues returns the issues of the given rows in order
func Issues(rows []Keyed) []int64 {
	out := make([]int64, len(rows))
	for i, k := range rows {
		out[i] = k.Issue.Value
	}
	return out
}
