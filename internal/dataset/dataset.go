package dataset

import (
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Record is one row of a dataset, cells in header order
type Record []string

// Cell returns the cell at index i, or "" when the record is shorter than i+1
func (r Record) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Clone returns a copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// Dataset is an ordered sequence of records with a header naming each column
type Dataset struct {
	Header  []string
	Records []Record
}

// New creates a dataset with the given header. Labels are NFC-normalized.
func New(header []string) *Dataset {
	h := make([]string, len(header))
	for i, label := range header {
		h[i] = norm.NFC.String(label)
	}
	return &Dataset{
		Header:  h,
		Records: make([]Record, 0),
	}
}

// PositionalHeader returns the labels "0".."n-1", used for tables whose own labels are ignored
func PositionalHeader(n int) []string {
	h := make([]string, n)
	for i := range h {
		h[i] = strconv.Itoa(i)
	}
	return h
}

// Width returns the number of columns named by the header
func (d *Dataset) Width() int {
	return len(d.Header)
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Append adds a record to the end of the dataset
func (d *Dataset) Append(r Record) {
	d.Records = append(d.Records, r)
}

// Column returns the index of the column with the given label, or -1
func (d *Dataset) Column(name string) int {
	name = norm.NFC.String(name)
	for i, label := range d.Header {
		if label == name {
			return i
		}
	}
	return -1
}

// Issues returns the coerced issue of every record, read from column col
func (d *Dataset) Issues(col int) []Issue {
	issues := make([]Issue, len(d.Records))
	for i, r := range d.Records {
		issues[i] = ParseIssue(r.Cell(col))
	}
	return issues
}

// MaxIssue returns the largest valid issue in column col. The result is absent when no
// record carries a valid issue.
func (d *Dataset) MaxIssue(col int) Issue {
	var max Issue
	for _, issue := range d.Issues(col) {
		if !issue.Valid {
			continue
		}
		if !max.Valid || issue.Value > max.Value {
			max = issue
		}
	}
	return max
}
