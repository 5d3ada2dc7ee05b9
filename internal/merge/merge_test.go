package merge

import (
	"fmt"
	"testing"

	"github.com/pfrederiksen/draw-sync/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDataset(header []string, rows ...dataset.Record) *dataset.Dataset {
	ds := dataset.New(header)
	for _, r := range rows {
		ds.Append(r)
	}
	return ds
}

func keyed(issue int64, cells ...string) Keyed {
	rec := append(dataset.Record{fmt.Sprint(issue)}, cells...)
	return Keyed{Issue: dataset.NewIssue(issue), Record: rec}
}

func TestNormalizeRemote(t *testing.T) {
	remote := newDataset(dataset.PositionalHeader(2),
		dataset.Record{"期号", "红球"},
		dataset.Record{"24002", "a"},
		dataset.Record{"", "b"},
		dataset.Record{"24001", "c"},
		dataset.Record{"合计", "d"},
	)

	got := NormalizeRemote(remote)

	require.Len(t, got, 2)
	assert.Equal(t, []int64{24002, 24001}, Issues(got))
	assert.Equal(t, dataset.Record{"24001", "c"}, got[1].Record)
}

func TestFilter(t *testing.T) {
	rows := []Keyed{keyed(103), keyed(102), keyed(101), keyed(100)}

	tests := []struct {
		name string
		max  dataset.Issue
		want []int64
	}{
		{"strictly greater", dataset.NewIssue(101), []int64{103, 102}},
		{"nothing newer", dataset.NewIssue(103), []int64{}},
		{"everything newer", dataset.NewIssue(1), []int64{103, 102, 101, 100}},
		{"absent max", dataset.Issue{}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Issues(Filter(rows, tt.max)))
		})
	}
}

func TestAlign_MatchingWidth(t *testing.T) {
	header := []string{"期号", "a", "b", "c"}
	rows := []Keyed{keyed(103, "x", "y", "z")}

	a, err := Align(rows, 4, header, ExpectedWidth)
	require.NoError(t, err)

	assert.False(t, a.Truncated)
	assert.Equal(t, 4, a.Width)
	assert.Equal(t, []dataset.Record{{"103", "x", "y", "z"}}, a.Records)
}

func TestAlign_TruncatesWiderRemote(t *testing.T) {
	header := make([]string, 15)
	for i := range header {
		header[i] = fmt.Sprintf("col%d", i)
	}
	cells := make([]string, 19)
	for i := range cells {
		cells[i] = fmt.Sprintf("v%d", i+1)
	}

	a, err := Align([]Keyed{keyed(200, cells...)}, 20, header, ExpectedWidth)
	require.NoError(t, err)

	assert.True(t, a.Truncated)
	assert.Equal(t, 15, a.Width)
	require.Len(t, a.Records, 1)
	assert.Len(t, a.Records[0], 15)
	assert.Equal(t, "200", a.Records[0][0])
	assert.Equal(t, "v14", a.Records[0][14])
}

func TestAlign_PadsWiderLocal(t *testing.T) {
	header := make([]string, 17)
	for i := range header {
		header[i] = fmt.Sprintf("col%d", i)
	}
	cells := make([]string, 19)
	for i := range cells {
		cells[i] = "v"
	}

	a, err := Align([]Keyed{keyed(200, cells...)}, 20, header, ExpectedWidth)
	require.NoError(t, err)

	require.Len(t, a.Records[0], 17)
	assert.Equal(t, "v", a.Records[0][14])
	assert.Equal(t, "", a.Records[0][15])
	assert.Equal(t, "", a.Records[0][16])
}

func TestAlign_Mismatch(t *testing.T) {
	tests := []struct {
		name        string
		remoteWidth int
		localWidth  int
		expected    int
	}{
		{"remote narrower than expected", 14, 16, 15},
		{"local narrower than expected", 20, 10, 15},
		{"invalid expected width", 3, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := make([]string, tt.localWidth)
			_, err := Align([]Keyed{keyed(1)}, tt.remoteWidth, header, tt.expected)
			assert.ErrorIs(t, err, ErrSchemaMismatch)
		})
	}
}

func TestMerge_NewRowsFirst(t *testing.T) {
	local := newDataset([]string{"期号", "a", "b", "c"},
		dataset.Record{"101", "l1", "l2", "l3"},
		dataset.Record{"100", "m1", "m2", "m3"},
		dataset.Record{"99", "n1", "n2", "n3"},
	)
	remote := newDataset(dataset.PositionalHeader(4),
		dataset.Record{"103", "r1", "r2", "r3"},
		dataset.Record{"102", "s1", "s2", "s3"},
		dataset.Record{"101", "CHANGED", "", ""},
		dataset.Record{"100", "", "", ""},
	)

	newRows := Filter(NormalizeRemote(remote), local.MaxIssue(0))
	a, err := Align(newRows, remote.Width(), local.Header, ExpectedWidth)
	require.NoError(t, err)

	merged := Merge(a.Records, local)

	assert.Equal(t, local.Header, merged.Header)
	assert.Equal(t, []dataset.Record{
		{"103", "r1", "r2", "r3"},
		{"102", "s1", "s2", "s3"},
		{"101", "l1", "l2", "l3"},
		{"100", "m1", "m2", "m3"},
		{"99", "n1", "n2", "n3"},
	}, merged.Records)
}

func TestMerge_CanonicalIssues(t *testing.T) {
	local := newDataset([]string{"期号", "a"},
		dataset.Record{"101.0", "x"},
		dataset.Record{"bad", "y"},
	)

	merged := Merge([]dataset.Record{{" 102 ", "n"}}, local)

	assert.Equal(t, []dataset.Record{
		{"102", "n"},
		{"101", "x"},
		{"", "y"},
	}, merged.Records)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	local := newDataset([]string{"期号", "a"}, dataset.Record{"100.0", "x"})
	newRecords := []dataset.Record{{"101", "n"}}

	merged := Merge(newRecords, local)
	merged.Records[0][1] = "changed"
	merged.Header[0] = "changed"

	assert.Equal(t, "100.0", local.Records[0][0])
	assert.Equal(t, "n", newRecords[0][1])
	assert.Equal(t, "期号", local.Header[0])
}
