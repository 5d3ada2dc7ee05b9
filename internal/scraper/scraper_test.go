package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestParseTable_Fixture(t *testing.T) {
	f, err := os.Open("testdata/history.html")
	require.NoError(t, err)
	defer f.Close()

	ds, err := ParseTable(f)
	require.NoError(t, err)

	// two header rows plus three draws
	require.Equal(t, 5, ds.Len())
	assert.Equal(t, 15, ds.Width())

	header := ds.Records[0]
	assert.Equal(t, "期号", header[0])
	assert.Equal(t, []string{"前区", "前区", "前区", "前区", "前区"}, []string(header[1:6]))
	assert.Equal(t, "开奖日期", header[14])

	// rowspan cells carry into the second header row; those right of the
	// row's own cells are appended after them
	sub := ds.Records[1]
	assert.Equal(t, "期号", sub[0])
	assert.Equal(t, "注数", sub[1])
	assert.Equal(t, "奖池奖金(元)", sub[5])
	assert.Equal(t, "开奖日期", sub[7])
	assert.Equal(t, "", sub[14])

	first := ds.Records[2]
	assert.Equal(t, "24103", first[0])
	assert.Equal(t, "812,345,678", first[8])
	assert.Equal(t, "2024-09-09", first[14])
}

func TestParseTable(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    [][]string
		wantErr error
	}{
		{
			name: "ragged rows are padded",
			html: `<table><tr><td>1</td><td>a</td><td>b</td></tr><tr><td>2</td></tr></table>`,
			want: [][]string{{"1", "a", "b"}, {"2", "", ""}},
		},
		{
			name: "whitespace is collapsed",
			html: "<table><tr><td>\n  24001  </td><td> a  b </td></tr></table>",
			want: [][]string{{"24001", "a b"}},
		},
		{
			name: "nested table rows are not part of the outer table",
			html: `<table><tr><td>1</td><td><table><tr><td>x</td><td>y</td></tr></table></td></tr></table>`,
			want: [][]string{{"1", "xy"}},
		},
		{
			name: "only the first table is used",
			html: `<table><tr><td>first</td></tr></table><table><tr><td>second</td></tr></table>`,
			want: [][]string{{"first"}},
		},
		{
			name:    "no table",
			html:    `<p>nothing here</p>`,
			wantErr: ErrNoTable,
		},
		{
			name:    "empty table",
			html:    `<table></table>`,
			wantErr: ErrEmptyTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseTable(strings.NewReader(tt.html))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			got := make([][]string, 0, ds.Len())
			for _, r := range ds.Records {
				got = append(got, []string(r))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildURL(t *testing.T) {
	got, err := BuildURL(HistoryURL, 30)
	require.NoError(t, err)
	assert.Equal(t, HistoryURL+"?limit=30", got)

	got, err = BuildURL("https://example.com/h.php?limit=50&sort=0", 10)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/h.php?limit=10&sort=0", got)

	got, err = BuildURL("https://example.com/h.php", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/h.php", got)
}

func TestFetchTable_Success(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		http.ServeFile(w, r, "testdata/history.html")
	}))
	defer server.Close()

	ds, err := New(server.URL).FetchTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, UserAgent, gotUA)
	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, "24101", ds.Records[4][0])
}

func TestFetchTable_GBK(t *testing.T) {
	page := `<html><body><table><tr><th>期号</th><th>开奖日期</th></tr><tr><td>24001</td><td>2024-01-01</td></tr></table></body></html>`
	encoded, err := simplifiedchinese.GBK.NewEncoder().String(page)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		w.Write([]byte(encoded)) // nolint:errcheck
	}))
	defer server.Close()

	ds, err := New(server.URL).FetchTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "期号", ds.Records[0][0])
	assert.Equal(t, "开奖日期", ds.Records[0][1])
}

func TestFetchTable_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(server.URL).FetchTable(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 503")
}

func TestFetchTable_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := New(server.URL, WithTimeout(50*time.Millisecond)).FetchTable(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching page")
}

func TestFetchTable_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "testdata/history.html")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(server.URL).FetchTable(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWithTimeout_PerScraper(t *testing.T) {
	short := New("https://example.test", WithTimeout(time.Second))
	long := New("https://example.test")

	assert.Equal(t, time.Second, short.client.Timeout)
	assert.Equal(t, Timeout, long.client.Timeout)
	assert.NotSame(t, short.client, long.client)
}
