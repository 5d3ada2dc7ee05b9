package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pfrederiksen/draw-sync/internal/dataset"
	"golang.org/x/net/html/charset"
)

const (
	HistoryURL   = "https://datachart.500.com/dlt/history/newinc/history.php"
	DefaultLimit = 50
	UserAgent    = "draw-sync/1.0 (github.com/pfrederiksen/draw-sync)"
	Timeout      = 30 * time.Second
)

var (
	// ErrNoTable is returned when the page contains no <table> element
	ErrNoTable = errors.New("no table found in page")
	// ErrEmptyTable is returned when the first table has no rows
	ErrEmptyTable = errors.New("table has no rows")
)

// Scraper handles fetching and parsing the draw history table
type Scraper struct {
	client    *http.Client
	url       string
	userAgent string
}

// Option configures a Scraper
type Option func(*Scraper)

// WithTimeout sets the timeout of the scraper's HTTP client. Each Scraper owns its client.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		s.client.Timeout = d
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		s.userAgent = ua
	}
}

// New creates a new Scraper for the given page URL
func New(pageURL string, opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url:       pageURL,
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the page URL the scraper fetches
func (s *Scraper) URL() string {
	return s.url
}

// BuildURL sets the result-count limit query parameter on base
func BuildURL(base string, limit int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	if limit > 0 {
		q := u.Query()
		q.Set("limit", strconv.Itoa(limit))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// FetchTable fetches the page and returns its first table as a dataset with positional labels
func (s *Scraper) FetchTable(ctx context.Context) (*dataset.Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}

	return ParseTable(body)
}
