package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/draw-sync/internal/dataset"
	"github.com/pfrederiksen/draw-sync/internal/logger"
	"github.com/pfrederiksen/draw-sync/internal/merge"
	"github.com/pfrederiksen/draw-sync/internal/storage"
)

// ErrKeyNotFirst is returned when the issue column is not the first column of the local store
var ErrKeyNotFirst = errors.New("issue column must be the first column")

// Store is the local dataset the runner updates
type Store interface {
	Path() string
	Load() (*dataset.Dataset, error)
	Save(*dataset.Dataset) error
}

// Fetcher returns the remote snapshot
type Fetcher interface {
	FetchTable(ctx context.Context) (*dataset.Dataset, error)
	URL() string
}

// Runner performs sync runs
type Runner struct {
	store         Store
	fetcher       Fetcher
	keyColumn     string
	expectedWidth int
	dryRun        bool
	log           *logger.Logger
	metrics       *logger.Metrics
	now           func() time.Time
}

// Option configures a Runner
type Option func(*Runner)

// WithKeyColumn sets the header label of the issue column
func WithKeyColumn(name string) Option {
	return func(r *Runner) {
		r.keyColumn = name
	}
}

// WithExpectedWidth sets the column count used when remote and local widths differ
func WithExpectedWidth(n int) Option {
	return func(r *Runner) {
		r.expectedWidth = n
	}
}

// WithDryRun makes the runner skip the final write
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithMetrics sets the metrics tracker
func WithMetrics(m *logger.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// New creates a Runner
func New(store Store, fetcher Fetcher, opts ...Option) *Runner {
	r := &Runner{
		store:         store,
		fetcher:       fetcher,
		keyColumn:     "期号",
		expectedWidth: merge.ExpectedWidth,
		log:           logger.Default(),
		metrics:       logger.DefaultMetrics(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one sync. A nil error means the run reached one of the outcomes; the local
// store has been written only when the outcome is OutcomeUpdated.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     uuid.Must(uuid.NewV7()).String(),
		StorePath: r.store.Path(),
		StartedAt: r.now().UTC(),
		NewIssues: make([]int64, 0),
	}
	log := r.log.With(logger.Fields{"run_id": res.RunID})
	r.metrics.IncrCounter("sync.runs")

	log.Info("Starting update check", logger.Fields{"store": res.StorePath})

	outcome, err := r.run(ctx, log, res)
	res.FinishedAt = r.now().UTC()
	r.metrics.RecordTiming("sync.total", res.FinishedAt.Sub(res.StartedAt))

	if err != nil {
		r.metrics.IncrCounter("sync.failures")
		var pe *PhaseError
		if errors.As(err, &pe) {
			log.Error("Sync failed", logger.Fields{"phase": string(pe.Phase)}, pe.Err)
		}
		return nil, err
	}

	res.Outcome = outcome
	log.Info("Sync finished", logger.Fields{
		"outcome":  string(outcome),
		"new_rows": res.NewCount(),
	})
	return res, nil
}

func (r *Runner) run(ctx context.Context, log *logger.Logger, res *Result) (Outcome, error) {
	// 1. load
	var local *dataset.Dataset
	var maxIssue dataset.Issue
	err := r.phase(PhaseLoad, func() error {
		var err error
		local, err = r.store.Load()
		if err != nil {
			return err
		}
		keyCol := local.Column(r.keyColumn)
		if keyCol < 0 {
			return fmt.Errorf("issue column %q not found in header", r.keyColumn)
		}
		// remote rows are aligned by position with the issue in column 0
		if keyCol != 0 {
			return fmt.Errorf("%w: %q is column %d", ErrKeyNotFirst, r.keyColumn, keyCol)
		}
		maxIssue = local.MaxIssue(keyCol)
		return nil
	})
	if errors.Is(err, storage.ErrNotFound) {
		log.Info("Local store does not exist, incremental update not possible", logger.Fields{
			"store": res.StorePath,
		})
		return OutcomeNoLocalState, nil
	}
	if err != nil {
		return "", err
	}

	res.LocalRows = local.Len()
	res.TotalRows = local.Len()
	if maxIssue.Valid {
		v := maxIssue.Value
		res.MaxIssue = &v
	}
	log.Info("Local store loaded", logger.Fields{
		"rows":      local.Len(),
		"max_issue": maxIssue.String(),
	})
	r.metrics.SetGauge("store.rows", float64(local.Len()))

	// 2. fetch
	res.SourceURL = r.fetcher.URL()
	var remote *dataset.Dataset
	err = r.phase(PhaseFetch, func() error {
		var err error
		remote, err = r.fetcher.FetchTable(ctx)
		return err
	})
	if err != nil {
		return "", err
	}

	// 3. normalize + 4. filter
	keyed := merge.NormalizeRemote(remote)
	res.RemoteRows = len(keyed)
	fresh := merge.Filter(keyed, maxIssue)
	log.Info("Remote snapshot fetched", logger.Fields{
		"url":        res.SourceURL,
		"table_rows": remote.Len(),
		"keyed_rows": len(keyed),
		"new_rows":   len(fresh),
	})

	if len(fresh) == 0 {
		log.Info("No new draws, nothing to update", nil)
		return OutcomeUpToDate, nil
	}

	// 5. align
	var aligned *merge.Alignment
	err = r.phase(PhaseAlign, func() error {
		var err error
		aligned, err = merge.Align(fresh, remote.Width(), local.Header, r.expectedWidth)
		return err
	})
	if err != nil {
		return "", err
	}
	if aligned.Truncated {
		log.Warn("Column count mismatch, aligned by position on the leading columns", logger.Fields{
			"remote_columns": remote.Width(),
			"local_columns":  local.Width(),
			"kept_columns":   aligned.Width,
		})
	}
	res.Truncated = aligned.Truncated

	// 6. merge
	var merged *dataset.Dataset
	err = r.phase(PhaseMerge, func() error {
		merged = merge.Merge(aligned.Records, local)
		if merged.Len() != local.Len()+len(fresh) {
			return fmt.Errorf("merged %d rows, expected %d", merged.Len(), local.Len()+len(fresh))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	res.NewIssues = merge.Issues(fresh)
	res.TotalRows = merged.Len()

	if r.dryRun {
		log.Info("Dry run, store not written", logger.Fields{"new_rows": len(fresh)})
		return OutcomeDryRun, nil
	}

	// 7. persist
	err = r.phase(PhasePersist, func() error {
		return r.store.Save(merged)
	})
	if err != nil {
		return "", err
	}

	r.metrics.AddCounter("sync.new_rows", int64(len(fresh)))
	r.metrics.SetGauge("store.rows", float64(merged.Len()))
	log.Info("Local store updated", logger.Fields{
		"new_rows":   len(fresh),
		"total_rows": merged.Len(),
	})

	return OutcomeUpdated, nil
}

// phase runs fn, records its duration and wraps its error with the phase name
func (r *Runner) phase(p Phase, fn func() error) error {
	start := r.now()
	err := fn()
	r.metrics.RecordTiming("sync."+string(p), r.now().Sub(start))
	if err != nil {
		return &PhaseError{Phase: p, Err: err}
	}
	return nil
}
