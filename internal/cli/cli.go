package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pfrederiksen/draw-sync/internal/config"
	"github.com/pfrederiksen/draw-sync/internal/logger"
	"github.com/pfrederiksen/draw-sync/internal/scraper"
	"github.com/pfrederiksen/draw-sync/internal/storage"
	"github.com/pfrederiksen/draw-sync/internal/syncer"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

type options struct {
	configPath    string
	storePath     string
	sourceURL     string
	limit         int
	keyColumn     string
	expectedWidth int
	timeout       string
	logLevel      string
	format        string
	dryRun        bool
	verbose       bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}
	defaults := config.NewDefault()

	cmd := &cobra.Command{
		Use:   "draw-sync",
		Short: "Append newly published lottery draws to a local CSV history",
		Long: `A CLI tool that brings a local draw history CSV up to date.
It reads the newest issue in the local file, fetches the draw history page, and
prepends every draw with a newer issue. Nothing is written when there is nothing new.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a TOML config file")
	cmd.Flags().StringVar(&opts.storePath, "store", defaults.StorePath, "Local draw history CSV file")
	cmd.Flags().StringVar(&opts.sourceURL, "url", defaults.SourceURL, "Draw history page URL")
	cmd.Flags().IntVar(&opts.limit, "limit", defaults.Limit, "Number of recent draws to request (0 keeps the URL as is)")
	cmd.Flags().StringVar(&opts.keyColumn, "key-column", defaults.KeyColumn, "Header label of the issue column")
	cmd.Flags().IntVar(&opts.expectedWidth, "width", defaults.ExpectedWidth, "Columns kept when remote and local widths differ")
	cmd.Flags().StringVar(&opts.timeout, "timeout", defaults.Timeout, "HTTP timeout")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	cmd.Flags().StringVar(&opts.format, "format", string(FormatText), "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report new draws without writing the store")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose output and debug logging")

	return cmd
}

// resolveConfig layers defaults, the config file and explicitly set flags
func resolveConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.NewDefault()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.StorePath = opts.storePath
	}
	if flags.Changed("url") {
		cfg.SourceURL = opts.sourceURL
	}
	if flags.Changed("limit") {
		cfg.Limit = opts.limit
	}
	if flags.Changed("key-column") {
		cfg.KeyColumn = opts.keyColumn
	}
	if flags.Changed("width") {
		cfg.ExpectedWidth = opts.expectedWidth
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if opts.verbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runSync is the main command logic
func runSync(cmd *cobra.Command, opts *options) error {
	format := OutputFormat(strings.ToLower(opts.format))
	if !format.Valid() {
		return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'yaml')", opts.format)
	}

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	log := logger.New(level, cmd.ErrOrStderr())
	logger.SetDefault(log)

	store, err := storage.New(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	pageURL, err := cfg.URL()
	if err != nil {
		return fmt.Errorf("building source url: %w", err)
	}
	timeout, _ := cfg.TimeoutDuration()
	sc := scraper.New(pageURL,
		scraper.WithTimeout(timeout),
		scraper.WithUserAgent(cfg.UserAgent),
	)

	// The lock file is only created next to an existing store; a run without local
	// state must not leave anything behind.
	exists, err := store.Exists()
	if err != nil {
		return err
	}
	if exists {
		if err := store.Lock(); err != nil {
			return err
		}
		defer func() {
			if err := store.Unlock(); err != nil {
				log.Warn("Releasing store lock failed", logger.Fields{"store": store.Path()})
			}
		}()
	}

	runner := syncer.New(store, sc,
		syncer.WithKeyColumn(cfg.KeyColumn),
		syncer.WithExpectedWidth(cfg.ExpectedWidth),
		syncer.WithDryRun(opts.dryRun),
		syncer.WithLogger(log),
	)

	result, err := runner.Run(cmd.Context())
	if opts.verbose {
		log.Debug("Metrics", logger.Fields{"metrics": logger.GetMetricsSnapshot()})
	}
	if err != nil {
		return err
	}

	if err := WriteOutput(cmd.OutOrStdout(), result, format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	return nil
}

// Execute runs the CLI
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the root command and maps the result to an exit code
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var pe *syncer.PhaseError
		if errors.As(err, &pe) {
			fmt.Fprintf(stderr, "Error during %s: %v\n", pe.Phase, pe.Err)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return ExitError
	}
	return ExitSuccess
}
