// Package cli implements the command-line interface for draw-sync.
//
// The cli package provides the Cobra-based root command, resolves settings from defaults,
// an optional TOML config file and flags, and coordinates the storage, scraper and syncer
// packages for one run. The run report is written to stdout as text, JSON or YAML; logs go
// to stderr.
package cli
