package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pfrederiksen/draw-sync/internal/syncer"
	"gopkg.in/yaml.v3"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// Valid reports whether the format is supported
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *syncer.Result, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatYAML:
		return writeYAML(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *syncer.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeYAML outputs results as YAML
func writeYAML(w io.Writer, result *syncer.Result) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(result); err != nil {
		return err
	}
	return encoder.Close()
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *syncer.Result, verbose bool) error {
	if verbose {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
		fmt.Fprintf(w, "Store: %s\n", result.StorePath)
		if result.SourceURL != "" {
			fmt.Fprintf(w, "Source: %s\n", result.SourceURL)
		}
	}

	if result.Outcome == syncer.OutcomeNoLocalState {
		fmt.Fprintf(w, "Local store %s does not exist, incremental update not possible.\n", result.StorePath)
		return nil
	}

	latest := "none"
	if result.MaxIssue != nil {
		latest = strconv.FormatInt(*result.MaxIssue, 10)
	}
	if verbose {
		fmt.Fprintf(w, "Local rows: %d (latest issue %s)\n", result.LocalRows, latest)
		fmt.Fprintf(w, "Remote rows with an issue: %d\n", result.RemoteRows)
	}

	if result.NewCount() == 0 {
		fmt.Fprintf(w, "No new draws since issue %s.\n", latest)
		return nil
	}

	issues := make([]string, len(result.NewIssues))
	for i, issue := range result.NewIssues {
		issues[i] = strconv.FormatInt(issue, 10)
	}
	fmt.Fprintf(w, "Found %d new %s: %s\n", result.NewCount(), plural(result.NewCount(), "draw", "draws"),
		strings.Join(issues, ", "))

	if result.Truncated {
		fmt.Fprintln(w, "Warning: remote and local column counts differ, new rows were aligned by position.")
	}

	if result.Outcome == syncer.OutcomeDryRun {
		fmt.Fprintf(w, "Dry run: %s not written (would hold %d rows).\n", result.StorePath, result.TotalRows)
		return nil
	}

	fmt.Fprintf(w, "Updated %s: %d rows.\n", result.StorePath, result.TotalRows)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
