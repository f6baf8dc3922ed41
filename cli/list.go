package cli

// This file contains the list command for displaying previous test runs.

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/hiltest/hiltest/history"
	"github.com/hiltest/hiltest/model"
	"github.com/hiltest/hiltest/report"
	"github.com/hiltest/hiltest/shuffle"
)

func (a *App) list(ctx *cli.Context) error {
	filterPath := ctx.String("path")
	limit := ctx.Int("limit")
	out := a.stdout

	root, err := history.GetRoot()
	if err != nil {
		return err
	}

	entries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	// Apply path filter if specified
	var filtered []history.Entry
	for _, entry := range entries {
		if filterPath == "" || strings.Contains(entry.History.WorkDir, filterPath) {
			filtered = append(filtered, entry)
		}
	}

	if len(filtered) == 0 {
		if filterPath != "" {
			fmt.Fprintf(out, "No history entries found matching path: %s\n", filterPath)
		} else {
			fmt.Fprintln(out, "No history entries found")
		}
		return nil
	}

	history.SortNewestFirst(filtered)

	displayRuns := filtered
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Fprintf(out, "\n=== History (%d total) ===\n\n", len(filtered))

	for _, entry := range displayRuns {
		h := entry.History
		counts := resultCounts(h.Records)

		status := "✓"
		if h.ExitCode != 0 || counts[model.ResultOK] != len(h.Records) {
			status = "✗"
		}

		fmt.Fprintf(out, "%s  %s (%s)  [%s]  exit=%d  id=%s\n",
			status,
			h.Timestamp.Format("2006-01-02 15:04:05"),
			humanize.Time(h.Timestamp),
			h.Duration.Round(time.Millisecond),
			h.ExitCode,
			short(h.ID),
		)
		if len(h.Args) > 1 {
			fmt.Fprintf(out, "   Args: %s\n", strings.Join(h.Args[1:], " "))
		}
		if h.WorkDir != "" {
			fmt.Fprintf(out, "   Path: %s\n", h.WorkDir)
		}
		if h.Git != nil && h.Git.Commit != "" {
			fmt.Fprintf(out, "   Commit: %s", short(h.Git.Commit))
			if h.Git.Branch != "" {
				fmt.Fprintf(out, " (%s)", h.Git.Branch)
			}
			fmt.Fprintln(out)
		}
		if len(h.Records) > 0 {
			fmt.Fprintf(out, "   %s\n", report.Counts(h.Records))
		}
		if h.Shuffle != nil {
			fmt.Fprintf(out, "   Seed: %s\n", shuffle.Format(h.Shuffle.Seed))
		}
		for _, artifact := range h.Artifacts {
			fmt.Fprintf(out, "   %s: %s (%s)\n", artifact.Type, artifact.File, humanize.Bytes(artifact.Size))
		}
		fmt.Fprintf(out, "   %s\n\n", entry.FullPath)
	}

	fmt.Fprintf(out, "\nView results: %s view <ID>\n", AppName)

	return nil
}
