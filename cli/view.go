package cli

// This file contains the view command for displaying test results from history.

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/hiltest/hiltest/history"
	"github.com/hiltest/hiltest/model"
	"github.com/hiltest/hiltest/shuffle"
)

func removeFirstDashDash(in []string) []string {
	if len(in) > 0 && in[0] == "--" {
		return in[1:]
	}
	return in
}

func parseViewArgs(in []string) (idArg string, displayArgs []string) {
	if len(in) == 0 {
		return "0", nil
	}

	// If first arg is "--", use default "0" and rest are display args
	if in[0] == "--" {
		return "0", in[1:]
	}

	// A negative index is "-" followed by only digits (e.g., "-1", "-2"),
	// anything else starting with "-" is a display flag (e.g., "-t")
	if len(in[0]) > 1 && in[0][0] == '-' {
		if _, err := strconv.ParseInt(in[0], 10, 64); err != nil {
			return "0", in
		}
	}

	// First arg is the ID/index, rest are display args (with optional "--" removed)
	return in[0], removeFirstDashDash(in[1:])
}

// viewOptions are the display flags accepted after the run selector.
type viewOptions struct {
	byTarget bool
}

func parseViewOptions(args []string) (viewOptions, error) {
	var opts viewOptions
	for _, arg := range args {
		switch arg {
		case "-t", "--test-summary":
			opts.byTarget = true
		default:
			return opts, fmt.Errorf("unknown view option: %s", arg)
		}
	}
	return opts, nil
}

func (a *App) view(ctx *cli.Context) error {
	arg, displayArgs := parseViewArgs(ctx.Args().Slice())
	opts, err := parseViewOptions(displayArgs)
	if err != nil {
		return err
	}

	root, err := history.GetRoot()
	if err != nil {
		return err
	}

	entries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no history entries found")
	}

	history.SortNewestFirst(entries)
	entry, err := history.Find(entries, arg)
	if err != nil {
		return err
	}

	a.displayHistoryEntry(entry, opts)
	return nil
}

func (a *App) displayHistoryEntry(entry *history.Entry, opts viewOptions) {
	h := entry.History
	out := a.stdout

	fmt.Fprintf(out, "=== Test Run: %s ===\n", short(h.ID))
	fmt.Fprintf(out, "Time: %s\n", h.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Duration: %s\n", h.Duration)
	fmt.Fprintf(out, "Exit Code: %d\n", h.ExitCode)
	if h.WorkDir != "" {
		fmt.Fprintf(out, "Working Dir: %s\n", h.WorkDir)
	}
	if h.Git != nil && h.Git.Commit != "" {
		fmt.Fprintf(out, "Git Commit: %s", short(h.Git.Commit))
		if h.Git.Branch != "" {
			fmt.Fprintf(out, " (%s)", h.Git.Branch)
		}
		fmt.Fprintln(out)
	}
	if h.Matrix != nil {
		for _, target := range h.Matrix.TargetNames() {
			fmt.Fprintf(out, "Target: %s %v\n", target, h.Matrix.Targets[target])
		}
	}
	if h.Shuffle != nil {
		fmt.Fprintf(out, "Shuffle Seed: %s\n", shuffle.Format(h.Shuffle.Seed))
	}
	for _, artifact := range h.Artifacts {
		fmt.Fprintf(out, "%s: %s (%s)\n", artifact.Type, artifact.File, humanize.Bytes(artifact.Size))
	}
	fmt.Fprintln(out)

	if len(h.Records) == 0 {
		fmt.Fprintln(out, "No test results recorded")
		fmt.Fprintf(out, "History directory: %s\n", entry.FullPath)
		return
	}

	a.printSummary(&h, opts.byTarget)
}

// short returns the first 8 characters of an identifier.
func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resultCounts counts the records per result code.
func resultCounts(records []model.Record) map[model.ResultCode]int {
	counts := make(map[model.ResultCode]int)
	for _, rec := range records {
		counts[rec.Result]++
	}
	return counts
}
