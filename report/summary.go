// Package report renders run results and configuration as text tables.
package report

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"

	"github.com/hiltest/hiltest/model"
	"github.com/hiltest/hiltest/shuffle"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleDefault)
	t.Style().Format.Header = text.FormatDefault
	return t
}

// TestLine renders the result of one loop:
//
//	TargetTest::K64F::GCC_ARM::MBED_A1::Basic [OK] in 2.31 of 20 sec
func TestLine(rec model.Record, color bool) string {
	au := aurora.NewAurora(color)

	var result aurora.Value
	switch {
	case rec.Result == model.ResultOK:
		result = au.Green(rec.Result)
	case rec.Result.Reported():
		result = au.Red(rec.Result)
	default:
		result = au.Yellow(rec.Result)
	}

	name := strings.Join([]string{"TargetTest", rec.Target, rec.Toolchain, rec.TestID, rec.Description}, "::")
	return fmt.Sprintf("%s [%s] in %.2f of %d sec", name, result, rec.Elapsed, rec.Duration)
}

// Summary renders one row per record followed by the result counts and, when
// seed is set, the shuffle seed.
func Summary(records []model.Record, seed *float64) string {
	t := newTable()
	t.AppendHeader(table.Row{"Result", "Target", "Toolchain", "Test ID", "Test Description", "Elapsed Time (sec)", "Timeout (sec)", "Loops"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Elapsed Time (sec)", Align: text.AlignRight},
		{Name: "Timeout (sec)", Align: text.AlignRight},
	})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.Result, rec.Target, rec.Toolchain, rec.TestID, rec.Description,
			fmt.Sprintf("%.2f", rec.Elapsed), rec.Duration, rec.Loops,
		})
	}

	var b strings.Builder
	b.WriteString("Test summary:\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(Counts(records))
	b.WriteString("\n")
	if seed != nil {
		b.WriteString(SeedLine(*seed))
		b.WriteString("\n")
	}
	return b.String()
}

// Counts renders the number of records per result, skipping absent results:
//
//	Result: 3 OK / 1 TIMEOUT
func Counts(records []model.Record) string {
	counts := make(map[model.ResultCode]int)
	for _, rec := range records {
		counts[rec.Result]++
	}

	var parts []string
	for _, code := range model.ResultCodes {
		if n := counts[code]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, code))
		}
	}
	return "Result: " + strings.Join(parts, " / ")
}

// SeedLine renders the shuffle seed of a run.
func SeedLine(seed float64) string {
	return "Shuffle Seed: " + shuffle.Format(seed)
}

// ByTarget renders one test by toolchain table per target.
func ByTarget(records []model.Record, seed *float64) string {
	var b strings.Builder
	b.WriteString("Test summary:\n")

	for _, target := range unique(records, func(r model.Record) string { return r.Target }) {
		var toolchains []string
		results := make(map[string]map[string]model.ResultCode)
		descriptions := make(map[string]string)
		for _, rec := range records {
			if rec.Target != target {
				continue
			}
			if !contains(toolchains, rec.Toolchain) {
				toolchains = append(toolchains, rec.Toolchain)
			}
			if results[rec.TestID] == nil {
				results[rec.TestID] = make(map[string]model.ResultCode)
				descriptions[rec.TestID] = rec.Description
			}
			results[rec.TestID][rec.Toolchain] = rec.Result
		}
		sort.Strings(toolchains)

		header := table.Row{"Target", "Test ID", "Test Description"}
		for _, tc := range toolchains {
			header = append(header, tc)
		}

		t := newTable()
		t.AppendHeader(header)
		for _, id := range unique(records, func(r model.Record) string { return r.TestID }) {
			byToolchain, ok := results[id]
			if !ok {
				continue
			}
			row := table.Row{target, id, descriptions[id]}
			for _, tc := range toolchains {
				if res, ok := byToolchain[tc]; ok {
					row = append(row, res)
				} else {
					row = append(row, "-")
				}
			}
			t.AppendRow(row)
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	if seed != nil {
		b.WriteString(SeedLine(*seed))
		b.WriteString("\n")
	}
	return b.String()
}

func unique(records []model.Record, key func(model.Record) string) []string {
	seen := make(map[string][]string)
	for _, rec := range records {
		seen[key(rec)] = nil
	}
	return model.SortedKeys(seen)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
