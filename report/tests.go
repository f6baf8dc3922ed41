package report

// tests.go contains the test catalog automation report.

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hiltest/hiltest/model"
)

// progressSaturation marks the automation goal on progress bars, in percent.
const progressSaturation = 75

// Tests renders every test whose id matches filter (all when nil). With
// coverage set, automation coverage tables follow: totals and per test id
// prefix (the id without its last "_" component).
func Tests(tests []model.TestCase, filter *regexp.Regexp, coverage bool) string {
	t := newTable()
	t.AppendHeader(table.Row{"id", "automated", "description", "peripherals", "host_test", "duration"})
	t.SetColumnConfigs([]table.ColumnConfig{{Name: "duration", Align: text.AlignRight}})

	var prefixes []string
	automated := make(map[string]int)
	all := make(map[string]int)
	countAutomated, countAll := 0, 0

	for _, tc := range tests {
		if filter != nil && !filter.MatchString(tc.ID) {
			continue
		}
		t.AppendRow(table.Row{
			tc.ID, tc.Automated, tc.Description, dash(strings.Join(tc.Peripherals, ",")), dash(tc.HostTest), tc.NominalDuration(),
		})

		prefix := idPrefix(tc.ID)
		if _, ok := all[prefix]; !ok {
			prefixes = append(prefixes, prefix)
		}
		all[prefix]++
		countAll++
		if tc.Automated {
			automated[prefix]++
			countAutomated++
		}
	}

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n\n")
	if !coverage || countAll == 0 {
		return b.String()
	}

	total := newTable()
	total.AppendHeader(table.Row{"automated", "all", "percent [%]", "progress"})
	p := percent(countAutomated, countAll)
	total.AppendRow(table.Row{countAutomated, countAll, p, ProgressBar(p, progressSaturation)})
	b.WriteString("Automation coverage:\n")
	b.WriteString(total.Render())
	b.WriteString("\n\n")

	byPrefix := newTable()
	byPrefix.AppendHeader(table.Row{"id", "automated", "all", "percent [%]", "progress"})
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		p := percent(automated[prefix], all[prefix])
		byPrefix.AppendRow(table.Row{prefix, automated[prefix], all[prefix], p, "[" + ProgressBar(p, progressSaturation) + "]"})
	}
	b.WriteString("Test automation coverage:\n")
	b.WriteString(byPrefix.Render())
	b.WriteString("\n\n")
	return b.String()
}

// ProgressBar renders percent as a 50 character bar of '#' and '.'. A
// saturation above zero inserts a mark at that percentage, '!' while the
// bar is below 78% and '|' from there on.
func ProgressBar(percent float64, saturation int) string {
	step := int(percent / 2)
	if step > 50 {
		step = 50
	}
	if step < 0 {
		step = 0
	}
	bar := strings.Repeat("#", step) + strings.Repeat(".", 50-step)

	if saturation > 0 {
		mark := "|"
		if bar[38] == '.' {
			mark = "!"
		}
		pos := saturation / 2
		if pos > len(bar) {
			pos = len(bar)
		}
		bar = bar[:pos] + mark + bar[pos:]
	}
	return bar
}

func percent(n, total int) float64 {
	return math.Round(1000*float64(n)/float64(total)) / 10
}

func idPrefix(id string) string {
	parts := strings.Split(id, "_")
	return strings.Join(parts[:len(parts)-1], "_")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
