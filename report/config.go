package report

// config.go contains the device registry and matrix configuration reports.

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hiltest/hiltest/model"
)

// TargetCatalog provides the toolchains each known target supports.
type TargetCatalog interface {
	TargetNames() []string
	SupportedToolchains(target string) []string
}

// Devices renders one row per device with a column for every property set
// on any device.
func Devices(devices []model.Device) string {
	props := make([]map[string]interface{}, len(devices))
	used := make(map[string]bool)
	for i := range devices {
		props[i] = devices[i].Properties()
		for k := range props[i] {
			used[k] = true
		}
	}

	header := table.Row{"index"}
	var cols []string
	for _, k := range model.DevicePropertyOrder {
		if used[k] {
			cols = append(cols, k)
			header = append(header, k)
		}
	}

	t := newTable()
	t.AppendHeader(header)
	for i, d := range devices {
		row := table.Row{d.Index}
		for _, col := range cols {
			row = append(row, cell(props[i][col]))
		}
		t.AppendRow(row)
	}
	return t.Render()
}

func cell(v interface{}) interface{} {
	switch v := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(v, ", ")
	}
	return v
}

// Matrix renders the requested (target, toolchain) pairs. "Yes" marks a
// requested pair, "*" a pair the target does not support and a "*" suffix on
// the target name a target unknown to cat. Conflicts are listed below the
// table.
func Matrix(spec model.MatrixSpec, cat TargetCatalog) string {
	known := make(map[string]bool)
	for _, name := range cat.TargetNames() {
		known[name] = true
	}

	toolchains := spec.Toolchains()
	header := table.Row{"mcu"}
	for _, tc := range toolchains {
		header = append(header, tc)
	}

	t := newTable()
	t.AppendHeader(header)

	var conflicts strings.Builder
	for _, target := range spec.TargetNames() {
		supported := cat.SupportedToolchains(target)
		requested := spec.Targets[target]

		name := target
		if !known[target] {
			name += "*"
		}
		row := table.Row{name}
		var conflicting []string
		for _, tc := range toolchains {
			if !contains(requested, tc) {
				row = append(row, "-")
				continue
			}
			if contains(supported, tc) {
				row = append(row, "Yes")
				continue
			}
			conflicting = append(conflicting, tc)
			row = append(row, "Yes*")
		}
		t.AppendRow(row)

		if len(conflicting) == 0 {
			continue
		}
		if !known[target] {
			fmt.Fprintf(&conflicts, "\t* Target %s unknown\n", target)
		}
		suffix := ""
		if len(conflicting) > 1 {
			suffix = "s"
		}
		fmt.Fprintf(&conflicts, "\t* Target %s does not support %s toolchain%s\n", target, strings.Join(conflicting, ", "), suffix)
	}

	result := t.Render()
	if conflicts.Len() > 0 {
		result += "\nToolchain conflicts:\n" + conflicts.String()
	}
	return result
}

// Toolchains renders the toolchains every known target supports.
func Toolchains(cat TargetCatalog) string {
	targets := cat.TargetNames()
	all := make(map[string][]string)
	for _, target := range targets {
		for _, tc := range cat.SupportedToolchains(target) {
			all[tc] = nil
		}
	}
	toolchains := model.SortedKeys(all)

	header := table.Row{"Target"}
	for _, tc := range toolchains {
		header = append(header, tc)
	}

	t := newTable()
	t.AppendHeader(header)
	for _, target := range targets {
		supported := cat.SupportedToolchains(target)
		row := table.Row{target}
		for _, tc := range toolchains {
			if contains(supported, tc) {
				row = append(row, "Supported")
			} else {
				row = append(row, "-")
			}
		}
		t.AppendRow(row)
	}
	return t.Render()
}
