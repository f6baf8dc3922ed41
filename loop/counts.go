package loop

// counts.go contains utilities for parsing loop count options.

import (
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
)

// Counts holds the number of loops per test.
type Counts struct {
	// Loops for tests without an override, at least 1
	Global int
	// Per test overrides
	PerTest map[string]int
}

// ParseCounts parses a global loop count and a "ID=N,ID=N" override list.
// A global count below 1 becomes 1. Malformed overrides are ignored.
func ParseCounts(global int, overrides string) Counts {
	c := Counts{Global: global, PerTest: map[string]int{}}
	if c.Global < 1 {
		c.Global = 1
	}

	for _, entry := range strings.Split(overrides, ",") {
		id, n, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok || id == "" {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			continue
		}
		c.PerTest[strings.TrimSpace(id)] = count
	}
	return c
}

// For returns the loop count for testID.
func (c Counts) For(testID string) int {
	if n, ok := c.PerTest[testID]; ok {
		return n
	}
	if c.Global < 1 {
		return 1
	}
	return c.Global
}

// GlobalLoopsFlag returns the global loop count flag.
func GlobalLoopsFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "global-loops",
		Usage: "Number of times every test is repeated",
	}
}

// LoopsFlag returns the per test loop count flag.
func LoopsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "loops",
		Usage: "Per test loop counts (e.g., \"MBED_A1=5,MBED_A2=3\")",
	}
}
