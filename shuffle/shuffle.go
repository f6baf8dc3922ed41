// Package shuffle produces seed reproducible test orderings.
package shuffle

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
)

// precision is the number of decimals a seed is rounded to.
const precision = 1e10

// Seed returns the seed parsed from s, or a fresh random one when s is empty
// or not a number. The result is rounded to ten decimals so that a seed
// printed with Format reproduces the same ordering.
func Seed(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		f = rand.Float64()
	}
	return round(f)
}

func round(f float64) float64 {
	return math.Round(f*precision) / precision
}

// Permute returns a copy of ids shuffled deterministically by seed.
func Permute(ids []string, seed float64) []string {
	out := make([]string, len(ids))
	copy(out, ids)

	bits := math.Float64bits(round(seed))
	r := rand.New(rand.NewPCG(bits, bits^0x9e3779b97f4a7c15))
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Format renders a seed the way it is reported.
func Format(seed float64) string {
	return fmt.Sprintf("%.10f", seed)
}

// ShuffleFlag returns the flag enabling shuffled execution.
func ShuffleFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "shuffle",
		Usage: "Shuffle the order in which tests are executed",
	}
}

// SeedFlag returns the flag carrying an explicit shuffle seed.
func SeedFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "shuffle-seed",
		Usage: "Shuffle seed (e.g., 0.4321958730) to reproduce an earlier ordering",
	}
}
