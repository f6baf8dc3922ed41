package report

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hiltest/hiltest/model"
)

var records = []model.Record{
	{Result: model.ResultOK, Target: "K64F", Toolchain: "GCC_ARM", TestID: "MBED_A1", Description: "Basic", Elapsed: 2.314, Duration: 20, Loops: "1/1"},
	{Result: model.ResultTimeout, Target: "K64F", Toolchain: "ARM", TestID: "MBED_A1", Description: "Basic", Elapsed: 20.5, Duration: 20, Loops: "0/1"},
	{Result: model.ResultOK, Target: "LPC1768", Toolchain: "ARM", TestID: "MBED_A2", Description: "Semihost", Elapsed: 1, Duration: 10, Loops: "3/3"},
}

func TestTestLine(t *testing.T) {
	line := TestLine(records[0], false)
	assert.Equal(t, "TargetTest::K64F::GCC_ARM::MBED_A1::Basic [OK] in 2.31 of 20 sec", line)

	colored := TestLine(records[0], true)
	assert.Contains(t, colored, "\x1b[")
	assert.Contains(t, colored, "OK")
}

func TestTestLineColors(t *testing.T) {
	rec := records[0]

	rec.Result = model.ResultError
	assert.Contains(t, TestLine(rec, true), "\x1b[31m")

	rec.Result = model.ResultTimeout
	assert.Contains(t, TestLine(rec, true), "\x1b[33m")

	rec.Result = model.ResultOK
	assert.Contains(t, TestLine(rec, true), "\x1b[32m")
}

func TestCounts(t *testing.T) {
	assert.Equal(t, "Result: 2 OK / 1 TIMEOUT", Counts(records))
	assert.Equal(t, "Result: ", Counts(nil))
}

func TestSummary(t *testing.T) {
	out := Summary(records, nil)

	assert.True(t, strings.HasPrefix(out, "Test summary:\n"))
	assert.Contains(t, out, "Elapsed Time (sec)")
	assert.Contains(t, out, "20.50")
	assert.Contains(t, out, "Result: 2 OK / 1 TIMEOUT\n")
	assert.NotContains(t, out, "Shuffle Seed")

	seed := 0.123456789
	assert.Contains(t, Summary(records, &seed), "Shuffle Seed: 0.1234567890\n")
}

func TestByTarget(t *testing.T) {
	out := ByTarget(records, nil)

	assert.Contains(t, out, "Test Description")
	k64f := strings.Index(out, "| K64F")
	lpc := strings.Index(out, "| LPC1768")
	assert.True(t, k64f >= 0 && lpc > k64f, "targets are rendered in order")
	assert.Regexp(t, regexp.MustCompile(`\| K64F\s+\| MBED_A1\s+\| Basic\s+\| TIMEOUT\s+\| OK\s+\|`), out)
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("#", 25)+strings.Repeat(".", 25), ProgressBar(50, 0))

	bar := ProgressBar(50, 75)
	assert.Len(t, bar, 51)
	assert.Equal(t, byte('!'), bar[37])

	bar = ProgressBar(100, 75)
	assert.Equal(t, byte('|'), bar[37])
}

func TestTests(t *testing.T) {
	tests := []model.TestCase{
		{ID: "MBED_A1", Automated: true, Description: "Basic", HostTest: "echo", Duration: 20},
		{ID: "MBED_A2", Description: "Semihost"},
		{ID: "NET_1", Automated: true, Description: "TCP client", Peripherals: []string{"ethernet"}},
	}

	out := Tests(tests, nil, true)
	assert.Contains(t, out, "TCP client")
	assert.Contains(t, out, "ethernet")
	assert.Contains(t, out, "Automation coverage:\n")
	assert.Regexp(t, regexp.MustCompile(`\|\s+2 \|\s+3 \|\s+66\.7 \|`), out)
	assert.Regexp(t, regexp.MustCompile(`\| MBED\s+\|\s+1 \|\s+2 \|\s+50 \|`), out)

	filtered := Tests(tests, regexp.MustCompile(`^NET_`), false)
	assert.Contains(t, filtered, "NET_1")
	assert.NotContains(t, filtered, "MBED_A1")
	assert.NotContains(t, filtered, "Automation coverage")
}

type fakeCatalog map[string][]string

func (f fakeCatalog) TargetNames() []string { return model.SortedKeys(f) }

func (f fakeCatalog) SupportedToolchains(target string) []string { return f[target] }

func TestMatrix(t *testing.T) {
	cat := fakeCatalog{"K64F": {"ARM", "GCC_ARM"}}
	spec := model.MatrixSpec{Targets: map[string][]string{
		"K64F":  {"GCC_ARM", "IAR"},
		"NOPE1": {"ARM"},
	}}

	out := Matrix(spec, cat)
	assert.Regexp(t, regexp.MustCompile(`\| K64F\s+\| -\s+\| Yes\s+\| Yes\*\s+\|`), out)
	assert.Contains(t, out, "| NOPE1*")
	assert.Contains(t, out, "Toolchain conflicts:\n")
	assert.Contains(t, out, "\t* Target K64F does not support IAR toolchain\n")
	assert.Contains(t, out, "\t* Target NOPE1 unknown\n")
}

func TestToolchains(t *testing.T) {
	out := Toolchains(fakeCatalog{"K64F": {"ARM", "GCC_ARM"}, "LPC1768": {"ARM"}})
	assert.Regexp(t, regexp.MustCompile(`\| LPC1768\s+\| Supported\s+\| -\s+\|`), out)
}

func TestDevices(t *testing.T) {
	tout := 3
	devices := []model.Device{
		{Index: "1", MCU: "K64F", Disk: "/mnt/K64F", Port: "/dev/ttyACM0", Peripherals: []string{"ethernet", "can"}},
		{Index: "2", MCU: "LPC1768", Disk: "/mnt/LPC", Port: "/dev/ttyACM1", ResetTimeout: &tout},
	}

	out := Devices(devices)
	assert.Contains(t, out, "reset_tout")
	assert.Contains(t, out, "ethernet, can")
	assert.NotContains(t, out, "image_dest")
}
