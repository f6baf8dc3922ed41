package hosttest

// args.go contains utilities for building host test adapter command lines.

import (
	"path/filepath"
	"strconv"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/urfave/cli/v2"
)

// Request describes one host test adapter invocation.
type Request struct {
	Name         string // Adapter name (e.g., "echo")
	Port         string // Device communication port
	Disk         string // Device storage mount path
	Duration     int    // Deadline in seconds
	Extra        string // Extra serial port, passed with -e
	ResetType    string // Reset strategy, passed with -r
	ResetTimeout *int   // Reset timeout in seconds, passed with -R
}

// BuildArgs builds the adapter arguments for req.
func BuildArgs(req Request) []string {
	args := []string{
		"-p", req.Port,
		"-d", req.Disk,
		"-t", strconv.Itoa(req.Duration),
	}

	if req.Extra != "" {
		args = append(args, "-e", req.Extra)
	}
	if req.ResetType != "" {
		args = append(args, "-r", req.ResetType)
	}
	if req.ResetTimeout != nil {
		args = append(args, "-R", strconv.Itoa(*req.ResetTimeout))
	}

	return args
}

// Launcher locates adapters in a directory and runs them, optionally
// through an interpreter.
type Launcher struct {
	Dir         string // Directory holding the adapters, also the working directory
	Interpreter string // Interpreter with arguments, empty to execute adapters directly
}

// Command returns the full argv for req. Interpreted adapters are
// "<name>.py" scripts; others are executables named after the adapter.
// Paths are relative to Dir.
func (l Launcher) Command(req Request) []string {
	var argv []string
	if fields := strings.Fields(l.Interpreter); len(fields) > 0 {
		argv = append(fields, req.Name+".py")
	} else {
		argv = []string{"." + string(filepath.Separator) + req.Name}
	}
	return append(argv, BuildArgs(req)...)
}

// BuildCommand joins argv into a shell command line for display.
func BuildCommand(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, arg := range argv {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}

// HostTestsFlag returns the adapter directory flag.
func HostTestsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "host-tests",
		Usage: "Directory containing host test adapters",
	}
}

// InterpreterFlag returns the adapter interpreter flag.
func InterpreterFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "interpreter",
		Usage: "Interpreter used to run host test adapters (\"none\" executes them directly)",
	}
}

// ResetTypeFlag returns the reset type flag.
func ResetTypeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "reset-type",
		Usage: "Reset strategy passed to host tests when a device defines none",
	}
}
