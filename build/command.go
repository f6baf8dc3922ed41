package build

// This file contains the Builder implementation that drives an external
// firmware build tool.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Command runs an external build tool with one sub-command per operation:
//
//	<tool> libs    --target T --toolchain C [common flags]
//	<tool> lib     --id L --target T --toolchain C [common flags]
//	<tool> project --source S --build B --target T --toolchain C [--dep D]... [--macro M]... [--inc I]... [--name N] [common flags]
//
// Common flags are --jobs N, --clean and --option O. The project sub-command
// prints the artifact path on the last non-empty line of its output.
type Command struct {
	logger zerolog.Logger
	tool   []string
	stdout io.Writer
}

var _ Builder = (*Command)(nil)

// NewCommand creates a Builder running tool. The tool may carry leading
// arguments (e.g., "python make.py").
func NewCommand(logger zerolog.Logger, tool string) *Command {
	return &Command{
		logger: logger,
		tool:   strings.Fields(tool),
		stdout: os.Stdout,
	}
}

func (c *Command) BuildSharedLibs(ctx context.Context, target, toolchain string, opts Options) error {
	args := []string{"libs", "--target", target, "--toolchain", toolchain}
	_, err := c.run(ctx, append(args, commonArgs(opts)...), opts.Verbose)
	return err
}

func (c *Command) BuildLib(ctx context.Context, libID, target, toolchain string, opts Options) error {
	args := []string{"lib", "--id", libID, "--target", target, "--toolchain", toolchain}
	_, err := c.run(ctx, append(args, commonArgs(opts)...), opts.Verbose)
	return err
}

func (c *Command) BuildProject(ctx context.Context, req ProjectRequest) (string, error) {
	args := ProjectArgs(req)
	output, err := c.run(ctx, args, req.Verbose)
	if err != nil {
		return "", err
	}

	artifact := lastLine(output)
	if artifact == "" {
		return "", fmt.Errorf("%w: build tool reported no artifact for %s", ErrBuildFailed, req.SourceDir)
	}
	c.logger.Debug().Str("artifact", artifact).Msg("Project built")
	return artifact, nil
}

// ProjectArgs builds the argument list of the project sub-command.
func ProjectArgs(req ProjectRequest) []string {
	args := []string{
		"project",
		"--source", req.SourceDir,
		"--build", req.OutputDir,
		"--target", req.Target,
		"--toolchain", req.Toolchain,
	}
	for _, dep := range req.Dependencies {
		args = append(args, "--dep", dep)
	}
	for _, macro := range req.Macros {
		args = append(args, "--macro", macro)
	}
	for _, inc := range req.IncludeDirs {
		args = append(args, "--inc", inc)
	}
	if req.Name != "" {
		args = append(args, "--name", req.Name)
	}
	return append(args, commonArgs(req.Options)...)
}

func commonArgs(opts Options) []string {
	var args []string
	if opts.Jobs > 0 {
		args = append(args, "--jobs", strconv.Itoa(opts.Jobs))
	}
	if opts.Clean {
		args = append(args, "--clean")
	}
	for _, o := range opts.Extra {
		args = append(args, "--option", o)
	}
	return args
}

func (c *Command) run(ctx context.Context, args []string, verbose bool) (string, error) {
	if len(c.tool) == 0 {
		return "", fmt.Errorf("%w: no build tool configured", ErrBuildFailed)
	}

	cmd := exec.CommandContext(ctx, c.tool[0], append(c.tool[1:], args...)...)

	var stdout, stderr bytes.Buffer
	if verbose {
		cmd.Stdout = io.MultiWriter(c.stdout, &stdout)
	} else {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = &stderr

	c.logger.Debug().
		Str("command", cmd.String()).
		Msg("Executing build tool")

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %v (stderr: %s)", ErrBuildFailed, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
