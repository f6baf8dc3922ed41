// Package build defines the firmware build collaborator the scheduler drives
// and a command based implementation delegating to an external build tool.
package build

import (
	"context"
	"errors"
)

// ErrBuildFailed is wrapped by every build failure.
var ErrBuildFailed = errors.New("build failed")

// OptionAnalyze requests a static analysis build.
const OptionAnalyze = "analyze"

// Options are shared by every build request.
type Options struct {
	// Extra build options (e.g., "analyze")
	Extra []string
	// Discard previous artifacts first
	Clean bool
	// Number of parallel compilation jobs
	Jobs int
	// Print the build tool output
	Verbose bool
}

// ProjectRequest describes one test firmware build.
type ProjectRequest struct {
	SourceDir    string
	OutputDir    string
	Target       string
	Toolchain    string
	Dependencies []string
	Name         string
	Macros       []string
	IncludeDirs  []string
	Options
}

// Builder compiles firmware. Implementations signal failure with an error
// and never panic; the scheduler turns errors into skips.
type Builder interface {
	// BuildSharedLibs builds the SDK support code for (target, toolchain).
	BuildSharedLibs(ctx context.Context, target, toolchain string, opts Options) error
	// BuildLib builds one catalog library for (target, toolchain).
	BuildLib(ctx context.Context, libID, target, toolchain string, opts Options) error
	// BuildProject builds a test image and returns the artifact path.
	BuildProject(ctx context.Context, req ProjectRequest) (string, error)
}
