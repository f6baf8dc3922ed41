// Package scheduler drives a test run over a (target, toolchain) matrix:
// it builds firmware, filters tests and executes each eligible test on a
// registered device.
package scheduler

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hiltest/hiltest/build"
	"github.com/hiltest/hiltest/loop"
	"github.com/hiltest/hiltest/model"
	"github.com/hiltest/hiltest/shuffle"
)

// Catalog provides the static test and target definitions.
type Catalog interface {
	IDs() []string
	Test(id string) (model.TestCase, bool)
	Target(name string) (model.Target, error)
	Supported(tc model.TestCase, target, toolchain string) bool
	LibrariesFor(tc model.TestCase) []model.Library
}

// Registry provides the attached devices.
type Registry interface {
	FindDevice(mcu string) (model.Device, bool)
	HasCapablePeripheralDevice(mcu string, required []string) bool
}

// Runner executes one test on one device, possibly several times.
type Runner interface {
	Run(ctx context.Context, job loop.Job) (model.Record, error)
}

// Options configure a run. They are fixed for the lifetime of an Engine.
type Options struct {
	// Targets, toolchains and test subset to run
	Matrix model.MatrixSpec
	// Root directory for test builds
	BuildDir string
	// Restrict the run to these test ids (empty means all)
	TestNames []string
	// Run only tests requiring peripherals
	OnlyPeripherals bool
	// Run only tests without peripheral requirements
	OnlyCommons bool
	// Build tests without executing them
	OnlyBuild bool
	// Shuffle test order with Seed
	Shuffle bool
	// Shuffle seed, already rounded
	Seed float64
	// Static analysis build of the shared libraries
	AnalyzeSDK bool
	// Static analysis build of test projects
	AnalyzeTests bool
	// Project name passed to every test build
	FirmwareName string
	// Parallel compilation jobs
	Jobs int
	// Print build output
	Verbose bool
	// Log why tests are filtered out
	VerboseSkipped bool
	// Seconds added to every test duration
	IncTimeout int
	// Loops per test
	Loops loop.Counts
}

// Engine runs the matrix.
type Engine struct {
	logger   zerolog.Logger
	catalog  Catalog
	registry Registry
	builder  build.Builder
	runner   Runner
	opts     Options
}

// New creates an Engine.
func New(logger zerolog.Logger, catalog Catalog, registry Registry, builder build.Builder, runner Runner, opts Options) *Engine {
	return &Engine{
		logger:   logger,
		catalog:  catalog,
		registry: registry,
		builder:  builder,
		runner:   runner,
		opts:     opts,
	}
}

// Execute runs every (target, toolchain) pair of the matrix in target name
// order and returns one record per executed test together with the shuffle
// seed. Failures of individual builds and tests never stop the run; only a
// cancelled ctx does.
func (e *Engine) Execute(ctx context.Context) ([]model.Record, float64, error) {
	var records []model.Record

	for _, targetName := range e.opts.Matrix.TargetNames() {
		target, err := e.catalog.Target(targetName)
		if err != nil {
			e.notice().Str("target", targetName).Msg("Skipped tests for target. Target platform not found")
			continue
		}

		for _, toolchain := range e.opts.Matrix.Targets[targetName] {
			if err := ctx.Err(); err != nil {
				return records, e.opts.Seed, err
			}

			recs, err := e.executePair(ctx, target, toolchain)
			records = append(records, recs...)
			if err != nil {
				return records, e.opts.Seed, err
			}
		}
	}

	return records, e.opts.Seed, nil
}

func (e *Engine) notice() *zerolog.Event {
	return e.logger.Info().Bool("notice", true)
}

func (e *Engine) skipped(msg string, target string, peripherals []string) {
	if !e.opts.VerboseSkipped {
		return
	}
	ev := e.logger.Info().Str("target", target)
	if peripherals != nil {
		ev = ev.Str("peripherals", strings.Join(peripherals, ","))
	}
	ev.Msg(msg)
}

func (e *Engine) sdkOptions() build.Options {
	opts := build.Options{
		Clean:   e.opts.Matrix.Clean || e.opts.AnalyzeSDK,
		Jobs:    e.opts.Jobs,
		Verbose: e.opts.Verbose,
	}
	if e.opts.AnalyzeSDK {
		opts.Extra = []string{build.OptionAnalyze}
	}
	return opts
}

func (e *Engine) projectOptions() build.Options {
	opts := build.Options{
		Clean:   e.opts.Matrix.Clean || e.opts.AnalyzeTests,
		Jobs:    e.opts.Jobs,
		Verbose: e.opts.Verbose,
	}
	if e.opts.AnalyzeTests {
		opts.Extra = []string{build.OptionAnalyze}
	}
	return opts
}

func (e *Engine) testIDs() []string {
	ids := e.catalog.IDs()
	if e.opts.Shuffle {
		ids = shuffle.Permute(ids, e.opts.Seed)
	}
	return ids
}

func (e *Engine) selected(id string) bool {
	if len(e.opts.TestNames) > 0 && !contains(e.opts.TestNames, id) {
		return false
	}
	return e.opts.Matrix.Includes(id)
}

// executePair builds the shared libraries for (target, toolchain) and runs
// every eligible test.
func (e *Engine) executePair(ctx context.Context, target model.Target, toolchain string) ([]model.Record, error) {
	if err := e.builder.BuildSharedLibs(ctx, target.Name, toolchain, e.sdkOptions()); err != nil {
		e.notice().
			Err(err).
			Str("target", target.Name).
			Str("toolchain", toolchain).
			Msg("Skipped tests for target. Toolchain is not yet supported for this target")
		return nil, nil
	}

	buildDir := filepath.Join(e.opts.BuildDir, target.Name, toolchain)

	var records []model.Record
	for _, id := range e.testIDs() {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		tc, ok := e.catalog.Test(id)
		if !ok || !e.selected(id) {
			continue
		}

		if e.opts.OnlyPeripherals && !tc.HasPeripherals() {
			e.skipped("Common test skipped for target", target.Name, nil)
			continue
		}
		if e.opts.OnlyCommons && tc.HasPeripherals() {
			e.skipped("Peripheral test skipped for target", target.Name, nil)
			continue
		}
		if !tc.Automated || !e.catalog.Supported(tc, target.Name, toolchain) {
			continue
		}
		if !e.registry.HasCapablePeripheralDevice(target.Name, tc.Peripherals) {
			e.skipped("Peripheral test skipped for target", target.Name, append([]string{}, tc.Peripherals...))
			continue
		}

		rec, ok := e.executeTest(ctx, target, toolchain, tc, filepath.Join(buildDir, id))
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// executeTest builds tc and runs it on the first device matching target.
// It reports false when no record is produced: the build failed, no device
// matches or the run was cancelled before the first loop.
func (e *Engine) executeTest(ctx context.Context, target model.Target, toolchain string, tc model.TestCase, outputDir string) (model.Record, bool) {
	projectOpts := e.projectOptions()

	libs := e.catalog.LibrariesFor(tc)
	var macros, incDirs []string
	for _, lib := range libs {
		libOpts := projectOpts
		libOpts.Clean = e.sdkOptions().Clean
		if err := e.builder.BuildLib(ctx, lib.ID, target.Name, toolchain, libOpts); err != nil {
			e.logger.Warn().
				Err(err).
				Str("library", lib.ID).
				Str("target", target.Name).
				Str("toolchain", toolchain).
				Msg("Library build failed")
		}
		incDirs = append(incDirs, lib.IncDirsExt...)
		macros = append(macros, lib.Macros...)
	}

	image, err := e.builder.BuildProject(ctx, build.ProjectRequest{
		SourceDir:    tc.SourceDir,
		OutputDir:    outputDir,
		Target:       target.Name,
		Toolchain:    toolchain,
		Dependencies: tc.Dependencies,
		Name:         e.opts.FirmwareName,
		Macros:       macros,
		IncludeDirs:  incDirs,
		Options:      projectOpts,
	})
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("test_id", tc.ID).
			Str("target", target.Name).
			Str("toolchain", toolchain).
			Msg("Test build failed")
		return model.Record{}, false
	}

	if e.opts.OnlyBuild {
		return model.Record{}, false
	}

	device, ok := e.registry.FindDevice(target.Name)
	if !ok {
		e.logger.Error().Str("mcu", target.Name).Msg("No device available")
		return model.Record{}, false
	}

	duration := tc.NominalDuration() + e.opts.IncTimeout
	rec, err := e.runner.Run(ctx, loop.Job{
		Test:      tc,
		Target:    target,
		Toolchain: toolchain,
		Device:    device,
		Image:     image,
		Loops:     e.opts.Loops.For(tc.ID),
		Duration:  duration,
	})
	if err != nil {
		return model.Record{}, false
	}
	return rec, true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
