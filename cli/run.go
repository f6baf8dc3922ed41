package cli

// This file contains the run command executing the test matrix on the
// attached devices.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/hiltest/hiltest/build"
	"github.com/hiltest/hiltest/catalog"
	"github.com/hiltest/hiltest/config"
	"github.com/hiltest/hiltest/deploy"
	"github.com/hiltest/hiltest/hosttest"
	"github.com/hiltest/hiltest/loop"
	"github.com/hiltest/hiltest/model"
	"github.com/hiltest/hiltest/registry"
	"github.com/hiltest/hiltest/report"
	"github.com/hiltest/hiltest/scheduler"
	"github.com/hiltest/hiltest/shuffle"
)

// imageCollector passes jobs on to the loop runner and remembers every
// image that was deployed.
type imageCollector struct {
	runner scheduler.Runner
	images []string
}

func (c *imageCollector) Run(ctx context.Context, job loop.Job) (model.Record, error) {
	if job.Image != "" {
		c.images = append(c.images, job.Image)
	}
	return c.runner.Run(ctx, job)
}

func (a *App) runTests(ctx *cli.Context) error {
	startTime := time.Now()

	// Prepare history recording
	h := &model.History{
		ID:        uuid.NewString(),
		Timestamp: startTime,
		Args:      os.Args,
	}

	// Capture working directory
	if cwd, err := os.Getwd(); err == nil {
		h.WorkDir = cwd
	}

	// Capture git info (non-fatal if it fails)
	if git, err := a.getGitInfo(); err == nil {
		h.Git = git
	} else {
		a.logger.Debug().Err(err).Msg("Running outside of a git repository")
	}

	runDir, err := a.prepareHistoryDir(h)
	if err != nil {
		return fmt.Errorf("failed to prepare history directory: %w", err)
	}

	collector := &imageCollector{}
	var finalErr error
	defer func() {
		h.Duration = time.Since(startTime)
		if finalErr != nil {
			h.ExitCode = 1
		}

		// Record the history (non-fatal if it fails)
		if err := a.recordHistory(h, runDir, collector.images); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to record history")
		}
	}()

	finalErr = a.executeRun(ctx, h, collector)
	return finalErr
}

func (a *App) executeRun(ctx *cli.Context, h *model.History, collector *imageCollector) error {
	startTime := time.Now()

	settings, err := resolveSettings(ctx)
	if err != nil {
		return err
	}
	if settings.TestSpec == "" {
		return errors.New("no test specification given (use -i FILE)")
	}
	if settings.Devices == "" {
		return errors.New("no device registry given (use -M FILE)")
	}

	spec, err := a.loadMatrix(settings.TestSpec)
	if err != nil {
		return err
	}
	h.Matrix = &spec

	reg, err := registry.Load(settings.Devices)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(settings.Catalog)
	if err != nil {
		return err
	}

	method, command, err := deploy.ParseMethod(settings.CopyMethod)
	if err != nil {
		return err
	}

	shuffled := ctx.Bool("shuffle")
	seed := shuffle.Seed(ctx.String("shuffle-seed"))
	if shuffled {
		h.Shuffle = &model.Shuffle{Seed: seed}
	}

	color := report.IsTerminal(os.Stdout)
	monitor := hosttest.NewMonitor(a.logger, hosttest.Options{
		Launcher: hosttest.Launcher{
			Dir:         settings.HostTests,
			Interpreter: interpreter(settings.Interpreter),
		},
		Verbose: ctx.Bool("verbose-host-tests"),
		Output:  a.stdout,
	})
	deployer := deploy.New(a.logger, deploy.Options{
		Method:       method,
		ShellCommand: command,
		WebDriverURL: settings.WebDriverURL,
	})
	collector.runner = loop.New(a.logger, deployer, monitor, loop.Options{
		ResetType:   settings.ResetType,
		ExtraSerial: ctx.String("extra-serial"),
		Output:      a.stdout,
		Color:       color,
	})

	engine := scheduler.New(a.logger, cat, reg, build.NewCommand(a.logger, settings.BuildCommand), collector, scheduler.Options{
		Matrix:          spec,
		BuildDir:        settings.BuildDir,
		TestNames:       splitNames(ctx.String("test-names")),
		OnlyPeripherals: ctx.Bool("only-peripherals"),
		OnlyCommons:     ctx.Bool("only-commons"),
		OnlyBuild:       ctx.Bool("only-build"),
		Shuffle:         shuffled,
		Seed:            seed,
		AnalyzeSDK:      ctx.Bool("analyze-sdk"),
		AnalyzeTests:    ctx.Bool("analyze-tests"),
		FirmwareName:    ctx.String("firmware-name"),
		Jobs:            settings.Jobs,
		Verbose:         ctx.Bool("verbose"),
		VerboseSkipped:  ctx.Bool("verbose-skipped"),
		IncTimeout:      settings.IncTimeout,
		Loops:           loop.ParseCounts(settings.GlobalLoops, settings.Loops),
	})

	records, _, err := engine.Execute(ctx.Context)
	h.Records = records

	if !ctx.Bool("suppress-summary") && len(records) > 0 {
		a.printSummary(h, ctx.Bool("test-summary"))
	}
	fmt.Fprintf(a.stdout, "Completed in %.2f sec\n", time.Since(startTime).Seconds())

	return err
}

// loadMatrix loads the test specification and prints the location of JSON
// syntax errors.
func (a *App) loadMatrix(path string) (model.MatrixSpec, error) {
	spec, err := config.LoadMatrix(path)
	var syntaxErr *config.SyntaxError
	if errors.As(err, &syntaxErr) {
		fmt.Fprint(os.Stderr, syntaxErr.Excerpt())
	}
	return spec, err
}

// printSummary renders the result tables of a run.
func (a *App) printSummary(h *model.History, byTarget bool) {
	var seed *float64
	if h.Shuffle != nil {
		seed = &h.Shuffle.Seed
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprint(a.stdout, report.Summary(h.Records, seed))
	if byTarget {
		fmt.Fprintln(a.stdout)
		fmt.Fprint(a.stdout, report.ByTarget(h.Records, seed))
	}
}
