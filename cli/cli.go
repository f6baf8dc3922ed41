package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/hiltest/hiltest/config"
	"github.com/hiltest/hiltest/deploy"
	"github.com/hiltest/hiltest/hosttest"
	"github.com/hiltest/hiltest/loop"
	"github.com/hiltest/hiltest/shuffle"
)

const AppName = "hiltest"

type App struct {
	logger  zerolog.Logger
	cli     *cli.App
	logFile io.Closer
	logPath string
	stdout  io.Writer
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339Nano,
	}

	app := &App{
		logger: log.Output(console),
		stdout: os.Stdout,
	}
	app.cli = &cli.App{
		Name:  AppName,
		Usage: "Build, deploy and run firmware tests on attached boards",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose (debug) logging",
			},
			&cli.StringFlag{
				Name:  "log",
				Usage: "Append log output to `FILE`",
			},
		},
		Before: func(ctx *cli.Context) error {
			if ctx.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return app.openLog(ctx, console)
		},
		After: func(ctx *cli.Context) error {
			if app.logFile != nil {
				return app.logFile.Close()
			}
			return nil
		},
	}

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "run",
		Usage:  "Build and execute the test matrix on the attached devices",
		Action: app.runTests,
		Flags: append(specFlags(),
			&cli.StringFlag{
				Name:  "build-command",
				Usage: "Build tool invoked for libraries and test projects",
			},
			&cli.StringFlag{
				Name:  "build-dir",
				Usage: "Root directory for test builds",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Number of parallel compilation jobs",
			},
			&cli.BoolFlag{
				Name:    "analyze-tests",
				Aliases: []string{"g"},
				Usage:   "Run static analysis while building test projects",
			},
			&cli.BoolFlag{
				Name:    "analyze-sdk",
				Aliases: []string{"G"},
				Usage:   "Run static analysis while building the shared libraries",
			},
			&cli.BoolFlag{
				Name:    "suppress-summary",
				Aliases: []string{"s"},
				Usage:   "Do not print the test summary",
			},
			&cli.BoolFlag{
				Name:    "test-summary",
				Aliases: []string{"t"},
				Usage:   "Print a test x toolchain table per target",
			},
			&cli.BoolFlag{
				Name:    "only-peripherals",
				Aliases: []string{"P"},
				Usage:   "Run only tests requiring peripherals",
			},
			&cli.BoolFlag{
				Name:    "only-commons",
				Aliases: []string{"C"},
				Usage:   "Run only tests without peripheral requirements",
			},
			&cli.StringFlag{
				Name:    "test-names",
				Aliases: []string{"n"},
				Usage:   "Comma separated list of test ids to run",
			},
			&cli.BoolFlag{
				Name:    "only-build",
				Aliases: []string{"O"},
				Usage:   "Build tests without executing them",
			},
			&cli.StringFlag{
				Name:  "firmware-name",
				Usage: "Global name of the firmware image passed to every test build",
			},
			&cli.IntFlag{
				Name:  "inc-timeout",
				Usage: "Seconds added to every test duration",
			},
			&cli.BoolFlag{
				Name:  "verbose-skipped",
				Usage: "Log why tests are skipped",
			},
			&cli.BoolFlag{
				Name:    "verbose-host-tests",
				Aliases: []string{"V"},
				Usage:   "Print host test command lines and output",
			},
			&cli.StringFlag{
				Name:  "extra-serial",
				Usage: "Extra serial port passed to host tests",
			},
			deploy.CopyMethodFlag(),
			deploy.WebDriverFlag(),
			hosttest.HostTestsFlag(),
			hosttest.InterpreterFlag(),
			hosttest.ResetTypeFlag(),
			loop.GlobalLoopsFlag(),
			loop.LoopsFlag(),
			shuffle.ShuffleFlag(),
			shuffle.SeedFlag(),
		),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "config",
		Usage:  "Show the attached devices and the test matrix",
		Action: app.showConfig,
		Flags:  specFlags(),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "tests",
		Usage:  "Show the test catalog and its automation coverage",
		Action: app.showTests,
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "Regular expression matched against test ids",
			},
			&cli.BoolFlag{
				Name:  "coverage",
				Usage: "Show automation coverage tables",
				Value: true,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "toolchains",
		Usage:  "Show the toolchains supported by every catalog target",
		Action: app.showToolchains,
		Flags:  []cli.Flag{catalogFlag()},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous test runs",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Filter by working directory (e.g., firmware/tests)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "View test results from history",
		ArgsUsage:       "[ID|INDEX] [-t]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `View test results from history.

Arguments:
  0           View last test run (default)
  -1          View 2nd last test run
  -2          View 3rd last test run
  <hex-id>    View test run matching the hex ID prefix

Options:
  -t, --test-summary   Also print the test x toolchain table per target

Examples:
  hiltest view           # View last test run
  hiltest view -1 -t     # View 2nd last test run with per target tables
  hiltest view abc123    # View test run with ID starting with abc123`,
	})
	return app
}

func specFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "tests",
			Aliases: []string{"i"},
			Usage:   "Test specification `FILE` (JSON)",
		},
		&cli.StringFlag{
			Name:    "muts",
			Aliases: []string{"M"},
			Usage:   "Device registry `FILE` (JSON)",
		},
		catalogFlag(),
	}
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "catalog",
		Usage: "Test catalog `FILE` (YAML)",
	}
}

// openLog adds the log file from --log or the settings file as a second log
// destination.
func (a *App) openLog(ctx *cli.Context, console zerolog.ConsoleWriter) error {
	path := ctx.String("log")
	if path == "" {
		file, err := config.Load(".")
		if err != nil {
			return err
		}
		path = file.LogFile
	}
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logFile = f
	a.logPath = path
	a.logger = zerolog.New(zerolog.MultiLevelWriter(console, f)).With().Timestamp().Logger()
	return nil
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}
