package cli

// This file contains the commands reporting on configuration and the test
// catalog without running anything.

import (
	"fmt"
	"regexp"

	"github.com/urfave/cli/v2"

	"github.com/hiltest/hiltest/catalog"
	"github.com/hiltest/hiltest/registry"
	"github.com/hiltest/hiltest/report"
)

func (a *App) loadCatalog(ctx *cli.Context) (*catalog.Catalog, error) {
	settings, err := resolveSettings(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Load(settings.Catalog)
}

func (a *App) showConfig(ctx *cli.Context) error {
	settings, err := resolveSettings(ctx)
	if err != nil {
		return err
	}

	if settings.Devices != "" {
		reg, err := registry.Load(settings.Devices)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "MUTs configuration in %s:\n", settings.Devices)
		fmt.Fprintln(a.stdout, report.Devices(reg.Devices()))
		fmt.Fprintln(a.stdout)
	}

	if settings.TestSpec != "" {
		spec, err := a.loadMatrix(settings.TestSpec)
		if err != nil {
			return err
		}
		cat, err := catalog.Load(settings.Catalog)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Test specification in %s:\n", settings.TestSpec)
		fmt.Fprintln(a.stdout, report.Matrix(spec, cat))
	}

	if settings.Devices == "" && settings.TestSpec == "" {
		return fmt.Errorf("nothing to show (use -i FILE and/or -M FILE)")
	}
	return nil
}

func (a *App) showTests(ctx *cli.Context) error {
	cat, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}

	var filter *regexp.Regexp
	if expr := ctx.String("filter"); expr != "" {
		filter, err = regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("invalid test id filter: %w", err)
		}
	}

	fmt.Fprint(a.stdout, report.Tests(cat.Tests(), filter, ctx.Bool("coverage")))
	return nil
}

func (a *App) showToolchains(ctx *cli.Context) error {
	cat, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, report.Toolchains(cat))
	return nil
}
