package cli

// This file contains helpers turning command line arguments into run
// settings.

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hiltest/hiltest/config"
)

// noInterpreter selects direct execution of host test adapters.
const noInterpreter = "none"

// flagSettings collects the settings given on the command line. Unset flags
// stay zero so the settings file and defaults can fill them.
func flagSettings(ctx *cli.Context) config.Settings {
	return config.Settings{
		TestSpec:     ctx.String("tests"),
		Devices:      ctx.String("muts"),
		Catalog:      ctx.String("catalog"),
		BuildCommand: ctx.String("build-command"),
		BuildDir:     ctx.String("build-dir"),
		HostTests:    ctx.String("host-tests"),
		Interpreter:  ctx.String("interpreter"),
		CopyMethod:   ctx.String("copy-method"),
		WebDriverURL: ctx.String("webdriver-url"),
		ResetType:    ctx.String("reset-type"),
		Jobs:         ctx.Int("jobs"),
		GlobalLoops:  ctx.Int("global-loops"),
		Loops:        ctx.String("loops"),
		IncTimeout:   ctx.Int("inc-timeout"),
	}
}

// resolveSettings merges command line flags over the settings file in the
// working directory and the defaults.
func resolveSettings(ctx *cli.Context) (config.Settings, error) {
	file, err := config.Load(".")
	if err != nil {
		return config.Settings{}, err
	}
	return config.Resolve(flagSettings(ctx), file)
}

// interpreter maps the interpreter setting to the launcher value.
func interpreter(s string) string {
	if strings.EqualFold(s, noInterpreter) {
		return ""
	}
	return s
}

// splitNames splits a comma separated list, dropping empty entries.
func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
