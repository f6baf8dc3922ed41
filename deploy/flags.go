package deploy

// flags.go contains command line flags for deployment options.

import "github.com/urfave/cli/v2"

// CopyMethodFlag returns the copy method flag.
func CopyMethodFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "copy-method",
		Aliases: []string{"c"},
		Usage:   "Image copy method: native, cp, copy, xcopy or firefox",
	}
}

// WebDriverFlag returns the WebDriver endpoint flag used by the firefox method.
func WebDriverFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "webdriver-url",
		Usage:   "WebDriver endpoint for the firefox copy method (e.g., http://localhost:4444/wd/hub)",
		EnvVars: []string{"HILTEST_WEBDRIVER_URL"},
	}
}
