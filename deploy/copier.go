package deploy

// copier.go contains the deployment method implementations.

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"al.essio.dev/pkg/shellescape"
	"github.com/otiai10/copy"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/firefox"
)

type nativeCopier struct{}

func (nativeCopier) name() string { return "native copy" }

func (nativeCopier) copy(_ context.Context, image, destDir string) error {
	return copy.Copy(image, filepath.Join(destDir, filepath.Base(image)))
}

// CommandError is returned when a shell copy command fails. Code is -1 when
// the command could not be started.
type CommandError struct {
	Code    int
	Command string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("copy command %s failed with return code %d", e.Command, e.Code)
}

type shellCopier struct {
	command string
}

func (c *shellCopier) name() string { return c.command }

// args returns the process arguments. Windows copy utilities are shell
// builtins and run through cmd.
func (c *shellCopier) args(image, destDir string) []string {
	args := []string{c.command, image, filepath.Join(destDir, filepath.Base(image))}
	if c.command == "copy" || c.command == "xcopy" {
		args = append([]string{"cmd", "/C"}, args...)
	}
	return args
}

func (c *shellCopier) copy(ctx context.Context, image, destDir string) error {
	args := c.args(image, destDir)
	err := exec.CommandContext(ctx, args[0], args[1:]...).Run()
	if err == nil {
		return nil
	}

	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &CommandError{Code: code, Command: shellescape.QuoteCommand(args)}
}

type browserCopier struct {
	webDriverURL string
}

func (c *browserCopier) name() string { return "firefox" }

// copy opens the image in a Firefox session configured to save downloads
// into destDir without prompting.
func (c *browserCopier) copy(_ context.Context, image, destDir string) error {
	if c.webDriverURL == "" {
		return fmt.Errorf("%w: no WebDriver URL configured", ErrBrowserUnavailable)
	}

	abs, err := filepath.Abs(image)
	if err != nil {
		return err
	}

	caps := selenium.Capabilities{"browserName": "firefox"}
	caps.AddFirefox(firefox.Capabilities{
		Prefs: map[string]interface{}{
			"browser.download.folderList":               2,
			"browser.download.manager.showWhenStarting": false,
			"browser.download.dir":                      destDir,
			"browser.helperApps.neverAsk.saveToDisk":    "application/octet-stream",
		},
	})

	wd, err := selenium.NewRemote(caps, c.webDriverURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}
	defer func() { _ = wd.Quit() }()

	return wd.Get(fileURL(abs))
}

func fileURL(path string) string {
	path = filepath.ToSlash(path)
	if runtime.GOOS == "windows" {
		return "file:///" + path
	}
	return "file://" + path
}
