// Package deploy copies built firmware images onto device storage and applies
// board specific image selection patches.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/otiai10/copy"
	"github.com/rs/zerolog"

	"github.com/hiltest/hiltest/model"
)

// ErrBrowserUnavailable is returned by the browser method when no WebDriver
// session can be established.
var ErrBrowserUnavailable = errors.New("browser automation unavailable")

// Method is a deployment strategy.
type Method string

const (
	// MethodNative copies the image with a filesystem copy.
	MethodNative Method = "native"
	// MethodShell invokes an operating system copy command.
	MethodShell Method = "shell"
	// MethodBrowser drives a browser session to download the image.
	MethodBrowser Method = "browser"
)

// ShellCommands lists the copy utilities accepted by the shell method.
var ShellCommands = []string{"cp", "copy", "xcopy"}

// ParseMethod maps a copy method name to a Method. Shell utility names select
// MethodShell and are returned as the command to run.
func ParseMethod(name string) (Method, string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default", string(MethodNative):
		return MethodNative, "", nil
	case "shell":
		return MethodShell, "cp", nil
	case "firefox", string(MethodBrowser):
		return MethodBrowser, "", nil
	}
	for _, c := range ShellCommands {
		if strings.EqualFold(name, c) {
			return MethodShell, c, nil
		}
	}
	return "", "", fmt.Errorf("unknown copy method %q (available: native, %s, firefox)", name, strings.Join(ShellCommands, ", "))
}

// Options configures a Deployer.
type Options struct {
	// Deployment strategy
	Method Method
	// Copy utility for MethodShell
	ShellCommand string
	// WebDriver endpoint for MethodBrowser
	WebDriverURL string
}

// Result is the structured outcome of a deployment. Failures never surface as
// errors past the Deployer.
type Result struct {
	// Whether the image reached the device
	OK bool
	// Failure reason
	Message string
	// Human readable name of the method that was used
	MethodUsed string
}

// copier is implemented by every deployment method.
type copier interface {
	name() string
	copy(ctx context.Context, image, destDir string) error
}

// Deployer copies images onto devices.
type Deployer struct {
	logger  zerolog.Logger
	copier  copier
	patches map[string]patcher
}

// New creates a Deployer for the configured method.
func New(logger zerolog.Logger, opts Options) *Deployer {
	return &Deployer{
		logger:  logger,
		copier:  newCopier(opts),
		patches: boardPatches(),
	}
}

func newCopier(opts Options) copier {
	switch opts.Method {
	case MethodShell:
		command := opts.ShellCommand
		if command == "" {
			command = "cp"
		}
		return &shellCopier{command: command}
	case MethodBrowser:
		return &browserCopier{webDriverURL: opts.WebDriverURL}
	default:
		return nativeCopier{}
	}
}

// Deploy copies image into destSubpath below the device storage.
func (d *Deployer) Deploy(ctx context.Context, image string, device model.Device, destSubpath string) Result {
	res := Result{MethodUsed: d.copier.name()}

	destDir := filepath.Join(device.Disk, destSubpath)
	logEvent := d.logger.Debug().
		Str("image", image).
		Str("dest", destDir).
		Str("method", res.MethodUsed)
	if info, err := os.Stat(image); err == nil {
		logEvent = logEvent.Str("size", humanize.Bytes(uint64(info.Size())))
	}
	logEvent.Msg("Deploying image")

	start := time.Now()
	if err := d.copier.copy(ctx, image, destDir); err != nil {
		res.Message = failureMessage(err)
		return res
	}

	d.logger.Debug().
		Str("image", filepath.Base(image)).
		Dur("took", time.Since(start)).
		Msg("Image deployed")
	res.OK = true
	return res
}

// DeployImage deploys image to the device's image destination and, for
// boards that select images through a configuration file, points that file
// at the new image. A failed patch is logged and does not fail the copy.
func (d *Deployer) DeployImage(ctx context.Context, target, image string, device model.Device) Result {
	res := d.Deploy(ctx, image, device, device.ImageDest)
	if !res.OK || device.ImagesConfig == "" {
		return res
	}

	patch, ok := d.patches[target]
	if !ok {
		return res
	}
	deployed := filepath.Join(device.Disk, device.ImageDest, filepath.Base(image))
	if !patch(device, deployed) {
		d.logger.Warn().
			Str("target", target).
			Str("disk", device.Disk).
			Msg("Image configuration could not be updated")
	}
	return res
}

// CopyExtraFiles copies each file to the root of the device storage.
func (d *Deployer) CopyExtraFiles(files []string, device model.Device) error {
	for _, f := range files {
		dest := filepath.Join(device.Disk, filepath.Base(f))
		if err := copy.Copy(f, dest); err != nil {
			return fmt.Errorf("failed to copy extra file %s: %w", f, err)
		}
		d.logger.Debug().Str("file", f).Str("dest", dest).Msg("Extra file copied")
	}
	return nil
}

// failureMessage renders a copy failure for the deployment result. Failed
// copy commands report their exit code and command line.
func failureMessage(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return fmt.Sprintf("Return code: %d. Command: %s", cmdErr.Code, cmdErr.Command)
	}
	return err.Error()
}
