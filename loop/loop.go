// Package loop executes one test on one device a number of times and reduces
// the per-loop verdicts to a single result.
package loop

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiltest/hiltest/deploy"
	"github.com/hiltest/hiltest/hosttest"
	"github.com/hiltest/hiltest/model"
	"github.com/hiltest/hiltest/report"
)

// Deployer programs a device with an image.
type Deployer interface {
	DeployImage(ctx context.Context, target, image string, device model.Device) deploy.Result
	CopyExtraFiles(files []string, device model.Device) error
}

// Monitor runs a host test adapter and returns its verdict.
type Monitor interface {
	Run(ctx context.Context, req hosttest.Request) model.ResultCode
}

// Options configures a Runner.
type Options struct {
	// Reset strategy used when the device defines none
	ResetType string
	// Extra serial port passed to host tests
	ExtraSerial string
	// Destination of the per-loop result lines
	Output io.Writer
	// Colorize result lines
	Color bool
	// Wait function used for the settle delay
	Sleep func(time.Duration)
}

// Job is one (target, toolchain, test) combination bound to a device.
type Job struct {
	Test      model.TestCase
	Target    model.Target
	Toolchain string
	Device    model.Device
	// Built image path
	Image string
	// Number of loops, at least 1
	Loops int
	// Host test deadline in seconds
	Duration int
}

// Runner executes jobs.
type Runner struct {
	logger   zerolog.Logger
	deployer Deployer
	monitor  Monitor
	opts     Options
}

// New creates a Runner.
func New(logger zerolog.Logger, deployer Deployer, monitor Monitor, opts Options) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Runner{
		logger:   logger,
		deployer: deployer,
		monitor:  monitor,
		opts:     opts,
	}
}

// Run executes job.Loops iterations and returns the aggregated record.
// A missing image stops immediately with NO_IMAGE. A failed deployment
// yields IOERR_COPY for that iteration without running the host test.
// Elapsed time is measured from the deployment of an iteration to its end;
// the record carries the last iteration's time. When ctx is done before the
// first iteration no record exists and ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context, job Job) (model.Record, error) {
	loops := job.Loops
	if loops < 1 {
		loops = 1
	}

	rec := model.Record{
		Target:      job.Target.Name,
		Toolchain:   job.Toolchain,
		TestID:      job.Test.ID,
		Description: job.Test.Description,
		Duration:    job.Duration,
	}

	if _, err := os.Stat(job.Image); err != nil {
		r.logger.Error().Str("image", job.Image).Msg("Image file does not exist")
		rec.Result = model.ResultNoImage
		rec.Loops = Ratio(nil, loops)
		return rec, nil
	}

	results := make([]model.ResultCode, 0, loops)
	var elapsed time.Duration
	for i := 0; i < loops; i++ {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		result := r.iteration(ctx, job)
		elapsed = time.Since(start)
		results = append(results, result)

		line := rec
		line.Result = result
		line.Elapsed = seconds(elapsed)
		fmt.Fprintln(r.opts.Output, report.TestLine(line, r.opts.Color))
	}

	if len(results) == 0 {
		return model.Record{}, ctx.Err()
	}

	rec.Result = Aggregate(results)
	rec.Elapsed = seconds(elapsed)
	rec.Loops = Ratio(results, loops)
	rec.LoopResults = results
	return rec, nil
}

func (r *Runner) iteration(ctx context.Context, job Job) model.ResultCode {
	res := r.deployer.DeployImage(ctx, job.Target.Name, job.Image, job.Device)
	if !res.OK {
		r.logger.Error().
			Str("method", res.MethodUsed).
			Str("reason", res.Message).
			Msg("Copy method failed")
		return model.ResultIOErrCopy
	}

	if !job.Target.VirtualDisk && len(job.Test.ExtraFiles) > 0 {
		if err := r.deployer.CopyExtraFiles(job.Test.ExtraFiles, job.Device); err != nil {
			r.logger.Warn().Err(err).Str("test_id", job.Test.ID).Msg("Extra files not copied")
		}
	}

	r.opts.Sleep(job.Target.SettleDelay())

	resetType := job.Device.ResetType
	if resetType == "" {
		resetType = r.opts.ResetType
	}

	return r.monitor.Run(ctx, hosttest.Request{
		Name:         job.Test.HostTest,
		Port:         job.Device.Port,
		Disk:         job.Device.Disk,
		Duration:     job.Duration,
		Extra:        r.opts.ExtraSerial,
		ResetType:    resetType,
		ResetTimeout: job.Device.ResetTimeout,
	})
}

// Aggregate returns the common result when every loop agrees and FAIL
// otherwise. No results aggregate to FAIL.
func Aggregate(results []model.ResultCode) model.ResultCode {
	if len(results) == 0 {
		return model.ResultFail
	}
	for _, res := range results[1:] {
		if res != results[0] {
			return model.ResultFail
		}
	}
	return results[0]
}

// Ratio formats the number of OK results over the requested loop count.
func Ratio(results []model.ResultCode, loops int) string {
	ok := 0
	for _, res := range results {
		if res == model.ResultOK {
			ok++
		}
	}
	return fmt.Sprintf("%d/%d", ok, loops)
}

func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
