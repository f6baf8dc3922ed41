// Package hosttest runs host side test adapters and classifies their output.
package hosttest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hiltest/hiltest/model"
)

// EndToken is the token an adapter prints when the test is over.
const EndToken = "{end}"

const (
	defaultQueueSize = 4096
	defaultWaitDelay = 2 * time.Second
)

// tokenResults maps adapter tokens to result codes.
var tokenResults = map[string]model.ResultCode{
	"success":      model.ResultOK,
	"failure":      model.ResultFail,
	"error":        model.ResultError,
	"ioerr_copy":   model.ResultIOErrCopy,
	"ioerr_disk":   model.ResultIOErrDisk,
	"ioerr_serial": model.ResultIOErrSerial,
	"timeout":      model.ResultTimeout,
	"no_image":     model.ResultNoImage,
	"end":          model.ResultUndef,
}

// Options configures a Monitor.
type Options struct {
	// Adapter location and interpreter
	Launcher Launcher
	// Print adapter command lines and captured output
	Verbose bool
	// Destination of verbose output
	Output io.Writer
	// Capacity of the output queue between the reader and the poll loop
	QueueSize int
	// Time allowed for output pipes to close after the adapter is stopped
	WaitDelay time.Duration
}

// Monitor runs adapters as child processes and extracts their verdict.
type Monitor struct {
	logger    zerolog.Logger
	launcher  Launcher
	verbose   bool
	out       io.Writer
	queueSize int
	waitDelay time.Duration
	tokens    map[string]model.ResultCode
	tokenRe   *regexp.Regexp
}

// NewMonitor creates a Monitor.
func NewMonitor(logger zerolog.Logger, opts Options) *Monitor {
	m := &Monitor{
		logger:    logger,
		launcher:  opts.Launcher,
		verbose:   opts.Verbose,
		out:       opts.Output,
		queueSize: opts.QueueSize,
		waitDelay: opts.WaitDelay,
		tokens:    tokenResults,
	}
	if m.out == nil {
		m.out = os.Stdout
	}
	if m.queueSize <= 0 {
		m.queueSize = defaultQueueSize
	}
	if m.waitDelay <= 0 {
		m.waitDelay = defaultWaitDelay
	}

	names := make([]string, 0, len(m.tokens))
	for _, name := range []string{"success", "failure", "error", "ioerr_copy", "ioerr_disk", "ioerr_serial", "timeout", "no_image", "end"} {
		names = append(names, regexp.QuoteMeta(name))
	}
	m.tokenRe = regexp.MustCompile(`\{(` + strings.Join(names, "|") + `)\}`)
	return m
}

// Run starts the adapter for req and watches its output until it prints
// the end token, closes its output or req.Duration seconds pass. The adapter
// is then stopped and the captured output classified with ParseResult.
// Failures to start the adapter yield TIMEOUT.
func (m *Monitor) Run(ctx context.Context, req Request) model.ResultCode {
	argv := m.launcher.Command(req)

	if m.verbose {
		m.logger.Info().Str("command", BuildCommand(argv)).Msg("Host test cmd")
	}

	output, err := m.capture(ctx, argv, time.Duration(req.Duration)*time.Second)
	if err != nil {
		m.logger.Error().Err(err).Str("host_test", req.Name).Msg("Host test failed to run")
	}

	if m.verbose {
		fmt.Fprintln(m.out, "Test::Output::Start")
		fmt.Fprintln(m.out, output)
		fmt.Fprintln(m.out, "Test::Output::Finish")
	}

	return m.ParseResult(output)
}

// capture runs argv and collects its standard output for at most duration.
func (m *Monitor) capture(ctx context.Context, argv []string, duration time.Duration) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pr, pw := io.Pipe()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = m.launcher.Dir
	cmd.Stdout = pw
	cmd.WaitDelay = m.waitDelay

	m.logger.Debug().
		Str("command", cmd.String()).
		Str("dir", cmd.Dir).
		Msg("Starting host test")

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	queue := make(chan byte, m.queueSize)
	done := make(chan struct{})

	var eg errgroup.Group
	eg.Go(func() error {
		err := cmd.Wait()
		_ = pw.Close()
		if err != nil {
			m.logger.Debug().Err(err).Msg("Host test exited")
		}
		return nil
	})
	eg.Go(func() error {
		defer close(queue)
		r := bufio.NewReader(pr)
		for {
			b, err := r.ReadByte()
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
					return nil
				}
				return err
			}
			select {
			case queue <- b:
			case <-done:
				return nil
			}
		}
	})

	output := m.poll(ctx, queue, duration)

	close(done)
	_ = pr.Close()
	cancel()
	if err := eg.Wait(); err != nil {
		return output, fmt.Errorf("failed to read host test output: %w", err)
	}
	return output, nil
}

// poll drains queue into lines until the end token, the end of output or
// the deadline.
func (m *Monitor) poll(ctx context.Context, queue <-chan byte, duration time.Duration) string {
	deadline := time.NewTimer(duration)
	defer deadline.Stop()

	var output, line strings.Builder
	for {
		select {
		case b, ok := <-queue:
			if !ok {
				return output.String()
			}
			output.WriteByte(b)
			if b != '\n' && b != '\r' {
				line.WriteByte(b)
				continue
			}
			if strings.Contains(line.String(), EndToken) {
				return output.String()
			}
			line.Reset()
		case <-deadline.C:
			m.logger.Debug().Dur("duration", duration).Msg("Host test deadline reached")
			return output.String()
		case <-ctx.Done():
			return output.String()
		}
	}
}

// ParseResult classifies adapter output. The first line holding a known
// token decides the result; output without a verdict is a TIMEOUT.
func (m *Monitor) ParseResult(output string) model.ResultCode {
	result := model.ResultTimeout

	sc := bufio.NewScanner(strings.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), len(output)+1)
	sc.Split(scanLines)
	for sc.Scan() {
		match := m.tokenRe.FindStringSubmatch(sc.Text())
		if match == nil {
			continue
		}
		result = m.tokens[match[1]]
		break
	}

	// {end} without a verdict
	if !result.Reported() && !result.Infrastructure() {
		return model.ResultTimeout
	}
	return result
}

// scanLines splits on "\n", "\r\n" and lone "\r".
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		switch b {
		case '\n':
			return i + 1, data[:i], nil
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			return 0, nil, nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
