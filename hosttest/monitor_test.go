package hosttest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiltest/hiltest/model"
)

func TestParseResult(t *testing.T) {
	m := NewMonitor(zerolog.Nop(), Options{})

	tests := []struct {
		name   string
		output string
		want   model.ResultCode
	}{
		{name: "success", output: "MBED: start\n{success}\n{end}\n", want: model.ResultOK},
		{name: "first token wins", output: "{error}\n{success}\n{end}\n", want: model.ResultError},
		{name: "token anywhere in line", output: "Test result: {failure} (3 errors)\r\n{end}\r\n", want: model.ResultFail},
		{name: "carriage returns only", output: "noise\r{ioerr_serial}\r{end}\r", want: model.ResultIOErrSerial},
		{name: "end only", output: "{end}\n", want: model.ResultTimeout},
		{name: "no token", output: "hello\nworld\n", want: model.ResultTimeout},
		{name: "empty", output: "", want: model.ResultTimeout},
		{name: "unknown token", output: "{passed}\n{no_image}\n", want: model.ResultNoImage},
		{name: "no trailing newline", output: "{ioerr_disk}", want: model.ResultIOErrDisk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.ParseResult(tt.output))
		})
	}
}

// writeAdapter creates a shell script adapter named name.py in dir.
func writeAdapter(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".py"), []byte(body), 0644))
}

func newShellMonitor(t *testing.T, out *bytes.Buffer) (*Monitor, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("host test adapters are shell scripts")
	}
	dir := t.TempDir()
	m := NewMonitor(zerolog.Nop(), Options{
		Launcher:  Launcher{Dir: dir, Interpreter: "sh"},
		Verbose:   out != nil,
		Output:    out,
		WaitDelay: 200 * time.Millisecond,
	})
	return m, dir
}

func request(name string, duration int) Request {
	return Request{Name: name, Port: "/dev/ttyACM0", Disk: "/mnt/K64F", Duration: duration}
}

func TestRunEndTokenExitsEarly(t *testing.T) {
	m, dir := newShellMonitor(t, nil)
	writeAdapter(t, dir, "echo_ok", "echo '{success}'\necho '{end}'\nsleep 30\n")

	start := time.Now()
	result := m.Run(context.Background(), request("echo_ok", 20))

	assert.Equal(t, model.ResultOK, result)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunFirstTokenWins(t *testing.T) {
	m, dir := newShellMonitor(t, nil)
	writeAdapter(t, dir, "mixed", "printf '{error}\\n{success}\\n{end}\\n'\n")

	assert.Equal(t, model.ResultError, m.Run(context.Background(), request("mixed", 5)))
}

func TestRunEndWithoutVerdict(t *testing.T) {
	m, dir := newShellMonitor(t, nil)
	writeAdapter(t, dir, "silent", "echo '{end}'\n")

	assert.Equal(t, model.ResultTimeout, m.Run(context.Background(), request("silent", 5)))
}

func TestRunDeadline(t *testing.T) {
	m, dir := newShellMonitor(t, nil)
	writeAdapter(t, dir, "hang", "echo '{success}'\nsleep 30\necho '{failure}'\n")

	start := time.Now()
	result := m.Run(context.Background(), request("hang", 1))

	assert.Equal(t, model.ResultOK, result)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunVerboseOutputAndArgs(t *testing.T) {
	var out bytes.Buffer
	m, dir := newShellMonitor(t, &out)
	writeAdapter(t, dir, "args", "echo \"args: $*\"\necho '{success}'\necho '{end}'\n")

	tout := 2
	req := request("args", 5)
	req.ResetType = "default"
	req.ResetTimeout = &tout

	require.Equal(t, model.ResultOK, m.Run(context.Background(), req))
	assert.Contains(t, out.String(), "Test::Output::Start\n")
	assert.Contains(t, out.String(), "args: -p /dev/ttyACM0 -d /mnt/K64F -t 5 -r default -R 2\n")
	assert.Contains(t, out.String(), "Test::Output::Finish\n")
}

func TestRunMissingAdapter(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("adapter lookup differs on Windows")
	}
	m := NewMonitor(zerolog.Nop(), Options{Launcher: Launcher{Dir: t.TempDir()}})

	assert.Equal(t, model.ResultTimeout, m.Run(context.Background(), request("missing", 1)))
}

func TestRunDirectExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("host test adapters are shell scripts")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "direct"), []byte("#!/bin/sh\necho '{failure}'\necho '{end}'\n"), 0755))

	m := NewMonitor(zerolog.Nop(), Options{Launcher: Launcher{Dir: dir}})
	assert.Equal(t, model.ResultFail, m.Run(context.Background(), request("direct", 5)))
}

func TestRunContextCancelled(t *testing.T) {
	m, dir := newShellMonitor(t, nil)
	writeAdapter(t, dir, "slow", "sleep 30\n")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.Equal(t, model.ResultTimeout, m.Run(ctx, request("slow", 20)))
	assert.Less(t, time.Since(start), 10*time.Second)
}
