package loop

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiltest/hiltest/deploy"
	"github.com/hiltest/hiltest/hosttest"
	"github.com/hiltest/hiltest/model"
)

type fakeDeployer struct {
	results    []bool
	calls      int
	extraCalls int
	extraErr   error
}

func (f *fakeDeployer) DeployImage(_ context.Context, _, _ string, _ model.Device) deploy.Result {
	ok := true
	if f.calls < len(f.results) {
		ok = f.results[f.calls]
	}
	f.calls++
	if !ok {
		return deploy.Result{MethodUsed: "native copy", Message: "disk not mounted"}
	}
	return deploy.Result{OK: true, MethodUsed: "native copy"}
}

func (f *fakeDeployer) CopyExtraFiles(_ []string, _ model.Device) error {
	f.extraCalls++
	return f.extraErr
}

type fakeMonitor struct {
	results  []model.ResultCode
	requests []hosttest.Request
}

func (f *fakeMonitor) Run(_ context.Context, req hosttest.Request) model.ResultCode {
	f.requests = append(f.requests, req)
	res := f.results[(len(f.requests)-1)%len(f.results)]
	return res
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "MBED_A1.bin")
	require.NoError(t, os.WriteFile(path, []byte("image"), 0644))
	return path
}

func newJob(t *testing.T, loops int) Job {
	return Job{
		Test:      model.TestCase{ID: "MBED_A1", Description: "Basic", HostTest: "echo", ExtraFiles: []string{"data.txt"}},
		Target:    model.Target{Name: "K64F", Toolchains: []string{"GCC_ARM"}},
		Toolchain: "GCC_ARM",
		Device:    model.Device{MCU: "K64F", Disk: "/mnt/K64F", Port: "/dev/ttyACM0"},
		Image:     writeImage(t),
		Loops:     loops,
		Duration:  20,
	}
}

func newRunner(d Deployer, m Monitor, out *bytes.Buffer, sleeps *[]time.Duration) *Runner {
	return New(zerolog.Nop(), d, m, Options{
		ResetType: "default",
		Output:    out,
		Sleep:     func(d time.Duration) { *sleeps = append(*sleeps, d) },
	})
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		results []model.ResultCode
		want    model.ResultCode
	}{
		{name: "single", results: []model.ResultCode{model.ResultOK}, want: model.ResultOK},
		{name: "all ok", results: []model.ResultCode{model.ResultOK, model.ResultOK, model.ResultOK}, want: model.ResultOK},
		{name: "all timeout", results: []model.ResultCode{model.ResultTimeout, model.ResultTimeout}, want: model.ResultTimeout},
		{name: "one divergent", results: []model.ResultCode{model.ResultOK, model.ResultOK, model.ResultTimeout}, want: model.ResultFail},
		{name: "empty", results: nil, want: model.ResultFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.results))
		})
	}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, "2/3", Ratio([]model.ResultCode{model.ResultOK, model.ResultOK, model.ResultTimeout}, 3))
	assert.Equal(t, "0/5", Ratio(nil, 5))
}

func TestRunAllOK(t *testing.T) {
	var out bytes.Buffer
	var sleeps []time.Duration
	d := &fakeDeployer{}
	m := &fakeMonitor{results: []model.ResultCode{model.ResultOK}}

	rec, err := newRunner(d, m, &out, &sleeps).Run(context.Background(), newJob(t, 3))
	require.NoError(t, err)

	assert.Equal(t, model.ResultOK, rec.Result)
	assert.Equal(t, "3/3", rec.Loops)
	assert.Equal(t, 20, rec.Duration)
	assert.Equal(t, []model.ResultCode{model.ResultOK, model.ResultOK, model.ResultOK}, rec.LoopResults)
	assert.Equal(t, 3, d.calls)
	assert.Equal(t, 3, d.extraCalls)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 1500 * time.Millisecond, 1500 * time.Millisecond}, sleeps)
	assert.Contains(t, out.String(), "TargetTest::K64F::GCC_ARM::MBED_A1::Basic [OK] in ")
	assert.Contains(t, out.String(), " of 20 sec")

	require.Len(t, m.requests, 3)
	assert.Equal(t, hosttest.Request{
		Name: "echo", Port: "/dev/ttyACM0", Disk: "/mnt/K64F", Duration: 20, ResetType: "default",
	}, m.requests[0])
}

func TestRunDivergentLoopFails(t *testing.T) {
	var out bytes.Buffer
	var sleeps []time.Duration
	m := &fakeMonitor{results: []model.ResultCode{model.ResultOK, model.ResultOK, model.ResultTimeout}}

	rec, err := newRunner(&fakeDeployer{}, m, &out, &sleeps).Run(context.Background(), newJob(t, 3))
	require.NoError(t, err)

	assert.Equal(t, model.ResultFail, rec.Result)
	assert.Equal(t, "2/3", rec.Loops)
}

func TestRunDeployFailureSkipsMonitor(t *testing.T) {
	var out bytes.Buffer
	var sleeps []time.Duration
	d := &fakeDeployer{results: []bool{true, false}}
	m := &fakeMonitor{results: []model.ResultCode{model.ResultOK}}

	rec, err := newRunner(d, m, &out, &sleeps).Run(context.Background(), newJob(t, 2))
	require.NoError(t, err)

	assert.Equal(t, []model.ResultCode{model.ResultOK, model.ResultIOErrCopy}, rec.LoopResults)
	assert.Equal(t, model.ResultFail, rec.Result)
	assert.Equal(t, "1/2", rec.Loops)
	assert.Len(t, m.requests, 1)
	assert.Len(t, sleeps, 1)
}

func TestRunMissingImage(t *testing.T) {
	var out bytes.Buffer
	var sleeps []time.Duration
	d := &fakeDeployer{}
	m := &fakeMonitor{results: []model.ResultCode{model.ResultOK}}

	job := newJob(t, 4)
	job.Image = filepath.Join(t.TempDir(), "missing.bin")
	rec, err := newRunner(d, m, &out, &sleeps).Run(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, model.ResultNoImage, rec.Result)
	assert.Equal(t, "0/4", rec.Loops)
	assert.Zero(t, rec.Elapsed)
	assert.Zero(t, d.calls)
	assert.Empty(t, m.requests)
}

func TestRunVirtualDiskSkipsExtraFiles(t *testing.T) {
	var out bytes.Buffer
	var sleeps []time.Duration
	d := &fakeDeployer{}
	m := &fakeMonitor{results: []model.ResultCode{model.ResultOK}}

	job := newJob(t, 1)
	job.Target.VirtualDisk = true
	rec, err := newRunner(d, m, &out, &sleeps).Run(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, model.ResultOK, rec.Result)
	assert.Zero(t, d.extraCalls)
	assert.Equal(t, []time.Duration{4 * time.Second}, sleeps)
}

func TestRunExtraFilesFailureIsNotFatal(t *testing.T) {
	var out bytes.Buffer
	var sleeps []time.Duration
	d := &fakeDeployer{extraErr: errors.New("disk full")}
	m := &fakeMonitor{results: []model.ResultCode{model.ResultOK}}

	rec, err := newRunner(d, m, &out, &sleeps).Run(context.Background(), newJob(t, 1))
	require.NoError(t, err)
	assert.Equal(t, model.ResultOK, rec.Result)
}

func TestRunDeviceSettings(t *testing.T) {
	var out bytes.Buffer
	var sleeps []time.Duration
	m := &fakeMonitor{results: []model.ResultCode{model.ResultOK}}

	tout := 5
	job := newJob(t, 0)
	job.Device.ResetType = "reboot.txt"
	job.Device.ResetTimeout = &tout
	rec, err := newRunner(&fakeDeployer{}, m, &out, &sleeps).Run(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, "1/1", rec.Loops)
	require.Len(t, m.requests, 1)
	assert.Equal(t, "reboot.txt", m.requests[0].ResetType)
	assert.Equal(t, &tout, m.requests[0].ResetTimeout)
}

func TestRunCancelledBeforeFirstLoop(t *testing.T) {
	var out bytes.Buffer
	var sleeps []time.Duration
	d := &fakeDeployer{}
	m := &fakeMonitor{results: []model.ResultCode{model.ResultOK}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := newRunner(d, m, &out, &sleeps).Run(ctx, newJob(t, 3))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, model.Record{}, rec)
	assert.Zero(t, d.calls)
	assert.Empty(t, out.String())
}

func TestRunRecordsCarryFinalVerdicts(t *testing.T) {
	var out bytes.Buffer
	var sleeps []time.Duration

	for _, res := range model.ResultCodes {
		if res == model.ResultUndef {
			continue
		}
		t.Run(string(res), func(t *testing.T) {
			m := &fakeMonitor{results: []model.ResultCode{res, model.ResultOK}}
			rec, err := newRunner(&fakeDeployer{}, m, &out, &sleeps).Run(context.Background(), newJob(t, 2))
			require.NoError(t, err)
			assert.True(t, rec.Result.Reported() || rec.Result.Infrastructure(), rec.Result)
			assert.NotEqual(t, model.ResultUndef, rec.Result)
		})
	}
}
