package hosttest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArgs(t *testing.T) {
	tout := 3
	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "required only",
			req:  Request{Name: "echo", Port: "/dev/ttyACM0", Disk: "/mnt/K64F", Duration: 20},
			want: []string{"-p", "/dev/ttyACM0", "-d", "/mnt/K64F", "-t", "20"},
		},
		{
			name: "all options",
			req: Request{
				Name: "echo", Port: "COM4", Disk: "E:", Duration: 10,
				Extra: "COM5", ResetType: "default", ResetTimeout: &tout,
			},
			want: []string{"-p", "COM4", "-d", "E:", "-t", "10", "-e", "COM5", "-r", "default", "-R", "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildArgs(tt.req))
		})
	}
}

func TestLauncherCommand(t *testing.T) {
	req := Request{Name: "wait_us_auto", Port: "/dev/ttyACM0", Disk: "/mnt/K64F", Duration: 5}

	interpreted := Launcher{Dir: "host_tests", Interpreter: "python -u"}
	assert.Equal(t,
		[]string{"python", "-u", "wait_us_auto.py", "-p", "/dev/ttyACM0", "-d", "/mnt/K64F", "-t", "5"},
		interpreted.Command(req))

	direct := Launcher{Dir: "host_tests"}
	assert.Equal(t, "./wait_us_auto", direct.Command(req)[0])
}

func TestBuildCommand(t *testing.T) {
	cmd := BuildCommand([]string{"python", "echo.py", "-d", "/media/my disk"})
	assert.Equal(t, "python echo.py -d '/media/my disk'", cmd)
}
