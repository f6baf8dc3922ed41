package model

// ResultCode is the verdict of a single test execution.
type ResultCode string

const (
	ResultOK          ResultCode = "OK"
	ResultFail        ResultCode = "FAIL"
	ResultError       ResultCode = "ERROR"
	ResultUndef       ResultCode = "UNDEF"
	ResultIOErrCopy   ResultCode = "IOERR_COPY"
	ResultIOErrDisk   ResultCode = "IOERR_DISK"
	ResultIOErrSerial ResultCode = "IOERR_SERIAL"
	ResultTimeout     ResultCode = "TIMEOUT"
	ResultNoImage     ResultCode = "NO_IMAGE"
)

// ResultCodes lists every result code in reporting order.
var ResultCodes = []ResultCode{
	ResultOK,
	ResultFail,
	ResultError,
	ResultUndef,
	ResultIOErrCopy,
	ResultIOErrDisk,
	ResultIOErrSerial,
	ResultNoImage,
	ResultTimeout,
}

// Infrastructure reports whether the code means the harness could not
// observe a verdict from the test itself.
func (r ResultCode) Infrastructure() bool {
	switch r {
	case ResultIOErrCopy, ResultIOErrDisk, ResultIOErrSerial, ResultTimeout, ResultNoImage:
		return true
	}
	return false
}

// Reported reports whether the code was produced by the test logic running on the device.
func (r ResultCode) Reported() bool {
	switch r {
	case ResultOK, ResultFail, ResultError:
		return true
	}
	return false
}

func (r ResultCode) String() string {
	return string(r)
}
