package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultCodeClasses(t *testing.T) {
	tests := []struct {
		code           ResultCode
		reported       bool
		infrastructure bool
	}{
		{code: ResultOK, reported: true},
		{code: ResultFail, reported: true},
		{code: ResultError, reported: true},
		{code: ResultUndef},
		{code: ResultIOErrCopy, infrastructure: true},
		{code: ResultIOErrDisk, infrastructure: true},
		{code: ResultIOErrSerial, infrastructure: true},
		{code: ResultNoImage, infrastructure: true},
		{code: ResultTimeout, infrastructure: true},
	}

	assert.Len(t, tests, len(ResultCodes))
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.reported, tt.code.Reported())
			assert.Equal(t, tt.infrastructure, tt.code.Infrastructure())
		})
	}
}
