package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xaionaro-go/avsync/pkg/avsync"
	"github.com/xaionaro-go/avsync/pkg/ffmpeg"
)

func TestExitCode(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		code int
	}{
		{"OK", nil, 0},
		{"Generic", fmt.Errorf("something"), 1},
		{"VideoNotFound", &avsync.InputNotFoundError{Kind: avsync.InputVideo}, 3},
		{"AudioNotFound", &avsync.InputNotFoundError{Kind: avsync.InputAudio}, 4},
		{"ExternalTool", fmt.Errorf("unable to combine: %w", &ffmpeg.ExternalToolError{ExitCode: 1}), 5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, exitCode(tc.err))
		})
	}
	assert.Equal(t, 2, exitCodeUsage)
}
