package main

import (
	"errors"

	"github.com/xaionaro-go/avsync/pkg/avsync"
	"github.com/xaionaro-go/avsync/pkg/ffmpeg"
)

const (
	exitCodeOK = iota
	exitCodeFailure
	exitCodeUsage
	exitCodeVideoNotFound
	exitCodeAudioNotFound
	exitCodeExternalTool
)

func exitCode(err error) int {
	if err == nil {
		return exitCodeOK
	}

	var notFound *avsync.InputNotFoundError
	if errors.As(err, &notFound) {
		switch notFound.Kind {
		case avsync.InputVideo:
			return exitCodeVideoNotFound
		case avsync.InputAudio:
			return exitCodeAudioNotFound
		}
	}

	var toolErr *ffmpeg.ExternalToolError
	if errors.As(err, &toolErr) {
		return exitCodeExternalTool
	}

	return exitCodeFailure
}
