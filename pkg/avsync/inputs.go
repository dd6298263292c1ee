package avsync

import (
	"fmt"
	"os"
)

type InputKind int

const (
	InputUndefined = InputKind(iota)
	InputVideo
	InputAudio
)

func (k InputKind) String() string {
	switch k {
	case InputUndefined:
		return "<undefined>"
	case InputVideo:
		return "video"
	case InputAudio:
		return "audio"
	default:
		return fmt.Sprintf("<unknown_input_%d>", int(k))
	}
}

type InputNotFoundError struct {
	Kind InputKind
	Path string
	Err  error
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("the %s file '%s' does not exist: %v", e.Kind, e.Path, e.Err)
}

func (e *InputNotFoundError) Unwrap() error {
	return e.Err
}

// CheckInputs verifies both input files exist; the video is checked first.
func CheckInputs(videoPath, audioPath string) error {
	if err := checkInput(InputVideo, videoPath); err != nil {
		return err
	}
	return checkInput(InputAudio, audioPath)
}

func checkInput(kind InputKind, path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return &InputNotFoundError{Kind: kind, Path: path, Err: err}
	}
	if stat.IsDir() {
		return &InputNotFoundError{Kind: kind, Path: path, Err: fmt.Errorf("is a directory")}
	}
	return nil
}
