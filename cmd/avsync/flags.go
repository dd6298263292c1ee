package main

import (
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avsync/pkg/avsync"
)

// registerConfigFlags binds the tunables of cfg to flags; the current values become the defaults.
func registerConfigFlags(flags *pflag.FlagSet, cfg *avsync.Config) {
	flags.Uint32Var((*uint32)(&cfg.SampleRate), "sample-rate", uint32(cfg.SampleRate), "the sample rate the tracks are analysed at")
	flags.IntVar(&cfg.FFTSize, "fft-size", cfg.FFTSize, "the analysis window size in samples")
	flags.IntVar(&cfg.HopSize, "hop-size", cfg.HopSize, "the distance between analysis windows in samples")
	flags.DurationVar(&cfg.MaxDuration, "max-duration", cfg.MaxDuration, "how much of each track to analyse; 0 means everything")
	flags.Var(&cfg.Aligner.Strategy, "strategy", "the alignment strategy: subseqdtw or recurrence")
	flags.IntVar(&cfg.Aligner.KNN, "knn", cfg.Aligner.KNN, "nearest neighbours kept by the recurrence strategy; 0 is automatic, negative keeps all")
	flags.Float64Var(&cfg.Aligner.StepPenalty, "step-penalty", cfg.Aligner.StepPenalty, "the extra cost of non-diagonal steps of the subseqdtw strategy")
	flags.Float64Var(&cfg.Aligner.GapOnset, "gap-onset", cfg.Aligner.GapOnset, "the penalty for opening a gap in the recurrence strategy")
	flags.Float64Var(&cfg.Aligner.GapExtend, "gap-extend", cfg.Aligner.GapExtend, "the penalty for extending a gap in the recurrence strategy")
	flags.BoolVar(&cfg.CrossCheck, "cross-check", cfg.CrossCheck, "verify the offset with a cross-correlation and warn on a disagreement")
	flags.DurationVar(&cfg.CrossCheckTolerance, "cross-check-tolerance", cfg.CrossCheckTolerance, "the allowed disagreement of the cross-check")
	flags.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "the path to the ffmpeg binary")
	flags.StringVar(&cfg.TempDir, "temp-dir", cfg.TempDir, "the directory for temporary files")
	flags.StringVar(&cfg.AudioBitrate, "audio-bitrate", cfg.AudioBitrate, "the bitrate of the audio stream of the output")
}
