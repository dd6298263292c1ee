package main

import (
	"context"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avsync/pkg/audio/audiofile"
	"github.com/xaionaro-go/avsync/pkg/avsync"
)

const exitCodeUsage = 2

func main() {
	cfg := avsync.DefaultConfig()

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	pflag.DurationVar(&cfg.MaxDuration, "max-duration", cfg.MaxDuration, "how much of each track to analyse; 0 means everything")
	pflag.Var(&cfg.Aligner.Strategy, "strategy", "the alignment strategy: subseqdtw or recurrence")
	pflag.IntVar(&cfg.Aligner.KNN, "knn", cfg.Aligner.KNN, "nearest neighbours kept by the recurrence strategy; 0 is automatic, negative keeps all")
	pflag.Float64Var(&cfg.Aligner.StepPenalty, "step-penalty", cfg.Aligner.StepPenalty, "the extra cost of non-diagonal steps of the subseqdtw strategy")
	pflag.Float64Var(&cfg.Aligner.GapOnset, "gap-onset", cfg.Aligner.GapOnset, "the penalty for opening a gap in the recurrence strategy")
	pflag.Float64Var(&cfg.Aligner.GapExtend, "gap-extend", cfg.Aligner.GapExtend, "the penalty for extending a gap in the recurrence strategy")
	pflag.BoolVar(&cfg.CrossCheck, "cross-check", cfg.CrossCheck, "also report the offset found by a cross-correlation")
	pflag.Parse()

	if pflag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "expected exactly two arguments: <reference-audio-file> <comparison-audio-file>\n\n")
		pflag.Usage()
		os.Exit(exitCodeUsage)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	loadCfg := audiofile.LoadConfig{
		SampleRate:  cfg.SampleRate,
		MaxDuration: cfg.MaxDuration,
	}
	reference, err := audiofile.Load(ctx, pflag.Arg(0), loadCfg)
	assertNoError(err)
	comparison, err := audiofile.Load(ctx, pflag.Arg(1), loadCfg)
	assertNoError(err)

	estimate, err := avsync.EstimateOffset(ctx, cfg, reference, comparison)
	assertNoError(err)

	fmt.Printf("offset: %.3fs\n", estimate.Offset)
	fmt.Printf("confidence: %.2f (%d of %d path points)\n", estimate.Confidence, estimate.Details.Offset.Retained, estimate.Details.Offset.Total)
	if estimate.CrossChecked {
		fmt.Printf("cross-correlation offset: %.3fs\n", estimate.CrossCheckOffset)
	}
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
