package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avsync/pkg/audio"
	"github.com/xaionaro-go/avsync/pkg/audio/audiofile"
	"github.com/xaionaro-go/avsync/pkg/audio/synth"
)

// avgen writes a random melody as two WAV files, the second one shifted
// relative to the first one, for trying out avoffset.
func main() {
	melodyCfg := synth.DefaultMelodyConfig()

	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	pflag.Uint32Var((*uint32)(&melodyCfg.SampleRate), "sample-rate", uint32(melodyCfg.SampleRate), "")
	pflag.DurationVar(&melodyCfg.Duration, "duration", 20*time.Second, "the duration of the melody")
	pflag.Int64Var(&melodyCfg.Seed, "seed", time.Now().UnixNano(), "the random seed of the melody")
	offset := pflag.Duration("offset", -2*time.Second, "positive: the comparison has an extra head; negative: the reference has a leading silence")
	bitDepth := pflag.Int("bit-depth", 16, "")
	pflag.Parse()

	if pflag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "expected exactly two arguments: <reference-output.wav> <comparison-output.wav>\n\n")
		pflag.Usage()
		os.Exit(2)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	track := synth.Melody(melodyCfg)
	var reference audio.Waveform
	if *offset > 0 {
		reference = synth.Slice(track, *offset, 0)
	} else {
		reference = synth.Concat(synth.Silence(melodyCfg.SampleRate, -*offset), track)
	}
	logger.Infof(ctx, "generated a %v melody with seed %d", track.Duration(), melodyCfg.Seed)

	assertNoError(audiofile.SaveWAV(pflag.Arg(0), reference, *bitDepth))
	assertNoError(audiofile.SaveWAV(pflag.Arg(1), track, *bitDepth))
	fmt.Printf("expected offset: %.3fs\n", offset.Seconds())
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
