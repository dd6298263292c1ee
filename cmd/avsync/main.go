package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/avsync/pkg/avsync"
	"github.com/xaionaro-go/observability"
)

func main() {
	cfg := avsync.DefaultConfig()

	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	videoPath := pflag.StringP("video", "v", "", "the video file to take the video stream and the reference audio from (required)")
	audioPath := pflag.StringP("audio", "a", "", "the audio file to put into the video (required)")
	outputPath := pflag.StringP("output", "o", "", "the video file to write (required)")
	registerConfigFlags(pflag.CommandLine, &cfg)
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	pflag.Parse()

	if *videoPath == "" || *audioPath == "" || *outputPath == "" {
		fmt.Fprintf(os.Stderr, "the flags --video, --audio and --output are required\n\n")
		pflag.Usage()
		os.Exit(exitCodeUsage)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}

	if *netPprofAddr != "" {
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt)
	result, err := avsync.Run(ctx, cfg, *videoPath, *audioPath, *outputPath)
	cancelFn()
	if err != nil {
		logger.Error(ctx, err)
		belt.Flush(ctx)
		os.Exit(exitCode(err))
	}
	fmt.Printf("offset: %.3fs (confidence %.2f)\n", result.Estimate.Offset, result.Estimate.Confidence)
	fmt.Printf("synced and combined successfully to %s\n", result.OutputPath)
	belt.Flush(ctx)
}
