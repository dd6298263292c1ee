// Package avsync replaces the audio of a video with an external recording of
// the same performance, shifted so that both are in sync.
package avsync

import (
	"context"
	"fmt"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/xaionaro-go/avsync/pkg/audio"
	"github.com/xaionaro-go/avsync/pkg/audio/audiofile"
	"github.com/xaionaro-go/avsync/pkg/audio/resampler"
	"github.com/xaionaro-go/avsync/pkg/ffmpeg"
	"github.com/xaionaro-go/avsync/pkg/scratch"
	"github.com/xaionaro-go/avsync/pkg/shift"
	"github.com/xaionaro-go/avsync/pkg/syncer/implementations/chromasync"
	"github.com/xaionaro-go/avsync/pkg/syncer/implementations/gccphat"
)

// Estimate is the offset of a comparison track relative to a reference track,
// in seconds; positive means the content appears later in the comparison.
type Estimate struct {
	Offset     float64
	Confidence float64
	Details    chromasync.Details

	CrossChecked     bool
	CrossCheckOffset float64
}

type Result struct {
	RunID    uuid.UUID
	Estimate Estimate

	// ShiftedSamples is the amount of frames trimmed from (positive offset)
	// or prepended to (otherwise) the audio track, per channel.
	ShiftedSamples int
	OutputPath     string
}

// EstimateOffset calculates the offset of comparison relative to reference.
// Both waveforms must have cfg.SampleRate.
func EstimateOffset(
	ctx context.Context,
	cfg Config,
	reference audio.Waveform,
	comparison audio.Waveform,
) (_ret Estimate, _err error) {
	logger.Debugf(ctx, "EstimateOffset: %d reference samples, %d comparison samples", reference.Len(), comparison.Len())
	defer func() { logger.Debugf(ctx, "/EstimateOffset: %#+v, %v", _ret.Offset, _err) }()

	if err := cfg.Validate(); err != nil {
		return Estimate{}, fmt.Errorf("invalid configuration: %w", err)
	}

	s, err := chromasync.NewSyncer(cfg.chromaConfig(), cfg.Aligner)
	if err != nil {
		return Estimate{}, fmt.Errorf("unable to initialize the syncer: %w", err)
	}
	details, err := s.CalculateShiftDetails(ctx, reference, comparison)
	if err != nil {
		return Estimate{}, fmt.Errorf("unable to calculate the shift: %w", err)
	}
	result := Estimate{
		Offset:     details[0].Offset.Offset,
		Confidence: details[0].Offset.Confidence(),
		Details:    details[0],
	}
	logger.Infof(ctx, "estimated offset: %.3fs (confidence %.2f)", result.Offset, result.Confidence)

	if !cfg.CrossCheck {
		return result, nil
	}
	crossCheckOffset, err := crossCheck(ctx, cfg, reference, comparison)
	if err != nil {
		logger.Warnf(ctx, "unable to cross-check the offset: %v", err)
		return result, nil
	}
	result.CrossChecked = true
	result.CrossCheckOffset = crossCheckOffset
	if diff := math.Abs(crossCheckOffset - result.Offset); diff > cfg.CrossCheckTolerance.Seconds() {
		logger.Warnf(ctx, "the cross-correlation offset %.3fs disagrees with the chroma offset %.3fs by %.3fs", crossCheckOffset, result.Offset, diff)
	}
	return result, nil
}

func crossCheck(
	ctx context.Context,
	cfg Config,
	reference audio.Waveform,
	comparison audio.Waveform,
) (float64, error) {
	reference, err := resampler.Resample(reference, cfg.CrossCheckSampleRate)
	if err != nil {
		return 0, fmt.Errorf("unable to resample the reference track: %w", err)
	}
	comparison, err = resampler.Resample(comparison, cfg.CrossCheckSampleRate)
	if err != nil {
		return 0, fmt.Errorf("unable to resample the comparison track: %w", err)
	}

	s := gccphat.NewSyncer()
	if nyquist := float64(cfg.CrossCheckSampleRate) / 2; s.MaxFreq > nyquist {
		s.MaxFreq = nyquist
	}
	results, err := s.CalculateShiftBetween(ctx, reference, comparison)
	if err != nil {
		return 0, err
	}
	return results[0].Shift, nil
}

// Run writes to outputPath the video stream of videoPath combined with the
// audio of audioPath shifted to be in sync with the original audio of the video.
func Run(
	ctx context.Context,
	cfg Config,
	videoPath string,
	audioPath string,
	outputPath string,
) (_ret Result, _err error) {
	runID := uuid.New()
	ctx = logger.CtxWithLogger(ctx, logger.FromCtx(ctx).WithField("run_id", runID.String()))
	logger.Debugf(ctx, "Run(ctx, '%s', '%s', '%s')", videoPath, audioPath, outputPath)
	defer func() { logger.Debugf(ctx, "/Run(ctx, '%s', '%s', '%s'): %v", videoPath, audioPath, outputPath, _err) }()

	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := CheckInputs(videoPath, audioPath); err != nil {
		return Result{}, err
	}

	tmp, err := scratch.New(cfg.TempDir)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := tmp.Close(); err != nil {
			logger.Errorf(ctx, "unable to clean up the temporary files: %v", err)
		}
	}()

	ff := ffmpeg.New(cfg.FFmpegPath)
	videoAudioPath := tmp.Path("video-audio.wav")
	err = ff.Extract(ctx, videoPath, videoAudioPath, ffmpeg.ExtractConfig{
		SampleRate:  cfg.SampleRate,
		MaxDuration: cfg.MaxDuration,
	})
	if err != nil {
		return Result{}, err
	}

	loadCfg := audiofile.LoadConfig{
		SampleRate:  cfg.SampleRate,
		MaxDuration: cfg.MaxDuration,
	}
	reference, err := audiofile.Load(ctx, videoAudioPath, loadCfg)
	if err != nil {
		return Result{}, fmt.Errorf("unable to load the audio of the video: %w", err)
	}
	comparison, err := audiofile.Load(ctx, audioPath, loadCfg)
	if err != nil {
		return Result{}, fmt.Errorf("unable to load the audio track: %w", err)
	}

	estimate, err := EstimateOffset(ctx, cfg, reference, comparison)
	if err != nil {
		return Result{}, err
	}

	// the analysis used a capped mono copy, the output keeps every sample and channel
	fullAudio, err := audiofile.LoadInterleaved(ctx, audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("unable to load the whole audio track: %w", err)
	}
	synced := shift.ApplyInterleaved(fullAudio, estimate.Offset)

	syncedPath := tmp.Path("synced.wav")
	if err := audiofile.SaveInterleavedWAV(syncedPath, synced, cfg.OutputBitDepth); err != nil {
		return Result{}, fmt.Errorf("unable to save the shifted audio: %w", err)
	}

	if err := ff.Combine(ctx, syncedPath, videoPath, outputPath, cfg.combineConfig()); err != nil {
		return Result{}, err
	}
	logger.Infof(ctx, "synced and combined successfully to '%s'", outputPath)

	return Result{
		RunID:          runID,
		Estimate:       estimate,
		ShiftedSamples: shift.Samples(estimate.Offset, fullAudio.SampleRate),
		OutputPath:     outputPath,
	}, nil
}
