// Package chromasync estimates the shift between tracks by aligning their chromagrams.
//
// Both tracks are converted to chroma features, a correspondence path between
// the feature sequences is searched for, and the robust mean of the time
// differences along the path is reported as the shift.
package chromasync

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/avsync/pkg/aligner"
	_ "github.com/xaionaro-go/avsync/pkg/aligner/implementations/recurrence"
	_ "github.com/xaionaro-go/avsync/pkg/aligner/implementations/subseqdtw"
	"github.com/xaionaro-go/avsync/pkg/audio"
	"github.com/xaionaro-go/avsync/pkg/chroma"
	"github.com/xaionaro-go/avsync/pkg/offset"
	"github.com/xaionaro-go/avsync/pkg/syncer"
	"github.com/xaionaro-go/observability"
)

type Syncer struct {
	Extractor *chroma.Extractor
	Aligner   aligner.Aligner
}

var _ syncer.Syncer = (*Syncer)(nil)

func NewSyncer(
	chromaCfg chroma.Config,
	alignerCfg aligner.Config,
) (*Syncer, error) {
	extractor, err := chroma.NewExtractor(chromaCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the chroma extractor: %w", err)
	}
	a, err := aligner.New(alignerCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the aligner: %w", err)
	}
	return &Syncer{
		Extractor: extractor,
		Aligner:   a,
	}, nil
}

// Details is the detailed outcome for a single comparison track.
type Details struct {
	Path   aligner.Path
	Offset offset.Result
}

func (s *Syncer) CalculateShiftBetween(
	ctx context.Context,
	referenceTrack audio.Waveform,
	comparisonTracks ...audio.Waveform,
) ([]syncer.ShiftResult, error) {
	estimates, err := s.CalculateShiftDetails(ctx, referenceTrack, comparisonTracks...)
	if err != nil {
		return nil, err
	}
	results := make([]syncer.ShiftResult, len(estimates))
	for idx, estimate := range estimates {
		results[idx] = syncer.ShiftResult{
			Shift:      estimate.Offset.Offset,
			Confidence: estimate.Offset.Confidence(),
		}
	}
	return results, nil
}

// CalculateShiftDetails is CalculateShiftBetween which also returns the intermediate results.
func (s *Syncer) CalculateShiftDetails(
	ctx context.Context,
	referenceTrack audio.Waveform,
	comparisonTracks ...audio.Waveform,
) ([]Details, error) {
	if err := syncer.CheckTracks(referenceTrack, comparisonTracks...); err != nil {
		return nil, err
	}

	matrices, err := s.extractAll(ctx, append([]audio.Waveform{referenceTrack}, comparisonTracks...))
	if err != nil {
		return nil, err
	}
	reference := matrices[0]

	cfg := s.Extractor.Config()
	estimates := make([]Details, len(comparisonTracks))
	for idx, comparison := range matrices[1:] {
		path, err := s.Aligner.Align(ctx, comparison, reference)
		if err != nil {
			return nil, fmt.Errorf("unable to align comparison track #%d (%d frames) with the reference track (%d frames): %w", idx, comparison.Len(), reference.Len(), err)
		}
		if len(path) > 0 {
			first, last := path[0], path[len(path)-1]
			logger.Debugf(ctx, "comparison track #%d: matched %.2fs-%.2fs of it to %.2fs-%.2fs of the reference",
				idx, comparison.FrameTime(first.A), comparison.FrameTime(last.A), reference.FrameTime(first.B), reference.FrameTime(last.B))
		}
		// the recurrence aligner finds no path when nothing recurs (e.g. silence), Estimate reports it as ErrDegenerateAlignment
		result, err := offset.Estimate(path, cfg.HopSize, cfg.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("unable to estimate the offset of comparison track #%d: %w", idx, err)
		}
		logger.Debugf(ctx, "comparison track #%d: path of %d points, offset %fs (mean %fs, stddev %fs, %d points retained)",
			idx, len(path), result.Offset, result.Mean, result.StdDev, result.Retained)
		estimates[idx] = Details{
			Path:   path,
			Offset: result,
		}
	}
	return estimates, nil
}

// extractAll computes the chromagrams of the tracks concurrently.
func (s *Syncer) extractAll(
	ctx context.Context,
	tracks []audio.Waveform,
) ([]*chroma.Matrix, error) {
	matrices := make([]*chroma.Matrix, len(tracks))
	errs := make([]error, len(tracks))

	var wg sync.WaitGroup
	for idx, track := range tracks {
		wg.Add(1)
		observability.Go(ctx, func() {
			defer wg.Done()
			matrices[idx], errs[idx] = s.Extractor.Extract(ctx, track)
		})
	}
	wg.Wait()

	var mErr *multierror.Error
	for idx, err := range errs {
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to extract the chroma features of track #%d: %w", idx, err))
		}
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return matrices, nil
}
