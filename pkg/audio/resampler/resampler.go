package resampler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/xaionaro-go/avsync/pkg/audio"
	"github.com/xaionaro-go/avsync/pkg/audio/types"
)

const (
	distanceStep = 10000

	waveformReadBufferSize = 64 * 1024
)

type Format struct {
	Channels   audio.Channel
	SampleRate audio.SampleRate
	PCMFormat  types.PCMFormat
}

func (f Format) frameSize() uint {
	return uint(f.PCMFormat.Size()) * uint(f.Channels)
}

type precalculated struct {
	inSampleSize    uint
	outSampleSize   uint
	inNumAvg        uint
	outNumRepeat    uint
	outDistanceStep uint64
}

// Resampler is an io.Reader converting interleaved PCM of one Format into another.
//
// Channels are mixed down by averaging (N -> 1) or duplicated (1 -> N). When
// downsampling, all input frames falling into one output period are averaged
// into that output sample; when upsampling, the last input sample is held.
type Resampler struct {
	inReader    io.Reader
	inFormat    Format
	outFormat   Format
	inDistance  uint64
	outDistance uint64
	locker      sync.Mutex
	pending     []byte
	accSum      float64
	accCount    uint
	lastValue   float64
	precalculated
}

var _ io.Reader = (*Resampler)(nil)

func NewResampler(
	inFormat Format,
	inReader io.Reader,
	outFormat Format,
) (*Resampler, error) {
	r := &Resampler{
		inReader:  inReader,
		inFormat:  inFormat,
		outFormat: outFormat,
	}
	err := r.init()
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a resampler from %#+v to %#+v: %w", inFormat, outFormat, err)
	}
	return r, nil
}

func (r *Resampler) init() error {
	if r.inFormat.SampleRate == 0 || r.outFormat.SampleRate == 0 {
		return fmt.Errorf("sample rates must be positive: %d -> %d", r.inFormat.SampleRate, r.outFormat.SampleRate)
	}
	if r.inFormat.Channels == 0 || r.outFormat.Channels == 0 {
		return fmt.Errorf("channel counts must be positive: %d -> %d", r.inFormat.Channels, r.outFormat.Channels)
	}
	r.inSampleSize = uint(r.inFormat.PCMFormat.Size())
	r.outSampleSize = uint(r.outFormat.PCMFormat.Size())
	if r.inSampleSize == 0 || r.outSampleSize == 0 {
		return fmt.Errorf("unsupported PCM formats: %v -> %v", r.inFormat.PCMFormat, r.outFormat.PCMFormat)
	}

	r.inNumAvg = 1
	r.outNumRepeat = 1
	if r.inFormat.Channels != r.outFormat.Channels {
		switch {
		case r.inFormat.Channels == 1:
			r.outNumRepeat = uint(r.outFormat.Channels)
		case r.outFormat.Channels == 1:
			r.inNumAvg = uint(r.inFormat.Channels)
		default:
			return fmt.Errorf("do not know how to convert %d channels to %d", r.inFormat.Channels, r.outFormat.Channels)
		}
	}

	sampleRateAdjust := float64(r.outFormat.SampleRate) / float64(r.inFormat.SampleRate)
	r.outDistanceStep = uint64(float64(distanceStep) / sampleRateAdjust)

	r.inDistance = 0
	r.outDistance = 0
	return nil
}

func (r *Resampler) mixdown(frame []byte) float64 {
	var sum float64
	for channelIdx := uint(0); channelIdx < r.inNumAvg; channelIdx++ {
		sum += getFloat64(r.inFormat.PCMFormat, frame[channelIdx*r.inSampleSize:])
	}
	return sum / float64(r.inNumAvg)
}

func (r *Resampler) emit(p []byte, dstChunkIdx uint64) {
	val := r.lastValue
	if r.accCount > 0 {
		val = r.accSum / float64(r.accCount)
	}
	r.accSum, r.accCount = 0, 0
	for repeatIdx := uint64(0); repeatIdx < uint64(r.outNumRepeat); repeatIdx++ {
		idxDst := (dstChunkIdx*uint64(r.outNumRepeat) + repeatIdx) * uint64(r.outSampleSize)
		setFloat64(r.outFormat.PCMFormat, p[idxDst:], val)
	}
}

func (r *Resampler) Read(p []byte) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	outFrameSize := uint64(r.outSampleSize) * uint64(r.outNumRepeat)
	maxOutChunks := uint64(len(p)) / outFrameSize
	if maxOutChunks == 0 {
		return 0, nil
	}

	inFrameSize := int(r.inSampleSize * r.inNumAvg)
	chunksToRead := maxOutChunks * uint64(r.inFormat.SampleRate) / uint64(r.outFormat.SampleRate)
	if chunksToRead == 0 {
		chunksToRead = 1
	}
	bytesWanted := int(chunksToRead) * inFrameSize

	var err error
	if have := len(r.pending); have < bytesWanted {
		if cap(r.pending) < bytesWanted {
			grown := make([]byte, have, bytesWanted)
			copy(grown, r.pending)
			r.pending = grown
		}
		var n int
		n, err = r.inReader.Read(r.pending[have:bytesWanted])
		r.pending = r.pending[:have+n]
	}
	chunksAvailable := len(r.pending) / inFrameSize

	dstChunkIdx := uint64(0)
	srcChunkIdx := 0
	for dstChunkIdx < maxOutChunks {
		if r.outDistance+r.outDistanceStep <= r.inDistance {
			r.emit(p, dstChunkIdx)
			dstChunkIdx++
			r.outDistance += r.outDistanceStep
			continue
		}
		if srcChunkIdx >= chunksAvailable {
			break
		}
		val := r.mixdown(r.pending[srcChunkIdx*inFrameSize:])
		srcChunkIdx++
		r.lastValue = val
		r.accSum += val
		r.accCount++
		r.inDistance += distanceStep
	}
	r.pending = r.pending[:copy(r.pending, r.pending[srcChunkIdx*inFrameSize:])]

	if errors.Is(err, io.EOF) {
		switch {
		case len(r.pending) >= inFrameSize:
			err = nil
		case len(r.pending) > 0:
			return int(dstChunkIdx * outFrameSize), fmt.Errorf("the stream ended with an incomplete frame of %d bytes (expected %d)", len(r.pending), inFrameSize)
		case r.outDistance+r.outDistanceStep <= r.inDistance:
			// owed output samples are flushed on the next call
			err = nil
		}
	}
	return int(dstChunkIdx * outFrameSize), err
}

// ToWaveform decodes interleaved PCM data of format inFormat into a mono waveform
// with the given sample rate.
func ToWaveform(
	inFormat Format,
	data []byte,
	sampleRate audio.SampleRate,
) (audio.Waveform, error) {
	if frameSize := inFormat.frameSize(); frameSize == 0 || uint(len(data))%frameSize != 0 {
		return audio.Waveform{}, fmt.Errorf("the data length %d is not a multiple of the frame size %d", len(data), frameSize)
	}
	outFormat := Format{
		Channels:   1,
		SampleRate: sampleRate,
		PCMFormat:  types.PCMFormatFloat64LE,
	}
	r, err := NewResampler(inFormat, bytes.NewReader(data), outFormat)
	if err != nil {
		return audio.Waveform{}, err
	}

	numIn := len(data) / int(inFormat.frameSize())
	expected := int(float64(numIn)*float64(sampleRate)/float64(inFormat.SampleRate)) + 1
	samples := make([]float64, 0, expected)
	buf := make([]byte, waveformReadBufferSize)
	for {
		n, err := r.Read(buf)
		for off := 0; off+8 <= n; off += 8 {
			samples = append(samples, getFloat64(types.PCMFormatFloat64LE, buf[off:]))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return audio.Waveform{}, fmt.Errorf("unable to resample: %w", err)
		}
	}
	return audio.Waveform{
		SampleRate: sampleRate,
		Samples:    samples,
	}, nil
}

// ToInterleaved decodes interleaved PCM data of format inFormat keeping its
// channels and sample rate.
func ToInterleaved(
	inFormat Format,
	data []byte,
) (audio.Interleaved, error) {
	frameSize := inFormat.frameSize()
	if frameSize == 0 || inFormat.SampleRate == 0 {
		return audio.Interleaved{}, fmt.Errorf("invalid format %#+v", inFormat)
	}
	if uint(len(data))%frameSize != 0 {
		return audio.Interleaved{}, fmt.Errorf("the data length %d is not a multiple of the frame size %d", len(data), frameSize)
	}
	sampleSize := int(inFormat.PCMFormat.Size())
	samples := make([]float64, len(data)/sampleSize)
	for idx := range samples {
		samples[idx] = getFloat64(inFormat.PCMFormat, data[idx*sampleSize:])
	}
	return audio.Interleaved{
		SampleRate: inFormat.SampleRate,
		Channels:   inFormat.Channels,
		Samples:    samples,
	}, nil
}

// Resample converts the waveform to another sample rate.
func Resample(
	w audio.Waveform,
	sampleRate audio.SampleRate,
) (audio.Waveform, error) {
	if w.SampleRate == sampleRate {
		return w.Clone(), nil
	}
	data := make([]byte, len(w.Samples)*8)
	for idx, sample := range w.Samples {
		setFloat64(types.PCMFormatFloat64LE, data[idx*8:], sample)
	}
	return ToWaveform(Format{
		Channels:   1,
		SampleRate: w.SampleRate,
		PCMFormat:  types.PCMFormatFloat64LE,
	}, data, sampleRate)
}
