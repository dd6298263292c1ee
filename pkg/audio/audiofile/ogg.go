package audiofile

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jfreymuth/oggvorbis"
	"github.com/xaionaro-go/avsync/pkg/audio"
	"github.com/xaionaro-go/avsync/pkg/audio/resampler"
	"github.com/xaionaro-go/datacounter"
)

const oggReadChunkFrames = 4096

func decodeOgg(
	ctx context.Context,
	r io.Reader,
	maxDuration time.Duration,
) (decoded, error) {
	rc := datacounter.NewReaderCounter(r)
	oggReader, err := oggvorbis.NewReader(rc)
	if err != nil {
		return decoded{}, fmt.Errorf("unable to initialize a vorbis reader: %w", err)
	}

	channels := oggReader.Channels()
	sampleRate := oggReader.SampleRate()
	if channels <= 0 || sampleRate <= 0 {
		return decoded{}, fmt.Errorf("invalid vorbis stream: %d channels at %dHz", channels, sampleRate)
	}
	limit := maxFrames(sampleRate, maxDuration)

	var data []byte
	buf := make([]float32, oggReadChunkFrames*channels)
	frames := 0
	for limit < 0 || frames < limit {
		n, err := oggReader.Read(buf)
		n -= n % channels
		if limit >= 0 && frames+n/channels > limit {
			n = (limit - frames) * channels
		}
		for _, v := range buf[:n] {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
		}
		frames += n / channels
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return decoded{}, fmt.Errorf("unable to decode vorbis data: %w", err)
		}
	}
	logger.Debugf(ctx, "Ogg/Vorbis: rate:%d channels:%d frames:%d; consumed %d bytes of the container", sampleRate, channels, frames, rc.Count())

	return decoded{
		Format: resampler.Format{
			Channels:   audio.Channel(channels),
			SampleRate: audio.SampleRate(sampleRate),
			PCMFormat:  audio.PCMFormatFloat32LE,
		},
		Data: data,
	}, nil
}
