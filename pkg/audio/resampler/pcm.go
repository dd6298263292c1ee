package resampler

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/xaionaro-go/avsync/pkg/audio/types"
)

const (
	scaleS16 = 1 << 15
	scaleS24 = 1 << 23
	scaleS32 = 1 << 31
	scaleS64 = 1 << 63
)

func decodeS24(b0, b1, b2 byte) int32 {
	val := int32(uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16)
	if val&0x800000 != 0 {
		val |= -16777216
	}
	return val
}

func clampS16(v float64) int16 {
	return int16(math.Max(-scaleS16, math.Min(scaleS16-1, math.Round(v*scaleS16))))
}

func clampS24(v float64) int32 {
	val := int32(math.Round(v * scaleS24))
	switch {
	case val > scaleS24-1:
		return scaleS24 - 1
	case val < -scaleS24:
		return -scaleS24
	}
	return val
}

// getFloat64 decodes a single sample of format f at the beginning of p.
func getFloat64(f types.PCMFormat, p []byte) float64 {
	switch f {
	case types.PCMFormatU8:
		return (float64(p[0]) - 128) / 128
	case types.PCMFormatS16LE:
		return float64(int16(binary.LittleEndian.Uint16(p))) / scaleS16
	case types.PCMFormatS16BE:
		return float64(int16(binary.BigEndian.Uint16(p))) / scaleS16
	case types.PCMFormatS24LE:
		return float64(decodeS24(p[0], p[1], p[2])) / scaleS24
	case types.PCMFormatS24BE:
		return float64(decodeS24(p[2], p[1], p[0])) / scaleS24
	case types.PCMFormatS32LE:
		return float64(int32(binary.LittleEndian.Uint32(p))) / scaleS32
	case types.PCMFormatS32BE:
		return float64(int32(binary.BigEndian.Uint32(p))) / scaleS32
	case types.PCMFormatS64LE:
		return float64(int64(binary.LittleEndian.Uint64(p))) / scaleS64
	case types.PCMFormatS64BE:
		return float64(int64(binary.BigEndian.Uint64(p))) / scaleS64
	case types.PCMFormatFloat32LE:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
	case types.PCMFormatFloat32BE:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(p)))
	case types.PCMFormatFloat64LE:
		return math.Float64frombits(binary.LittleEndian.Uint64(p))
	case types.PCMFormatFloat64BE:
		return math.Float64frombits(binary.BigEndian.Uint64(p))
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}

// setFloat64 encodes v as a single sample of format f at the beginning of p.
func setFloat64(f types.PCMFormat, p []byte, v float64) {
	switch f {
	case types.PCMFormatU8:
		p[0] = byte(math.Max(0, math.Min(255, math.Round(v*128+128))))
	case types.PCMFormatS16LE:
		binary.LittleEndian.PutUint16(p, uint16(clampS16(v)))
	case types.PCMFormatS16BE:
		binary.BigEndian.PutUint16(p, uint16(clampS16(v)))
	case types.PCMFormatS24LE:
		val := clampS24(v)
		p[0], p[1], p[2] = byte(val), byte(val>>8), byte(val>>16)
	case types.PCMFormatS24BE:
		val := clampS24(v)
		p[0], p[1], p[2] = byte(val>>16), byte(val>>8), byte(val)
	case types.PCMFormatS32LE:
		binary.LittleEndian.PutUint32(p, uint32(int32(math.Round(v*scaleS32))))
	case types.PCMFormatS32BE:
		binary.BigEndian.PutUint32(p, uint32(int32(math.Round(v*scaleS32))))
	case types.PCMFormatS64LE:
		binary.LittleEndian.PutUint64(p, uint64(int64(math.Round(v*scaleS64))))
	case types.PCMFormatS64BE:
		binary.BigEndian.PutUint64(p, uint64(int64(math.Round(v*scaleS64))))
	case types.PCMFormatFloat32LE:
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v)))
	case types.PCMFormatFloat32BE:
		binary.BigEndian.PutUint32(p, math.Float32bits(float32(v)))
	case types.PCMFormatFloat64LE:
		binary.LittleEndian.PutUint64(p, math.Float64bits(v))
	case types.PCMFormatFloat64BE:
		binary.BigEndian.PutUint64(p, math.Float64bits(v))
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}
