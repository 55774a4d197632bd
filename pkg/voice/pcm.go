package voice

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodedChunk is the transport form of one captured frame: 16-bit
// signed little-endian PCM bytes plus the MIME-style descriptor that
// fixes the encoding and sample rate contract with the remote service.
type EncodedChunk struct {
	Data     []byte
	MimeType string
}

// EncodePCM converts a frame of float samples in [-1.0, 1.0] into a
// transport-ready chunk. Samples outside the representable range are
// clamped. The function is pure and never fails for a well-formed
// frame; only a nil frame is rejected.
func EncodePCM(frame []float32) (EncodedChunk, error) {
	if frame == nil {
		return EncodedChunk{}, fmt.Errorf("encode pcm: %w", ErrEmptyChunk)
	}

	data := make([]byte, len(frame)*BytesPerSample)
	for i, sample := range frame {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(quantizeSample(sample)))
	}

	return EncodedChunk{
		Data:     data,
		MimeType: OutboundMimeType,
	}, nil
}

// quantizeSample maps a float sample to int16 with clamping.
func quantizeSample(s float32) int16 {
	scaled := float64(s) * 32768
	if scaled > math.MaxInt16 {
		return math.MaxInt16
	}
	if scaled < math.MinInt16 {
		return math.MinInt16
	}
	return int16(scaled)
}

// FrameDuration returns the play time of a frame of the given sample
// count at the given rate.
func FrameDuration(sampleCount, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(sampleCount) / float64(sampleRate)
}
