package voice

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// AudioBuffer holds decoded float PCM ready for scheduling. Samples are
// de-interleaved: Data[c][i] is sample i of channel c.
type AudioBuffer struct {
	Data       [][]float32
	SampleRate int
}

// NumChannels returns the channel count of the buffer.
func (b *AudioBuffer) NumChannels() int {
	return len(b.Data)
}

// Len returns the per-channel sample count.
func (b *AudioBuffer) Len() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the play time of the buffer.
func (b *AudioBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Len()) / float64(b.SampleRate) * float64(time.Second))
}

// Interleaved re-quantizes the buffer into interleaved 16-bit LE bytes
// for delivery to an output device. The shortest channel bounds the
// output, so a hand-built buffer with ragged channel lengths is
// truncated rather than read out of range. DecodeChunk always produces
// equal-length channels.
func (b *AudioBuffer) Interleaved() []byte {
	channels := b.NumChannels()
	samples := b.Len()
	for c := 1; c < channels; c++ {
		if n := len(b.Data[c]); n < samples {
			samples = n
		}
	}
	out := make([]byte, samples*channels*BytesPerSample)
	for i := 0; i < samples; i++ {
		for c := 0; c < channels; c++ {
			v := quantizeSample(b.Data[c][i])
			binary.LittleEndian.PutUint16(out[(i*channels+c)*2:], uint16(v))
		}
	}
	return out
}

// DecodeChunk reverses the transport encoding of an inbound message
// payload and assembles a playable buffer at the given sample rate and
// channel count. Flat sample i*numChannels+c belongs to channel c.
//
// A byte length that is not a whole multiple of the per-sample-per-
// channel width is a terminal error for that single message only; the
// session is expected to drop the chunk and carry on.
func DecodeChunk(transport string, sampleRate, numChannels int) (*AudioBuffer, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("decode chunk: channel count %d: %w", numChannels, ErrBadChannelCount)
	}

	raw, err := base64.StdEncoding.DecodeString(transport)
	if err != nil {
		return nil, fmt.Errorf("decode chunk: %w: %v", ErrBadTransport, err)
	}

	stride := BytesPerSample * numChannels
	if len(raw)%stride != 0 {
		return nil, fmt.Errorf("decode chunk: %d bytes with %d channels: %w",
			len(raw), numChannels, ErrOddChunkLength)
	}

	perChannel := len(raw) / stride
	data := make([][]float32, numChannels)
	for c := range data {
		data[c] = make([]float32, perChannel)
	}

	for i := 0; i < perChannel; i++ {
		for c := 0; c < numChannels; c++ {
			flat := i*numChannels + c
			v := int16(binary.LittleEndian.Uint16(raw[flat*2:]))
			data[c][i] = float32(v) / 32768
		}
	}

	return &AudioBuffer{Data: data, SampleRate: sampleRate}, nil
}
