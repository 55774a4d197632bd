package voice

import "time"

// Audio format contract agreed with the remote agent service.
// Capture runs at 16kHz mono; the agent responds at 24kHz mono.
// Both directions carry 16-bit signed little-endian PCM.
const (
	// CaptureSampleRate is the microphone sample rate in Hz
	CaptureSampleRate = 16000

	// PlaybackSampleRate is the agent audio sample rate in Hz
	PlaybackSampleRate = 24000

	// Channels is the channel count on both directions
	Channels = 1

	// BitDepth is the sample bit depth
	BitDepth = 16

	// BytesPerSample is the byte width of a single sample
	BytesPerSample = BitDepth / 8

	// CaptureFrameSize is the fixed window size (in samples) the capture
	// pipeline accumulates before encoding and forwarding a chunk
	CaptureFrameSize = 4096

	// OutboundMimeType tags outbound chunks with the encoding contract
	OutboundMimeType = "audio/pcm;rate=16000"
)

const (
	// MeterInterval approximates a display refresh cadence for the
	// volume meter's cooperative polling loop
	MeterInterval = 16 * time.Millisecond

	// spectrumBins is the number of frequency bins exposed by Spectrum
	spectrumBins = 16

	// spectrumWindow is how many recent output samples feed the spectrum
	spectrumWindow = 1024

	// DefaultOutboundQueueSize bounds the mic-to-network queue; under
	// sustained network slowness the oldest frames are dropped
	DefaultOutboundQueueSize = 32
)
