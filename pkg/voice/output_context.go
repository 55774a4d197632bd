package voice

import "time"

// OutputContext owns the playback side of the audio hardware. It hands
// out playback handles against a shared monotonic output clock and
// exposes a frequency-domain snapshot of what is currently audible.
//
// Exactly one output context exists per session; it must be closed on
// every teardown path. Both a production (oto-backed) and a mock
// implementation exist, mirroring the input device split.
type OutputContext interface {
	// NewHandle prepares interleaved 16-bit LE PCM for playback.
	// The handle does not start playing until PlayAt is called.
	NewHandle(pcm []byte, duration time.Duration) (PlaybackHandle, error)

	// Now returns the current position of the output clock.
	Now() time.Duration

	// Spectrum returns per-bin magnitudes of the output signal, each
	// in [0, 255]. Bins are recomputed from current device state on
	// every call; nothing is persisted between calls.
	Spectrum() []float64

	// SampleRate returns the playback sample rate.
	SampleRate() int

	// IsReady reports whether the context can create handles.
	IsReady() bool

	// Close releases the native audio resources. Idempotent.
	Close() error
}

// PlaybackHandle represents one scheduled chunk of output audio. It is
// owned by the scheduler from the moment it is scheduled until its
// ended callback fires or it is forcibly stopped.
type PlaybackHandle interface {
	// PlayAt starts playback when the output clock reaches start. A
	// start time in the past plays immediately.
	PlayAt(start time.Duration)

	// Stop force-stops playback. Stopping a handle that already ended
	// naturally is a benign race and must not fail or panic.
	Stop()

	// Duration returns the play time of the handle's audio.
	Duration() time.Duration

	// OnEnded registers the natural-completion callback. It fires at
	// most once and never after Stop.
	OnEnded(fn func())
}
