//go:build nocgo
// +build nocgo

package voice

import "time"

// OtoOutputContext is a stub used when audio hardware support is not
// compiled in. Every operation reports the context as unusable; the
// mock context remains available for tests.
type OtoOutputContext struct{}

// NewOtoOutputContext always fails under the nocgo build tag.
func NewOtoOutputContext(platform *PlatformInfo) (*OtoOutputContext, error) {
	return nil, ErrAudioUnavailable
}

// NewHandle always fails.
func (c *OtoOutputContext) NewHandle(pcm []byte, duration time.Duration) (PlaybackHandle, error) {
	return nil, ErrAudioUnavailable
}

// Now returns zero.
func (c *OtoOutputContext) Now() time.Duration { return 0 }

// Spectrum returns silence.
func (c *OtoOutputContext) Spectrum() []float64 { return nil }

// SampleRate returns the contract playback rate.
func (c *OtoOutputContext) SampleRate() int { return PlaybackSampleRate }

// IsReady always reports false.
func (c *OtoOutputContext) IsReady() bool { return false }

// Close is a no-op.
func (c *OtoOutputContext) Close() error { return nil }
