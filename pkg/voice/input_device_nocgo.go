//go:build nocgo
// +build nocgo

package voice

// MalgoInputDevice is a stub used when audio hardware support is not
// compiled in.
type MalgoInputDevice struct{}

// NewMalgoInputDevice returns a device whose Start always fails.
func NewMalgoInputDevice() *MalgoInputDevice { return &MalgoInputDevice{} }

// Start always fails under the nocgo build tag.
func (d *MalgoInputDevice) Start(onFrame FrameFunc) error { return ErrAudioUnavailable }

// Stop is a no-op.
func (d *MalgoInputDevice) Stop() error { return nil }

// SampleRate returns the contract capture rate.
func (d *MalgoInputDevice) SampleRate() int { return CaptureSampleRate }
