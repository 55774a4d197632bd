package voice

// FrameFunc receives raw float samples in [-1.0, 1.0] each time the
// device driver delivers a block of captured audio. It is invoked from
// the driver's own thread; implementations must not block in it.
type FrameFunc func(samples []float32)

// InputDevice owns exclusive access to a microphone stream. At most
// one input device exists per session; its lifetime is bounded by the
// session and it is released on disconnect or on the remote channel's
// close/error signal.
//
// Production runs on malgo (miniaudio); the mock injects frames from
// tests. Start maps an OS permission denial to ErrPermissionDenied.
type InputDevice interface {
	// Start acquires the microphone and begins continuous delivery at
	// the driver's native cadence. A started device cannot be started
	// again.
	Start(onFrame FrameFunc) error

	// Stop releases the microphone and the capture context. Idempotent;
	// a stopped device never re-arms.
	Stop() error

	// SampleRate returns the capture sample rate.
	SampleRate() int
}
