package voice

import (
	"sync"

	"github.com/charmbracelet/log"
)

// MockInputDevice implements InputDevice for tests. Frames are pushed
// by the test instead of a hardware driver, and a permission-denied
// mode exercises the connect error path.
type MockInputDevice struct {
	mu      sync.Mutex
	onFrame FrameFunc
	started bool
	stopped bool

	// DenyPermission makes Start fail with ErrPermissionDenied.
	DenyPermission bool

	// Test helpers
	StartCount int
	StopCount  int
}

// NewMockInputDevice creates an unstarted mock device.
func NewMockInputDevice() *MockInputDevice {
	log.Debug("Creating mock input device for testing")
	return &MockInputDevice{}
}

// Start records the frame callback for later injection.
func (d *MockInputDevice) Start(onFrame FrameFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.StartCount++
	if d.DenyPermission {
		return ErrPermissionDenied
	}
	if d.stopped {
		return ErrSessionClosed
	}
	if d.started {
		return ErrDeviceAlreadyOpen
	}
	d.onFrame = onFrame
	d.started = true
	return nil
}

// Stop releases the mock device. Idempotent.
func (d *MockInputDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.StopCount++
	d.stopped = true
	d.started = false
	d.onFrame = nil
	return nil
}

// SampleRate returns the contract capture rate.
func (d *MockInputDevice) SampleRate() int {
	return CaptureSampleRate
}

// Inject simulates the driver delivering a block of samples. Frames
// injected after Stop are dropped, matching hardware behavior.
func (d *MockInputDevice) Inject(samples []float32) {
	d.mu.Lock()
	onFrame := d.onFrame
	d.mu.Unlock()
	if onFrame != nil {
		onFrame(samples)
	}
}

// IsStarted reports whether the device is currently delivering frames.
func (d *MockInputDevice) IsStarted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}
