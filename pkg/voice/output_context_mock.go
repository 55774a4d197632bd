package voice

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// MockOutputContext implements OutputContext for tests without real
// audio hardware. The clock only moves when a test advances it, which
// makes scheduling behavior deterministic.
type MockOutputContext struct {
	mu      sync.Mutex
	ready   bool
	clock   time.Duration
	bins    []float64
	handles []*MockPlaybackHandle

	// Test helpers
	HandlesCreated int
	CloseCount     int
}

// NewMockOutputContext creates a ready mock output context.
func NewMockOutputContext() *MockOutputContext {
	log.Debug("Creating mock output context for testing")
	return &MockOutputContext{ready: true}
}

// NewHandle records the PCM and returns a controllable mock handle.
func (m *MockOutputContext) NewHandle(pcm []byte, duration time.Duration) (PlaybackHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return nil, ErrOutputNotReady
	}
	handle := &MockPlaybackHandle{
		pcm:      pcm,
		duration: duration,
		startAt:  -1,
	}
	m.handles = append(m.handles, handle)
	m.HandlesCreated++
	return handle, nil
}

// Now returns the manually advanced clock.
func (m *MockOutputContext) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock
}

// Advance moves the mock clock forward.
func (m *MockOutputContext) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock += d
}

// Spectrum returns the bins set by the test, or silence.
func (m *MockOutputContext) Spectrum() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bins == nil {
		return make([]float64, spectrumBins)
	}
	out := make([]float64, len(m.bins))
	copy(out, m.bins)
	return out
}

// SetSpectrum installs the bins returned by subsequent Spectrum calls.
func (m *MockOutputContext) SetSpectrum(bins []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bins = bins
}

// SampleRate returns the contract playback rate.
func (m *MockOutputContext) SampleRate() int { return PlaybackSampleRate }

// IsReady reports readiness.
func (m *MockOutputContext) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Close marks the context unusable.
func (m *MockOutputContext) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = false
	m.CloseCount++
	return nil
}

// Handles returns every handle created so far (for assertions).
func (m *MockOutputContext) Handles() []*MockPlaybackHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MockPlaybackHandle, len(m.handles))
	copy(out, m.handles)
	return out
}

// MockPlaybackHandle implements PlaybackHandle with test-driven
// completion: playback never ends until the test calls Finish.
type MockPlaybackHandle struct {
	mu       sync.Mutex
	pcm      []byte
	duration time.Duration
	startAt  time.Duration
	playing  bool
	finished bool
	onEnded  func()

	// Test helpers
	StopCount int
}

// PlayAt records the scheduled start time.
func (h *MockPlaybackHandle) PlayAt(start time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return
	}
	h.startAt = start
	h.playing = true
}

// Stop force-stops; tolerant of already-finished handles.
func (h *MockPlaybackHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.StopCount++
	h.finished = true
	h.playing = false
}

// Finish simulates natural completion, firing the ended callback
// exactly once and never after Stop.
func (h *MockPlaybackHandle) Finish() {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return
	}
	h.finished = true
	h.playing = false
	ended := h.onEnded
	h.mu.Unlock()

	if ended != nil {
		ended()
	}
}

// Duration returns the handle's play time.
func (h *MockPlaybackHandle) Duration() time.Duration {
	return h.duration
}

// OnEnded registers the completion callback.
func (h *MockPlaybackHandle) OnEnded(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEnded = fn
}

// StartAt returns the recorded scheduled start time, or -1 if the
// handle was never started.
func (h *MockPlaybackHandle) StartAt() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.startAt
}

// IsPlaying reports whether the handle is between PlayAt and its end.
func (h *MockPlaybackHandle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

// PCM returns the bytes handed to the handle (for assertions).
func (h *MockPlaybackHandle) PCM() []byte {
	return h.pcm
}
