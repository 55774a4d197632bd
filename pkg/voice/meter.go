package voice

import (
	"math"
	"sync"
	"time"
)

// Meter derives a single amplitude scalar from the output spectrum on
// a display-refresh cadence. It is a cooperative polling loop, not an
// event subscription: each tick re-arms itself only while the
// connected condition holds, and the published value resets to zero
// when polling stops.
type Meter struct {
	out       OutputContext
	interval  time.Duration
	connected func() bool

	mu      sync.Mutex
	volume  float64
	timer   *time.Timer
	stopped bool
}

// NewMeter creates a meter over an output context. connected gates the
// polling loop; interval defaults to the display refresh cadence.
func NewMeter(out OutputContext, connected func() bool, interval time.Duration) *Meter {
	if interval <= 0 {
		interval = MeterInterval
	}
	return &Meter{
		out:       out,
		interval:  interval,
		connected: connected,
	}
}

// Start arms the first tick.
func (m *Meter) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || m.timer != nil {
		return
	}
	m.timer = time.AfterFunc(0, m.tick)
}

// tick recomputes the volume from current device state, then
// reschedules itself while the session stays connected.
func (m *Meter) tick() {
	if !m.connected() {
		m.mu.Lock()
		m.volume = 0
		m.timer = nil
		m.mu.Unlock()
		return
	}

	v := meanMagnitude(m.out.Spectrum())

	m.mu.Lock()
	if m.stopped {
		m.volume = 0
		m.timer = nil
		m.mu.Unlock()
		return
	}
	m.volume = v
	m.timer = time.AfterFunc(m.interval, m.tick)
	m.mu.Unlock()
}

// Stop cancels the pending tick and resets the sample to zero.
// Idempotent; safe from within any teardown path.
func (m *Meter) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.volume = 0
}

// Volume returns the last published sample, in [0, 255].
func (m *Meter) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// meanMagnitude reduces per-bin magnitudes to their arithmetic mean.
func meanMagnitude(bins []float64) float64 {
	if len(bins) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bins {
		sum += b
	}
	v := sum / float64(len(bins))
	return math.Min(v, 255)
}
