//go:build !nocgo
// +build !nocgo

package voice

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// OtoOutputContext implements OutputContext on real audio hardware.
type OtoOutputContext struct {
	mu      sync.Mutex
	context *oto.Context
	ready   bool
	started time.Time
	tap     *outputTap
}

// NewOtoOutputContext initializes the playback device with platform
// specific retry behavior, matching how flaky CoreAudio and PulseAudio
// starts are handled elsewhere in this codebase.
func NewOtoOutputContext(platform *PlatformInfo) (*OtoOutputContext, error) {
	maxRetries := 1
	retryDelay := 100 * time.Millisecond
	switch platform.OS {
	case PlatformDarwin:
		maxRetries = 3
		retryDelay = 200 * time.Millisecond
	case PlatformWindows:
		maxRetries = 2
		retryDelay = 150 * time.Millisecond
	case PlatformLinux:
		if platform.AudioSubsystem == AudioSubsystemPulseAudio {
			maxRetries = 2
		}
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			log.Debug("Retrying output context initialization", "attempt", i+1)
			time.Sleep(retryDelay)
		}
		ctx := &OtoOutputContext{tap: newOutputTap(spectrumWindow)}
		if err := ctx.initialize(platform); err != nil {
			lastErr = err
			continue
		}
		return ctx, nil
	}
	return nil, fmt.Errorf("output context failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *OtoOutputContext) initialize(platform *PlatformInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	options := &oto.NewContextOptions{
		SampleRate:   PlaybackSampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Millisecond * time.Duration(platform.GetPlatformBufferSize()),
	}

	log.Debug("Initializing output context",
		"platform", platform.OS,
		"subsystem", platform.AudioSubsystem,
		"sample_rate", options.SampleRate,
		"buffer_size", options.BufferSize)

	context, readyChan, err := oto.NewContext(options)
	if err != nil {
		return fmt.Errorf("create output context: %w", err)
	}

	readyTimeout := 5 * time.Second
	if platform.OS == PlatformDarwin {
		readyTimeout = 10 * time.Second
	}

	select {
	case <-readyChan:
		c.context = context
		c.ready = true
		c.started = time.Now()
	case <-time.After(readyTimeout):
		// oto v3 contexts have no Close; abandoned contexts are
		// collected by the runtime
		return fmt.Errorf("output context initialization timeout after %v", readyTimeout)
	}
	return nil
}

// NewHandle wraps the PCM in an oto player tapped for the spectrum.
func (c *OtoOutputContext) NewHandle(pcm []byte, duration time.Duration) (PlaybackHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready || c.context == nil {
		return nil, ErrOutputNotReady
	}

	reader := &tappedReader{r: bytes.NewReader(pcm), tap: c.tap}
	return &otoHandle{
		ctx:      c,
		player:   c.context.NewPlayer(reader),
		duration: duration,
	}, nil
}

// Now returns time elapsed since the device came up. oto does not
// expose a hardware sample clock, so wall time since ready stands in.
func (c *OtoOutputContext) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return 0
	}
	return time.Since(c.started)
}

// Spectrum computes per-bin magnitudes over the most recent window of
// samples pulled by the device.
func (c *OtoOutputContext) Spectrum() []float64 {
	return c.tap.spectrum()
}

// SampleRate returns the playback sample rate.
func (c *OtoOutputContext) SampleRate() int {
	return PlaybackSampleRate
}

// IsReady reports whether handles can be created.
func (c *OtoOutputContext) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Close releases the context. oto v3 contexts cannot be closed
// explicitly; dropping the reference is the supported release path.
func (c *OtoOutputContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = false
	c.context = nil
	return nil
}

// otoHandle adapts an oto player to the PlaybackHandle contract.
type otoHandle struct {
	ctx      *OtoOutputContext
	player   *oto.Player
	duration time.Duration

	mu       sync.Mutex
	onEnded  func()
	finished bool
	startTmr *time.Timer
	endTmr   *time.Timer
}

// PlayAt arms a timer for the start offset and a second timer for the
// natural end. Stop cancels both.
func (h *otoHandle) PlayAt(start time.Duration) {
	delay := start - h.ctx.Now()
	if delay < 0 {
		delay = 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return
	}
	h.startTmr = time.AfterFunc(delay, func() {
		h.mu.Lock()
		if h.finished {
			h.mu.Unlock()
			return
		}
		h.player.Play()
		h.endTmr = time.AfterFunc(h.duration, h.naturalEnd)
		h.mu.Unlock()
	})
}

func (h *otoHandle) naturalEnd() {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return
	}
	h.finished = true
	ended := h.onEnded
	h.mu.Unlock()

	_ = h.player.Close()
	if ended != nil {
		ended()
	}
}

// Stop force-stops the handle. Safe on handles that already ended.
func (h *otoHandle) Stop() {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return
	}
	h.finished = true
	if h.startTmr != nil {
		h.startTmr.Stop()
	}
	if h.endTmr != nil {
		h.endTmr.Stop()
	}
	h.mu.Unlock()

	h.player.Pause()
	_ = h.player.Close()
}

// Duration returns the handle's play time.
func (h *otoHandle) Duration() time.Duration {
	return h.duration
}

// OnEnded registers the natural-completion callback.
func (h *otoHandle) OnEnded(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEnded = fn
}

// outputTap keeps a ring of the most recent samples the device pulled,
// so the spectrum reflects what is actually audible right now.
type outputTap struct {
	mu   sync.Mutex
	ring []float64
	pos  int
	full bool
}

func newOutputTap(window int) *outputTap {
	return &outputTap{ring: make([]float64, window)}
}

func (t *outputTap) write(pcm []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		t.ring[t.pos] = float64(v) / 32768
		t.pos++
		if t.pos == len(t.ring) {
			t.pos = 0
			t.full = true
		}
	}
}

// spectrum runs a coarse DFT over the ring and scales each bin
// magnitude into [0, 255].
func (t *outputTap) spectrum() []float64 {
	t.mu.Lock()
	window := make([]float64, len(t.ring))
	copy(window, t.ring)
	filled := t.full
	t.mu.Unlock()

	bins := make([]float64, spectrumBins)
	if !filled {
		return bins
	}

	n := len(window)
	for b := 0; b < spectrumBins; b++ {
		// Bin b covers frequency (b+1)/(2*bins) of the sample rate.
		freq := float64(b+1) / float64(2*spectrumBins)
		var re, im float64
		for i, s := range window {
			angle := 2 * math.Pi * freq * float64(i)
			re += s * math.Cos(angle)
			im += s * math.Sin(angle)
		}
		magnitude := 2 * math.Sqrt(re*re+im*im) / float64(n)
		scaled := magnitude * 255
		if scaled > 255 {
			scaled = 255
		}
		bins[b] = scaled
	}
	return bins
}

// tappedReader copies everything the device pulls into the tap.
type tappedReader struct {
	r   io.Reader
	tap *outputTap
}

func (t *tappedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n > 0 {
		t.tap.write(p[:n])
	}
	return n, err
}
