package voice

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// ChunkSender is the outbound half of the remote channel as seen by
// the capture pipeline.
type ChunkSender interface {
	SendAudio(chunk EncodedChunk) error
}

// CapturePipeline bridges the raw microphone stream into fixed-size
// windows, encodes each window, and forwards it to the outbound
// channel. Sends run on a single goroutine so submission order is
// preserved; the frame callback never waits on the network.
//
// The outbound queue is bounded. Under sustained network slowness the
// oldest queued chunk is dropped so memory stays flat; fresher audio
// wins over stale audio for a live conversation.
type CapturePipeline struct {
	device  InputDevice
	sender  ChunkSender
	limiter *rate.Limiter

	mu      sync.Mutex
	pending []float32
	queue   chan EncodedChunk
	started bool
	wired   bool
	stopped bool
	done    chan struct{}

	dropped int
}

// NewCapturePipeline wires a device to an outbound sender.
func NewCapturePipeline(device InputDevice, sender ChunkSender, queueSize int) *CapturePipeline {
	if queueSize <= 0 {
		queueSize = DefaultOutboundQueueSize
	}
	// Sends are paced at the capture rate with a burst covering the
	// whole queue, so a backlog built up before the channel opened
	// flushes immediately but cannot outrun real time after that.
	frameInterval := time.Duration(FrameDuration(CaptureFrameSize, CaptureSampleRate) * float64(time.Second))
	return &CapturePipeline{
		device:  device,
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(frameInterval), queueSize),
		queue:   make(chan EncodedChunk, queueSize),
		done:    make(chan struct{}),
	}
}

// Start acquires the microphone and begins framing into the queue.
// Forwarding does not begin until Wire; frames captured before the
// channel handshake completes wait in the bounded queue in order
// instead of being dropped. The pipeline stops permanently on Stop; it
// must not be restarted.
func (p *CapturePipeline) Start() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrSessionClosed
	}
	if p.started {
		p.mu.Unlock()
		return ErrDeviceAlreadyOpen
	}
	p.started = true
	p.mu.Unlock()

	if err := p.device.Start(p.onSamples); err != nil {
		p.mu.Lock()
		p.started = false
		p.mu.Unlock()
		return err
	}

	log.Debug("Capture pipeline started", "frame_size", CaptureFrameSize)
	return nil
}

// Wire begins forwarding queued chunks to the channel. Called once the
// remote channel signals open.
func (p *CapturePipeline) Wire() {
	p.mu.Lock()
	if p.stopped || p.wired {
		p.mu.Unlock()
		return
	}
	p.wired = true
	p.mu.Unlock()

	go p.sendLoop()
}

// onSamples accumulates driver deliveries into fixed windows and
// enqueues the encoded form of each completed window.
func (p *CapturePipeline) onSamples(samples []float32) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.pending = append(p.pending, samples...)
	var frames [][]float32
	for len(p.pending) >= CaptureFrameSize {
		frame := make([]float32, CaptureFrameSize)
		copy(frame, p.pending[:CaptureFrameSize])
		p.pending = p.pending[CaptureFrameSize:]
		frames = append(frames, frame)
	}
	p.mu.Unlock()

	for _, frame := range frames {
		chunk, err := EncodePCM(frame)
		if err != nil {
			continue
		}
		p.enqueue(chunk)
	}
}

// enqueue adds a chunk, evicting the oldest queued chunk when full.
func (p *CapturePipeline) enqueue(chunk EncodedChunk) {
	for {
		select {
		case p.queue <- chunk:
			return
		default:
		}
		select {
		case <-p.queue:
			p.mu.Lock()
			p.dropped++
			n := p.dropped
			p.mu.Unlock()
			if n == 1 || n%100 == 0 {
				log.Warn("Outbound queue full, dropping oldest frame", "dropped_total", n)
			}
		default:
		}
	}
}

// sendLoop is the single writer toward the channel, so chunks go out
// in capture order.
func (p *CapturePipeline) sendLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-p.done
		cancel()
	}()

	for {
		select {
		case <-p.done:
			return
		case chunk := <-p.queue:
			if err := p.limiter.Wait(ctx); err != nil {
				return
			}
			if err := p.sender.SendAudio(chunk); err != nil {
				log.Debug("Outbound send failed", "error", err)
			}
		}
	}
}

// Stop releases the microphone and halts forwarding permanently.
// Idempotent; safe to call from any teardown path.
func (p *CapturePipeline) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.pending = nil
	p.mu.Unlock()

	close(p.done)
	_ = p.device.Stop()
	log.Debug("Capture pipeline stopped")
}

// Dropped returns how many frames the bounded queue evicted.
func (p *CapturePipeline) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}
