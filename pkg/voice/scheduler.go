package voice

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Scheduler lines decoded chunks up back-to-back on the output clock.
// A monotonically advancing cursor marks where the next chunk begins;
// the in-flight set is the sole tracking mechanism for interruption.
type Scheduler struct {
	mu        sync.Mutex
	out       OutputContext
	nextStart time.Duration
	inFlight  map[PlaybackHandle]struct{}
}

// NewScheduler creates a scheduler bound to an output context.
func NewScheduler(out OutputContext) *Scheduler {
	return &Scheduler{
		out:      out,
		inFlight: make(map[PlaybackHandle]struct{}),
	}
}

// Schedule places a buffer at max(cursor, output clock), advances the
// cursor by the buffer's duration, and tracks the handle until it ends
// or is interrupted. Buffers scheduled in arrival order play gaplessly
// in that order.
func (s *Scheduler) Schedule(buf *AudioBuffer) error {
	handle, err := s.out.NewHandle(buf.Interleaved(), buf.Duration())
	if err != nil {
		return NewVoiceError(err, "scheduler", "create handle")
	}

	s.mu.Lock()
	start := s.nextStart
	if now := s.out.Now(); now > start {
		start = now
	}
	s.nextStart = start + buf.Duration()
	s.inFlight[handle] = struct{}{}
	s.mu.Unlock()

	handle.OnEnded(func() {
		s.mu.Lock()
		delete(s.inFlight, handle)
		s.mu.Unlock()
	})
	handle.PlayAt(start)

	log.Debug("Scheduled playback chunk",
		"start", start,
		"duration", buf.Duration(),
		"in_flight", s.InFlightCount())
	return nil
}

// Interrupt silences everything immediately: every in-flight handle is
// force-stopped (handles that already ended tolerate the stop), the set
// is cleared, and the cursor resets to zero so the next chunk starts
// right away instead of after stale accumulated offsets. This is the
// barge-in path.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	stopped := make([]PlaybackHandle, 0, len(s.inFlight))
	for handle := range s.inFlight {
		stopped = append(stopped, handle)
	}
	s.inFlight = make(map[PlaybackHandle]struct{})
	s.nextStart = 0
	s.mu.Unlock()

	for _, handle := range stopped {
		handle.Stop()
	}

	if len(stopped) > 0 {
		log.Debug("Playback interrupted", "stopped", len(stopped))
	}
}

// FlushAll is the teardown variant of Interrupt: it guarantees no audio
// continues after the session ends.
func (s *Scheduler) FlushAll() {
	s.Interrupt()
}

// InFlightCount returns the number of handles currently tracked.
func (s *Scheduler) InFlightCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Cursor returns the current timeline cursor.
func (s *Scheduler) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}
