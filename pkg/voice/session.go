package voice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// errSetupSuperseded signals that a teardown ran while a connect
// attempt was still acquiring resources. The attempt releases whatever
// it just acquired and leaves the settled state alone.
var errSetupSuperseded = errors.New("connect attempt superseded by teardown")

// Options supplies the session's collaborators. Production wiring uses
// the websocket dialer and real audio hardware; tests substitute the
// mock pair.
type Options struct {
	Dialer        ChannelDialer
	NewOutput     func() (OutputContext, error)
	NewInput      func() InputDevice
	QueueSize     int
	MeterInterval time.Duration // zero means the default cadence
}

// Session is the single active conversation: the state machine
// orchestrating connect/disconnect, the owner of every device and
// channel handle, and the only component with externally visible
// state. At most one session's resources are live at a time; callers
// serialize disconnect-before-connect and the controller refuses
// concurrent connects.
type Session struct {
	cfg  SessionConfig
	opts Options

	mu        sync.Mutex
	machine   *StateMachine
	channel   RemoteChannel
	output    OutputContext
	scheduler *Scheduler
	capture   *CapturePipeline
	meter     *Meter
	lastErr   error
	torn      bool
	gen       uint64 // bumped per connect attempt and per teardown
}

// NewSession creates an idle session.
func NewSession(cfg SessionConfig, opts Options) *Session {
	return &Session{
		cfg:     cfg,
		opts:    opts,
		machine: NewStateMachine(),
		torn:    true,
	}
}

// Connect performs a single setup attempt: dial the remote channel,
// bring up the output context, acquire the microphone. Idempotent
// guard: while the session is already connecting or connected the call
// is ignored, not queued. Connecting from the sticky error state is
// allowed and behaves like a fresh connect.
//
// On any setup failure the session tears down fully and settles in the
// error state; no retry is attempted.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.machine.Current() {
	case StatusConnecting, StatusConnected:
		s.mu.Unlock()
		return nil
	}
	s.machine.Transition(StatusConnecting)
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	if err := s.setup(ctx, gen); err != nil {
		if errors.Is(err, errSetupSuperseded) {
			// A disconnect won the race; the session already settled.
			return nil
		}
		s.fail(err)
		return err
	}
	return nil
}

// setup builds the resource graph in order. Each acquired resource is
// registered immediately so a later failure still releases it. After
// every acquisition the attempt re-checks its generation under the
// lock: a disconnect that raced ahead already settled the status, so
// the stale attempt must release what it holds and stop.
func (s *Session) setup(ctx context.Context, gen uint64) error {
	channel, err := s.opts.Dialer.Dial(ctx, s.cfg)
	if err != nil {
		return NewVoiceError(err, "session", "dial channel")
	}
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		_ = channel.Close()
		return errSetupSuperseded
	}
	s.channel = channel
	s.torn = false
	s.mu.Unlock()

	output, err := s.opts.NewOutput()
	if err != nil {
		return NewVoiceError(err, "session", "open output context")
	}
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		_ = output.Close()
		return errSetupSuperseded
	}
	s.output = output
	s.scheduler = NewScheduler(output)
	s.mu.Unlock()

	capture := NewCapturePipeline(s.opts.NewInput(), channel, s.opts.QueueSize)
	if err := capture.Start(); err != nil {
		return NewVoiceError(err, "session", "acquire microphone")
	}
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		capture.Stop()
		return errSetupSuperseded
	}
	s.capture = capture
	s.meter = NewMeter(s.output, s.IsActive, s.opts.MeterInterval)
	s.mu.Unlock()

	go s.run(channel)
	log.Debug("Session setup complete", "url", s.cfg.ServerURL)
	return nil
}

// run is the single control loop. Every channel event mutates session
// state from here, one at a time; inbound decode happens inline so
// arrival order and playback order stay identical.
func (s *Session) run(channel RemoteChannel) {
	for ev := range channel.Events() {
		switch e := ev.(type) {
		case OpenEvent:
			s.onOpen()
		case MessageEvent:
			s.onMessage(e)
		case CloseEvent:
			s.teardown(StatusDisconnected)
			return
		case ErrorEvent:
			s.mu.Lock()
			s.lastErr = e.Err
			s.mu.Unlock()
			s.teardown(StatusError)
			return
		}
	}
}

// onOpen fires when the network handshake completes: the capture
// pipeline starts forwarding and the volume meter begins polling.
func (s *Session) onOpen() {
	s.mu.Lock()
	if !s.machine.Transition(StatusConnected) {
		s.mu.Unlock()
		return
	}
	capture, meter := s.capture, s.meter
	s.mu.Unlock()

	if capture != nil {
		capture.Wire()
	}
	if meter != nil {
		meter.Start()
	}
	log.Info("Session connected")
}

// onMessage handles one inbound message. A remote-signaled
// interruption is not a state transition: it only flushes queued agent
// speech. A malformed audio payload is dropped and the session stays
// connected.
func (s *Session) onMessage(msg MessageEvent) {
	s.mu.Lock()
	scheduler := s.scheduler
	connected := s.machine.Current() == StatusConnected
	s.mu.Unlock()

	if scheduler == nil || !connected {
		return
	}
	if msg.Interrupted {
		scheduler.Interrupt()
	}
	if msg.Audio == "" {
		return
	}

	buf, err := DecodeChunk(msg.Audio, PlaybackSampleRate, Channels)
	if err != nil {
		log.Debug("Dropping malformed audio chunk", "error", err)
		return
	}
	if err := scheduler.Schedule(buf); err != nil {
		log.Debug("Failed to schedule chunk", "error", err)
	}
}

// Disconnect tears the session down and settles in disconnected.
// Synchronous and idempotent: calling it on an already-disconnected
// session performs no operation.
func (s *Session) Disconnect() {
	s.teardown(StatusDisconnected)
}

// fail records a connect-time failure: full teardown, then the sticky
// error state.
func (s *Session) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	log.Error("Session setup failed", "error", err)
	s.teardown(StatusError)
}

// teardown releases every resource exactly once per connection, in
// order: capture node and microphone, output processing context,
// in-flight playback handles, the meter's pending tick (resetting the
// volume sample to zero), and finally the channel. Each step swallows
// its own failure since hardware handles may already be invalid. Safe
// to call from any event source, including re-entrantly from the close
// event its own channel close triggers.
func (s *Session) teardown(to Status) {
	s.mu.Lock()
	s.gen++ // invalidate any connect attempt still acquiring resources
	if s.torn {
		// Still settle the status: disconnect after a failed connect
		// must not resurrect anything, but an explicit transition to
		// disconnected from error is not automatic either.
		if to == StatusDisconnected && s.machine.Current() == StatusConnecting {
			s.machine.Transition(StatusDisconnected)
		} else if to == StatusError && s.machine.Current() != StatusDisconnected {
			s.machine.Transition(StatusError)
		}
		s.mu.Unlock()
		return
	}
	s.torn = true
	capture, output, scheduler, meter, channel :=
		s.capture, s.output, s.scheduler, s.meter, s.channel
	s.capture, s.output, s.scheduler, s.meter, s.channel =
		nil, nil, nil, nil, nil
	s.machine.Transition(to)
	s.mu.Unlock()

	if capture != nil {
		capture.Stop()
	}
	if output != nil {
		_ = output.Close()
	}
	if scheduler != nil {
		scheduler.FlushAll()
	}
	if meter != nil {
		meter.Stop()
	}
	if channel != nil {
		_ = channel.Close()
	}
	log.Debug("Session torn down", "status", to)
}

// Status returns the current externally visible state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// IsActive reports whether the session is connected.
func (s *Session) IsActive() bool {
	return s.Status() == StatusConnected
}

// Volume returns the current volume sample in [0, 255]; zero whenever
// the session is not connected.
func (s *Session) Volume() float64 {
	s.mu.Lock()
	meter := s.meter
	s.mu.Unlock()
	if meter == nil {
		return 0
	}
	return meter.Volume()
}

// LastError returns the error that routed the session to the error
// state, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
