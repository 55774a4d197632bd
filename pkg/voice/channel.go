package voice

import "context"

// SessionConfig is the setup payload for opening a remote channel.
// The persona instruction text is opaque to the pipeline.
type SessionConfig struct {
	ServerURL      string
	Voice          string
	Persona        string
	ResponseFormat string
}

// Event is one of the closed set of variants a remote channel
// produces. The session's single control loop consumes them in order,
// preserving the one-handler-at-a-time property without requiring a
// single-threaded runtime.
type Event interface {
	isEvent()
}

// OpenEvent signals the network handshake completed.
type OpenEvent struct{}

// MessageEvent carries an optional inline audio payload (transport
// encoded) and an optional interruption flag.
type MessageEvent struct {
	Audio       string
	Interrupted bool
}

// CloseEvent signals the remote side closed the channel.
type CloseEvent struct{}

// ErrorEvent signals a transport failure or a remote-reported error.
type ErrorEvent struct {
	Err error
}

func (OpenEvent) isEvent()    {}
func (MessageEvent) isEvent() {}
func (CloseEvent) isEvent()   {}
func (ErrorEvent) isEvent()   {}

// RemoteChannel is the bidirectional message channel to the agent
// service. Events terminate with a CloseEvent or ErrorEvent, after
// which the events channel is closed.
type RemoteChannel interface {
	ChunkSender

	// Events returns the ordered event stream. The channel closes
	// after the terminal event.
	Events() <-chan Event

	// Close tears the channel down. Idempotent.
	Close() error
}

// ChannelDialer opens remote channels. The production dialer speaks
// websocket; tests substitute a scripted channel.
type ChannelDialer interface {
	Dial(ctx context.Context, cfg SessionConfig) (RemoteChannel, error)
}
