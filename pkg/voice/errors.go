package voice

import (
	"errors"
	"fmt"
)

// Common errors for the voice session pipeline.
var (
	// Session errors
	ErrAlreadyConnecting = errors.New("session is already connecting")
	ErrAlreadyConnected  = errors.New("session is already connected")
	ErrNotConnected      = errors.New("session is not connected")
	ErrSessionClosed     = errors.New("session has been closed")

	// Device errors
	ErrPermissionDenied  = errors.New("microphone access denied")
	ErrNoInputDevice     = errors.New("no input device available")
	ErrOutputNotReady    = errors.New("output context is not ready")
	ErrAudioUnavailable  = errors.New("audio hardware support not compiled in")
	ErrDeviceAlreadyOpen = errors.New("input device is already open")

	// Transport errors
	ErrChannelDial   = errors.New("remote channel failed to open")
	ErrChannelClosed = errors.New("remote channel is closed")
	ErrSetupRejected = errors.New("remote service rejected session setup")

	// Codec errors
	ErrOddChunkLength  = errors.New("chunk length is not sample-aligned")
	ErrEmptyChunk      = errors.New("empty audio chunk")
	ErrBadTransport    = errors.New("malformed transport encoding")
	ErrBadChannelCount = errors.New("channel count must be positive")
)

// VoiceError wraps an error with the component and action that produced it.
type VoiceError struct {
	Err       error
	Component string
	Action    string
}

// Error implements the error interface.
func (e *VoiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failed", e.Component, e.Action)
	}
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
}

// Unwrap returns the underlying error.
func (e *VoiceError) Unwrap() error {
	return e.Err
}

// NewVoiceError creates a wrapped error with component context.
func NewVoiceError(err error, component, action string) *VoiceError {
	return &VoiceError{
		Err:       err,
		Component: component,
		Action:    action,
	}
}

// IsConnectError reports whether an error should route the session to
// the error state. Decode failures and stop races stay local to their
// component and never qualify.
func IsConnectError(err error) bool {
	switch {
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrNoInputDevice),
		errors.Is(err, ErrChannelDial),
		errors.Is(err, ErrSetupRejected),
		errors.Is(err, ErrAudioUnavailable):
		return true
	}
	return false
}
