package voice

// Status represents the externally visible state of a session.
type Status int

const (
	// StatusDisconnected indicates no session activity.
	StatusDisconnected Status = iota
	// StatusConnecting indicates setup is in progress.
	StatusConnecting
	// StatusConnected indicates live bidirectional audio.
	StatusConnected
	// StatusError indicates a failed connect or remote error; sticky
	// until a fresh connect attempt.
	StatusError
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// IsActive reports whether the session is live.
func (s Status) IsActive() bool {
	return s == StatusConnected
}

// StateMachine validates status transitions for the session
// controller. It holds no locks; the session serializes access.
type StateMachine struct {
	current     Status
	transitions map[Status][]Status
}

// NewStateMachine creates a state machine in the disconnected state.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StatusDisconnected,
		transitions: map[Status][]Status{
			StatusDisconnected: {StatusConnecting},
			StatusConnecting:   {StatusConnected, StatusError, StatusDisconnected},
			StatusConnected:    {StatusDisconnected, StatusError},
			// error is sticky: only a fresh connect attempt leaves it
			StatusError: {StatusConnecting},
		},
	}
}

// Transition attempts to move to the given status, reporting whether
// the transition was valid.
func (sm *StateMachine) Transition(to Status) bool {
	for _, valid := range sm.transitions[sm.current] {
		if valid == to {
			sm.current = to
			return true
		}
	}
	return false
}

// Current returns the current status.
func (sm *StateMachine) Current() Status {
	return sm.current
}
