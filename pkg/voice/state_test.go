package voice

import "testing"

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusDisconnected, "disconnected"},
		{StatusConnecting, "connecting"},
		{StatusConnected, "connected"},
		{StatusError, "error"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusIsActive(t *testing.T) {
	if !StatusConnected.IsActive() {
		t.Error("connected should be active")
	}
	for _, s := range []Status{StatusDisconnected, StatusConnecting, StatusError} {
		if s.IsActive() {
			t.Errorf("%s should not be active", s)
		}
	}
}

func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []Status
		from Status
		to   Status
		want bool
	}{
		{"idle to connecting", nil, StatusDisconnected, StatusConnecting, true},
		{"idle straight to connected", nil, StatusDisconnected, StatusConnected, false},
		{"idle to error", nil, StatusDisconnected, StatusError, false},
		{"connecting to connected", []Status{StatusConnecting}, StatusConnecting, StatusConnected, true},
		{"connecting to error", []Status{StatusConnecting}, StatusConnecting, StatusError, true},
		{"connecting aborted", []Status{StatusConnecting}, StatusConnecting, StatusDisconnected, true},
		{"connected to disconnected", []Status{StatusConnecting, StatusConnected}, StatusConnected, StatusDisconnected, true},
		{"connected to error", []Status{StatusConnecting, StatusConnected}, StatusConnected, StatusError, true},
		{"connected to connecting", []Status{StatusConnecting, StatusConnected}, StatusConnected, StatusConnecting, false},
		{"error to connecting", []Status{StatusConnecting, StatusError}, StatusError, StatusConnecting, true},
		{"error is sticky", []Status{StatusConnecting, StatusError}, StatusError, StatusDisconnected, false},
		{"error stays error", []Status{StatusConnecting, StatusError}, StatusError, StatusError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine()
			for _, step := range tt.path {
				if !sm.Transition(step) {
					t.Fatalf("setup transition to %s failed", step)
				}
			}
			if sm.Current() != tt.from {
				t.Fatalf("setup left machine in %s, want %s", sm.Current(), tt.from)
			}

			got := sm.Transition(tt.to)
			if got != tt.want {
				t.Errorf("Transition(%s) from %s = %v, want %v", tt.to, tt.from, got, tt.want)
			}
			if tt.want && sm.Current() != tt.to {
				t.Errorf("machine in %s after valid transition, want %s", sm.Current(), tt.to)
			}
			if !tt.want && sm.Current() != tt.from {
				t.Errorf("machine moved to %s after invalid transition, want %s", sm.Current(), tt.from)
			}
		})
	}
}
