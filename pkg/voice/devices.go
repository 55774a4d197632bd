package voice

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// DeviceMode selects which device implementations a session is wired with.
type DeviceMode int

const (
	// DeviceAuto probes the platform and falls back to mocks when no
	// usable hardware is present.
	DeviceAuto DeviceMode = iota
	// DeviceProduction always opens real hardware.
	DeviceProduction
	// DeviceMock never touches hardware.
	DeviceMock
)

// NewOutputContextFor creates a playback context for the given mode.
func NewOutputContextFor(mode DeviceMode) (OutputContext, error) {
	switch mode {
	case DeviceProduction:
		log.Debug("Creating production output context")
		return NewOtoOutputContext(DetectPlatform())

	case DeviceMock:
		log.Debug("Creating mock output context")
		return NewMockOutputContext(), nil

	case DeviceAuto:
		platform := DetectPlatform()
		if platform.ShouldUseMockAudio() {
			reason := "unknown"
			if platform.IsCI {
				reason = "CI environment"
			} else if !platform.HasAudioDevice {
				reason = "no audio devices"
			} else if platform.AudioSubsystem == AudioSubsystemNone {
				reason = "no audio subsystem"
			}
			log.Info("Using mock output context", "reason", reason)
			return NewMockOutputContext(), nil
		}

		ctx, err := NewOtoOutputContext(platform)
		if err != nil {
			log.Warn("Failed to open playback device, falling back to mock",
				"error", err,
				"platform", platform.OS)
			return NewMockOutputContext(), nil
		}
		return ctx, nil

	default:
		return nil, fmt.Errorf("unknown device mode: %v", mode)
	}
}

// NewInputDeviceFor creates a capture device for the given mode. Capture
// errors (missing hardware, denied permission) surface when the device is
// started, not here.
func NewInputDeviceFor(mode DeviceMode) InputDevice {
	switch mode {
	case DeviceProduction:
		log.Debug("Creating production input device")
		return NewMalgoInputDevice()

	case DeviceMock:
		log.Debug("Creating mock input device")
		return NewMockInputDevice()

	default:
		platform := DetectPlatform()
		if platform.ShouldUseMockAudio() || !platform.HasInputDevice {
			log.Info("Using mock input device")
			return NewMockInputDevice()
		}
		return NewMalgoInputDevice()
	}
}
