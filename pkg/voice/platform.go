package voice

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// Platform represents the current operating system platform
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

// AudioSubsystem represents the available audio subsystem
type AudioSubsystem string

const (
	AudioSubsystemALSA       AudioSubsystem = "alsa"
	AudioSubsystemPulseAudio AudioSubsystem = "pulseaudio"
	AudioSubsystemCoreAudio  AudioSubsystem = "coreaudio"
	AudioSubsystemWASAPI     AudioSubsystem = "wasapi"
	AudioSubsystemNone       AudioSubsystem = "none"
)

// PlatformInfo contains information about the current platform's audio
// capabilities. Both the playback and capture devices consult it when
// choosing buffer sizes and deciding whether real hardware is usable.
type PlatformInfo struct {
	OS             Platform
	AudioSubsystem AudioSubsystem
	HasAudioDevice bool
	HasInputDevice bool
	IsCI           bool
}

// DetectPlatform detects the current platform and audio capabilities
func DetectPlatform() *PlatformInfo {
	info := &PlatformInfo{
		OS:   getPlatform(),
		IsCI: IsCI(),
	}

	switch info.OS {
	case PlatformLinux:
		info.AudioSubsystem = detectLinuxAudio()
		info.HasAudioDevice = checkLinuxAudioDevices()
		info.HasInputDevice = checkLinuxInputDevices()
	case PlatformDarwin:
		info.AudioSubsystem = AudioSubsystemCoreAudio
		// CoreAudio is almost always present on macOS, and the capture
		// path surfaces its own permission errors when the mic is opened.
		info.HasAudioDevice = true
		info.HasInputDevice = true
	case PlatformWindows:
		info.AudioSubsystem = AudioSubsystemWASAPI
		info.HasAudioDevice = checkWindowsAudioDevices()
		info.HasInputDevice = info.HasAudioDevice
	default:
		info.AudioSubsystem = AudioSubsystemNone
		info.HasAudioDevice = false
		info.HasInputDevice = false
	}

	log.Debug("Platform detected",
		"os", info.OS,
		"audio", info.AudioSubsystem,
		"has_output", info.HasAudioDevice,
		"has_input", info.HasInputDevice,
		"is_ci", info.IsCI)

	return info
}

// IsCI detects if we're running in a CI environment
func IsCI() bool {
	ciVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
		"DRONE",
	}

	for _, envVar := range ciVars {
		if val := os.Getenv(envVar); val != "" && val != "false" {
			log.Debug("CI environment detected", "variable", envVar, "value", val)
			return true
		}
	}

	if os.Getenv("VOICELINK_MOCK_AUDIO") == "true" {
		log.Debug("Mock audio requested via environment variable")
		return true
	}

	return false
}

// ShouldUseMockAudio reports whether real audio hardware should be avoided
func (p *PlatformInfo) ShouldUseMockAudio() bool {
	if p.IsCI {
		return true
	}
	if p.AudioSubsystem == AudioSubsystemNone {
		return true
	}
	if !p.HasAudioDevice {
		return true
	}
	return false
}

// GetPlatformBufferSize returns the recommended playback buffer size for
// the platform, in milliseconds
func (p *PlatformInfo) GetPlatformBufferSize() int {
	switch p.OS {
	case PlatformDarwin:
		// macOS benefits from larger buffers
		return 100
	case PlatformWindows:
		// Windows WASAPI works well with moderate buffers
		return 80
	case PlatformLinux:
		// ALSA needs smaller buffers to avoid underruns
		if p.AudioSubsystem == AudioSubsystemPulseAudio {
			return 60
		}
		return 50
	default:
		return 50
	}
}

// String returns a string representation of the platform info
func (p *PlatformInfo) String() string {
	return fmt.Sprintf("Platform{OS: %s, Audio: %s, HasOutput: %v, HasInput: %v, IsCI: %v}",
		p.OS, p.AudioSubsystem, p.HasAudioDevice, p.HasInputDevice, p.IsCI)
}

// getPlatform returns the current platform
func getPlatform() Platform {
	switch runtime.GOOS {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformDarwin
	case "windows":
		return PlatformWindows
	default:
		return PlatformUnknown
	}
}

// detectLinuxAudio detects the audio subsystem on Linux
func detectLinuxAudio() AudioSubsystem {
	// Check for PulseAudio first (more common on desktop Linux)
	if isCommandAvailable("pactl") {
		if output, err := exec.Command("pactl", "info").Output(); err == nil {
			if strings.Contains(string(output), "Server Name") {
				log.Debug("PulseAudio detected")
				return AudioSubsystemPulseAudio
			}
		}
	}

	if _, err := os.Stat("/proc/asound"); err == nil {
		log.Debug("ALSA detected via /proc/asound")
		return AudioSubsystemALSA
	}

	if isCommandAvailable("aplay") {
		log.Debug("ALSA detected via aplay command")
		return AudioSubsystemALSA
	}

	return AudioSubsystemNone
}

// checkLinuxAudioDevices checks if playback devices are available on Linux
func checkLinuxAudioDevices() bool {
	// Check /dev/snd for ALSA devices
	if _, err := os.Stat("/dev/snd"); err == nil {
		entries, err := os.ReadDir("/dev/snd")
		if err == nil {
			for _, entry := range entries {
				if strings.HasPrefix(entry.Name(), "pcm") {
					log.Debug("Linux audio devices found in /dev/snd")
					return true
				}
			}
		}
	}

	if _, err := os.Stat("/proc/asound/cards"); err == nil {
		content, err := os.ReadFile("/proc/asound/cards")
		if err == nil && len(content) > 0 && !strings.Contains(string(content), "no soundcards") {
			log.Debug("Linux audio cards found in /proc/asound/cards")
			return true
		}
	}

	if isCommandAvailable("pactl") {
		if output, err := exec.Command("pactl", "list", "short", "sinks").Output(); err == nil {
			if len(output) > 0 {
				log.Debug("PulseAudio sinks found")
				return true
			}
		}
	}

	log.Debug("No Linux audio devices found")
	return false
}

// checkLinuxInputDevices checks if capture devices are available on Linux
func checkLinuxInputDevices() bool {
	if isCommandAvailable("pactl") {
		if output, err := exec.Command("pactl", "list", "short", "sources").Output(); err == nil {
			if len(output) > 0 {
				log.Debug("PulseAudio sources found")
				return true
			}
		}
	}

	if _, err := os.Stat("/dev/snd"); err == nil {
		entries, err := os.ReadDir("/dev/snd")
		if err == nil {
			for _, entry := range entries {
				// Capture PCM nodes are named pcmC<card>D<dev>c.
				if strings.HasPrefix(entry.Name(), "pcm") && strings.HasSuffix(entry.Name(), "c") {
					log.Debug("Linux capture devices found in /dev/snd")
					return true
				}
			}
		}
	}

	log.Debug("No Linux capture devices found")
	return false
}

// checkWindowsAudioDevices checks if audio devices are available on Windows
func checkWindowsAudioDevices() bool {
	if isCommandAvailable("sc") {
		if output, err := exec.Command("sc", "query", "AudioSrv").Output(); err == nil {
			if strings.Contains(string(output), "RUNNING") {
				log.Debug("Windows Audio Service is running")
				return true
			}
		}
	}

	// Assume audio is available on Windows
	log.Debug("Assuming Windows has audio devices")
	return true
}

// isCommandAvailable checks if a command is available in PATH
func isCommandAvailable(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}
