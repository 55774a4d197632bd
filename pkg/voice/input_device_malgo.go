//go:build !nocgo
// +build !nocgo

package voice

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"
)

// MalgoInputDevice implements InputDevice on top of miniaudio.
type MalgoInputDevice struct {
	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	started bool
	stopped bool
}

// NewMalgoInputDevice creates an unstarted capture device.
func NewMalgoInputDevice() *MalgoInputDevice {
	return &MalgoInputDevice{}
}

// Start acquires the default capture device at the contract format and
// begins delivering frames. Denied microphone access surfaces as
// ErrPermissionDenied so the session can route it to the error state.
func (d *MalgoInputDevice) Start(onFrame FrameFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrSessionClosed
	}
	if d.started {
		return ErrDeviceAlreadyOpen
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug("malgo", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return fmt.Errorf("init capture context: %w", classifyCaptureError(err))
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatS16
	config.Capture.Channels = Channels
	config.SampleRate = CaptureSampleRate

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			if len(input) == 0 {
				return
			}
			samples := make([]float32, frameCount)
			for i := 0; i < int(frameCount) && i*2+1 < len(input); i++ {
				v := int16(uint16(input[i*2]) | uint16(input[i*2+1])<<8)
				samples[i] = float32(v) / 32768
			}
			onFrame(samples)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, config, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("init capture device: %w", classifyCaptureError(err))
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("start capture device: %w", classifyCaptureError(err))
	}

	d.ctx = ctx
	d.device = device
	d.started = true
	log.Debug("Capture device started",
		"sample_rate", CaptureSampleRate,
		"channels", Channels)
	return nil
}

// Stop releases the device and capture context. Each release step
// swallows its own failure since the handles may already be invalid.
func (d *MalgoInputDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return nil
	}
	d.stopped = true

	if d.device != nil {
		d.device.Uninit()
		d.device = nil
	}
	if d.ctx != nil {
		_ = d.ctx.Uninit()
		d.ctx.Free()
		d.ctx = nil
	}
	d.started = false
	log.Debug("Capture device released")
	return nil
}

// SampleRate returns the capture sample rate.
func (d *MalgoInputDevice) SampleRate() int {
	return CaptureSampleRate
}

// classifyCaptureError maps miniaudio failures to the session's error
// taxonomy. miniaudio reports access denials differently per backend,
// so the match is on message text.
func classifyCaptureError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "access denied"),
		strings.Contains(msg, "permission"):
		return ErrPermissionDenied
	case strings.Contains(msg, "no device"),
		strings.Contains(msg, "device not found"):
		return ErrNoInputDevice
	}
	return err
}
