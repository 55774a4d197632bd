package voice

import (
	"encoding/binary"
	"errors"
	"testing"
)

// taggedFrame builds a full capture frame whose first sample encodes a
// marker value, so ordering is observable after transport encoding.
func taggedFrame(marker float32) []float32 {
	frame := make([]float32, CaptureFrameSize)
	frame[0] = marker
	return frame
}

func firstSample(chunk EncodedChunk) int16 {
	return int16(binary.LittleEndian.Uint16(chunk.Data))
}

func TestCapturePipelineFraming(t *testing.T) {
	device := NewMockInputDevice()
	recorder := &chunkRecorder{}
	p := NewCapturePipeline(device, recorder, 8)

	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()
	p.Wire()

	device.Inject(taggedFrame(0.5))
	waitFor(t, func() bool { return len(recorder.sent()) == 1 }, "one chunk")

	chunk := recorder.sent()[0]
	if len(chunk.Data) != CaptureFrameSize*BytesPerSample {
		t.Errorf("chunk has %d bytes, want %d", len(chunk.Data), CaptureFrameSize*BytesPerSample)
	}
	if chunk.MimeType != OutboundMimeType {
		t.Errorf("chunk mime type %q, want %q", chunk.MimeType, OutboundMimeType)
	}
	if got := firstSample(chunk); got != 16384 {
		t.Errorf("first sample %d, want 16384", got)
	}
}

func TestCapturePipelineAccumulatesPartialDeliveries(t *testing.T) {
	device := NewMockInputDevice()
	recorder := &chunkRecorder{}
	p := NewCapturePipeline(device, recorder, 8)

	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()
	p.Wire()

	// Drivers deliver odd block sizes; windows are fixed regardless.
	device.Inject(make([]float32, 3000))
	if got := len(recorder.sent()); got != 0 {
		t.Fatalf("got %d chunks before a full window, want 0", got)
	}

	device.Inject(make([]float32, 3000))
	waitFor(t, func() bool { return len(recorder.sent()) == 1 }, "first full window")

	// 6000 total: one window out, 1904 pending. 2192 more completes
	// the second window exactly.
	device.Inject(make([]float32, 2192))
	waitFor(t, func() bool { return len(recorder.sent()) == 2 }, "second full window")
}

func TestCapturePipelineBuffersBeforeWire(t *testing.T) {
	device := NewMockInputDevice()
	recorder := &chunkRecorder{}
	p := NewCapturePipeline(device, recorder, 8)

	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	// Frames captured before the channel opens wait in the queue.
	device.Inject(taggedFrame(0.25))
	device.Inject(taggedFrame(0.5))
	if got := len(recorder.sent()); got != 0 {
		t.Fatalf("got %d chunks before wiring, want 0", got)
	}

	p.Wire()
	waitFor(t, func() bool { return len(recorder.sent()) == 2 }, "buffered chunks")

	chunks := recorder.sent()
	if firstSample(chunks[0]) != 8192 || firstSample(chunks[1]) != 16384 {
		t.Errorf("chunks out of order: first samples %d, %d",
			firstSample(chunks[0]), firstSample(chunks[1]))
	}
}

func TestCapturePipelineDropsOldestWhenFull(t *testing.T) {
	device := NewMockInputDevice()
	recorder := &chunkRecorder{}
	p := NewCapturePipeline(device, recorder, 2)

	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	device.Inject(taggedFrame(0.25))
	device.Inject(taggedFrame(0.5))
	device.Inject(taggedFrame(0.75))

	if got := p.Dropped(); got != 1 {
		t.Fatalf("dropped %d frames, want 1", got)
	}

	p.Wire()
	waitFor(t, func() bool { return len(recorder.sent()) == 2 }, "surviving chunks")

	chunks := recorder.sent()
	if firstSample(chunks[0]) != 16384 || firstSample(chunks[1]) != 24576 {
		t.Errorf("wrong survivors: first samples %d, %d",
			firstSample(chunks[0]), firstSample(chunks[1]))
	}
}

func TestCapturePipelineStart(t *testing.T) {
	t.Run("propagates permission denial", func(t *testing.T) {
		device := NewMockInputDevice()
		device.DenyPermission = true
		p := NewCapturePipeline(device, &chunkRecorder{}, 8)

		err := p.Start()
		if !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("rejects double start", func(t *testing.T) {
		p := NewCapturePipeline(NewMockInputDevice(), &chunkRecorder{}, 8)
		if err := p.Start(); err != nil {
			t.Fatalf("first Start failed: %v", err)
		}
		defer p.Stop()
		if err := p.Start(); !errors.Is(err, ErrDeviceAlreadyOpen) {
			t.Errorf("expected ErrDeviceAlreadyOpen, got %v", err)
		}
	})

	t.Run("rejects start after stop", func(t *testing.T) {
		p := NewCapturePipeline(NewMockInputDevice(), &chunkRecorder{}, 8)
		p.Stop()
		if err := p.Start(); !errors.Is(err, ErrSessionClosed) {
			t.Errorf("expected ErrSessionClosed, got %v", err)
		}
	})
}

func TestCapturePipelineStop(t *testing.T) {
	device := NewMockInputDevice()
	p := NewCapturePipeline(device, &chunkRecorder{}, 8)

	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	p.Wire()

	p.Stop()
	p.Stop()

	if device.StopCount != 1 {
		t.Errorf("device stopped %d times, want 1", device.StopCount)
	}
	if device.IsStarted() {
		t.Error("device still started after Stop")
	}

	// Frames after stop are discarded.
	device.Inject(taggedFrame(0.5))
	if got := p.Dropped(); got != 0 {
		t.Errorf("dropped %d frames after stop, want 0", got)
	}
}
