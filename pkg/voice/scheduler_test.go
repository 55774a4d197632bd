package voice

import (
	"errors"
	"testing"
	"time"
)

// monoBuffer builds a silent mono buffer with the given play time at
// the playback rate.
func monoBuffer(d time.Duration) *AudioBuffer {
	samples := int(d.Seconds() * PlaybackSampleRate)
	return &AudioBuffer{
		Data:       [][]float32{make([]float32, samples)},
		SampleRate: PlaybackSampleRate,
	}
}

func TestSchedulerGaplessOrdering(t *testing.T) {
	out := NewMockOutputContext()
	s := NewScheduler(out)

	durations := []time.Duration{
		100 * time.Millisecond,
		250 * time.Millisecond,
		50 * time.Millisecond,
	}
	for _, d := range durations {
		if err := s.Schedule(monoBuffer(d)); err != nil {
			t.Fatalf("Schedule failed: %v", err)
		}
	}

	handles := out.Handles()
	if len(handles) != 3 {
		t.Fatalf("expected 3 handles, got %d", len(handles))
	}

	wantStarts := []time.Duration{0, 100 * time.Millisecond, 350 * time.Millisecond}
	for i, want := range wantStarts {
		if got := handles[i].StartAt(); got != want {
			t.Errorf("chunk %d scheduled at %v, want %v", i, got, want)
		}
	}

	if got := s.Cursor(); got != 400*time.Millisecond {
		t.Errorf("cursor at %v, want 400ms", got)
	}
	if got := s.InFlightCount(); got != 3 {
		t.Errorf("in-flight count %d, want 3", got)
	}
}

func TestSchedulerStartsAtClockWhenCursorLags(t *testing.T) {
	out := NewMockOutputContext()
	s := NewScheduler(out)

	out.Advance(time.Second)
	if err := s.Schedule(monoBuffer(100 * time.Millisecond)); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	handles := out.Handles()
	if got := handles[0].StartAt(); got != time.Second {
		t.Errorf("chunk scheduled at %v, want 1s", got)
	}
	if got := s.Cursor(); got != time.Second+100*time.Millisecond {
		t.Errorf("cursor at %v, want 1.1s", got)
	}
}

func TestSchedulerNaturalEndRemovesHandle(t *testing.T) {
	out := NewMockOutputContext()
	s := NewScheduler(out)

	if err := s.Schedule(monoBuffer(100 * time.Millisecond)); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if err := s.Schedule(monoBuffer(100 * time.Millisecond)); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	handles := out.Handles()
	handles[0].Finish()

	if got := s.InFlightCount(); got != 1 {
		t.Errorf("in-flight count %d after natural end, want 1", got)
	}

	// Finishing twice must not remove anything else.
	handles[0].Finish()
	if got := s.InFlightCount(); got != 1 {
		t.Errorf("in-flight count %d after double finish, want 1", got)
	}
}

func TestSchedulerInterrupt(t *testing.T) {
	out := NewMockOutputContext()
	s := NewScheduler(out)

	for i := 0; i < 3; i++ {
		if err := s.Schedule(monoBuffer(100 * time.Millisecond)); err != nil {
			t.Fatalf("Schedule failed: %v", err)
		}
	}

	s.Interrupt()

	if got := s.InFlightCount(); got != 0 {
		t.Errorf("in-flight count %d after interrupt, want 0", got)
	}
	if got := s.Cursor(); got != 0 {
		t.Errorf("cursor at %v after interrupt, want 0", got)
	}
	for i, h := range out.Handles() {
		if h.IsPlaying() {
			t.Errorf("handle %d still playing after interrupt", i)
		}
		if h.StopCount != 1 {
			t.Errorf("handle %d stopped %d times, want 1", i, h.StopCount)
		}
	}
}

func TestSchedulerInterruptIdempotent(t *testing.T) {
	out := NewMockOutputContext()
	s := NewScheduler(out)

	if err := s.Schedule(monoBuffer(100 * time.Millisecond)); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	s.Interrupt()
	s.Interrupt()

	if got := s.InFlightCount(); got != 0 {
		t.Errorf("in-flight count %d, want 0", got)
	}
	if got := out.Handles()[0].StopCount; got != 1 {
		t.Errorf("handle stopped %d times, want 1", got)
	}
}

func TestSchedulerInterruptToleratesFinishedHandles(t *testing.T) {
	out := NewMockOutputContext()
	s := NewScheduler(out)

	if err := s.Schedule(monoBuffer(100 * time.Millisecond)); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if err := s.Schedule(monoBuffer(100 * time.Millisecond)); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	out.Handles()[0].Finish()
	s.Interrupt()

	if got := s.InFlightCount(); got != 0 {
		t.Errorf("in-flight count %d, want 0", got)
	}
}

func TestSchedulerResumesFromZeroAfterInterrupt(t *testing.T) {
	out := NewMockOutputContext()
	s := NewScheduler(out)

	if err := s.Schedule(monoBuffer(500 * time.Millisecond)); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	s.Interrupt()

	// Next chunk must not wait behind the stale cursor.
	if err := s.Schedule(monoBuffer(100 * time.Millisecond)); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	handles := out.Handles()
	if got := handles[1].StartAt(); got != 0 {
		t.Errorf("post-interrupt chunk scheduled at %v, want 0", got)
	}
}

func TestSchedulerClosedOutput(t *testing.T) {
	out := NewMockOutputContext()
	s := NewScheduler(out)

	_ = out.Close()
	err := s.Schedule(monoBuffer(100 * time.Millisecond))
	if !errors.Is(err, ErrOutputNotReady) {
		t.Errorf("expected ErrOutputNotReady, got %v", err)
	}
	if got := s.InFlightCount(); got != 0 {
		t.Errorf("in-flight count %d after failed schedule, want 0", got)
	}
}
