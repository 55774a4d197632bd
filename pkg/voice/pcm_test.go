package voice

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestEncodePCM(t *testing.T) {
	t.Run("produces two bytes per sample", func(t *testing.T) {
		frame := make([]float32, CaptureFrameSize)
		chunk, err := EncodePCM(frame)
		if err != nil {
			t.Fatalf("EncodePCM failed: %v", err)
		}
		if len(chunk.Data) != CaptureFrameSize*BytesPerSample {
			t.Errorf("expected %d bytes, got %d", CaptureFrameSize*BytesPerSample, len(chunk.Data))
		}
	})

	t.Run("tags the contract mime type", func(t *testing.T) {
		chunk, err := EncodePCM([]float32{0})
		if err != nil {
			t.Fatalf("EncodePCM failed: %v", err)
		}
		if chunk.MimeType != "audio/pcm;rate=16000" {
			t.Errorf("expected mime type audio/pcm;rate=16000, got %q", chunk.MimeType)
		}
	})

	t.Run("rejects nil frame", func(t *testing.T) {
		if _, err := EncodePCM(nil); !errors.Is(err, ErrEmptyChunk) {
			t.Errorf("expected ErrEmptyChunk for nil frame, got %v", err)
		}
	})

	t.Run("accepts empty frame", func(t *testing.T) {
		chunk, err := EncodePCM([]float32{})
		if err != nil {
			t.Fatalf("EncodePCM failed: %v", err)
		}
		if len(chunk.Data) != 0 {
			t.Errorf("expected empty data, got %d bytes", len(chunk.Data))
		}
	})

	t.Run("round trips within quantization error", func(t *testing.T) {
		frame := []float32{0, 0.5, -0.5, 0.25, -0.99, 0.99}
		chunk, err := EncodePCM(frame)
		if err != nil {
			t.Fatalf("EncodePCM failed: %v", err)
		}
		for i, want := range frame {
			v := int16(binary.LittleEndian.Uint16(chunk.Data[i*2:]))
			got := float32(v) / 32768
			if diff := math.Abs(float64(got - want)); diff > 1.0/32768 {
				t.Errorf("sample %d: got %v, want %v (diff %v)", i, got, want, diff)
			}
		}
	})

	t.Run("clamps out of range samples", func(t *testing.T) {
		tests := []struct {
			name   string
			sample float32
			want   int16
		}{
			{"positive overflow", 1.5, math.MaxInt16},
			{"negative overflow", -1.5, math.MinInt16},
			{"full scale positive", 1.0, math.MaxInt16},
			{"full scale negative", -1.0, math.MinInt16},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				chunk, err := EncodePCM([]float32{tt.sample})
				if err != nil {
					t.Fatalf("EncodePCM failed: %v", err)
				}
				got := int16(binary.LittleEndian.Uint16(chunk.Data))
				if got != tt.want {
					t.Errorf("got %d, want %d", got, tt.want)
				}
			})
		}
	})

	t.Run("encodes little endian", func(t *testing.T) {
		// 0.5 quantizes to 16384 = 0x4000
		chunk, err := EncodePCM([]float32{0.5})
		if err != nil {
			t.Fatalf("EncodePCM failed: %v", err)
		}
		if chunk.Data[0] != 0x00 || chunk.Data[1] != 0x40 {
			t.Errorf("expected little-endian [0x00 0x40], got [%#x %#x]", chunk.Data[0], chunk.Data[1])
		}
	})
}

func TestFrameDuration(t *testing.T) {
	tests := []struct {
		name        string
		samples     int
		rate        int
		wantSeconds float64
	}{
		{"capture frame at capture rate", 4096, 16000, 0.256},
		{"one second", 24000, 24000, 1.0},
		{"zero samples", 0, 16000, 0},
		{"zero rate", 4096, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FrameDuration(tt.samples, tt.rate)
			if math.Abs(got-tt.wantSeconds) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.wantSeconds)
			}
		})
	}
}
