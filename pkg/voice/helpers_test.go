package voice

import (
	"sync"
	"testing"
	"time"
)

// waitFor polls a condition until it holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// chunkRecorder is a ChunkSender that records everything sent to it.
type chunkRecorder struct {
	mu     sync.Mutex
	chunks []EncodedChunk
}

func (r *chunkRecorder) SendAudio(chunk EncodedChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, chunk)
	return nil
}

func (r *chunkRecorder) sent() []EncodedChunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EncodedChunk, len(r.chunks))
	copy(out, r.chunks)
	return out
}
