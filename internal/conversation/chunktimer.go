package conversation

import (
	"sync"
	"time"
)

// DefaultFrameDuration approximates the playback time of one backend audio
// frame. It is how the orchestrator paces turn transitions without actually
// playing audio.
const DefaultFrameDuration = 655 * time.Millisecond

// ChunkTimer counts the audio frames each speaker produced during the current
// turn and derives an estimated playback duration from them.
type ChunkTimer struct {
	mu       sync.Mutex
	frameDur time.Duration
	counts   map[string]int
}

func NewChunkTimer(frameDur time.Duration) *ChunkTimer {
	if frameDur <= 0 {
		frameDur = DefaultFrameDuration
	}
	return &ChunkTimer{frameDur: frameDur, counts: make(map[string]int)}
}

// RecordFrame tracks one audio frame for the named speaker.
func (t *ChunkTimer) RecordFrame(name string) {
	t.mu.Lock()
	t.counts[name]++
	t.mu.Unlock()
}

// FrameCount returns the frames recorded for the named speaker this turn.
func (t *ChunkTimer) FrameCount(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[name]
}

// EstimatedWait returns frame count times the per-frame duration.
func (t *ChunkTimer) EstimatedWait(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(t.counts[name]) * t.frameDur
}

// Reset clears the count for one speaker (done at the start of its turn).
func (t *ChunkTimer) Reset(name string) {
	t.mu.Lock()
	delete(t.counts, name)
	t.mu.Unlock()
}

// ClearAll clears every speaker's count (done at full conversation reset).
func (t *ChunkTimer) ClearAll() {
	t.mu.Lock()
	t.counts = make(map[string]int)
	t.mu.Unlock()
}
