package conversation

import (
	"testing"
	"time"
)

func TestChunkTimerCountsPerSpeaker(t *testing.T) {
	ct := NewChunkTimer(DefaultFrameDuration)

	ct.RecordFrame("Alex")
	ct.RecordFrame("Alex")
	ct.RecordFrame("Sam")

	if got := ct.FrameCount("Alex"); got != 2 {
		t.Fatalf("Alex frames = %d, want 2", got)
	}
	if got := ct.FrameCount("Sam"); got != 1 {
		t.Fatalf("Sam frames = %d, want 1", got)
	}
	if got := ct.FrameCount("Jordan"); got != 0 {
		t.Fatalf("Jordan frames = %d, want 0", got)
	}
}

func TestChunkTimerEstimatedWait(t *testing.T) {
	ct := NewChunkTimer(DefaultFrameDuration)
	for i := 0; i < 3; i++ {
		ct.RecordFrame("Alex")
	}

	want := 3 * DefaultFrameDuration // 1965ms at the default frame duration
	if got := ct.EstimatedWait("Alex"); got != want {
		t.Fatalf("EstimatedWait = %s, want %s", got, want)
	}
	if got := ct.EstimatedWait("Sam"); got != 0 {
		t.Fatalf("EstimatedWait for silent speaker = %s, want 0", got)
	}
}

func TestChunkTimerReset(t *testing.T) {
	ct := NewChunkTimer(10 * time.Millisecond)
	ct.RecordFrame("Alex")
	ct.RecordFrame("Sam")

	ct.Reset("Alex")
	if got := ct.FrameCount("Alex"); got != 0 {
		t.Fatalf("frames after Reset = %d, want 0", got)
	}
	if got := ct.FrameCount("Sam"); got != 1 {
		t.Fatalf("Reset must not touch other speakers, Sam = %d", got)
	}

	ct.ClearAll()
	if got := ct.FrameCount("Sam"); got != 0 {
		t.Fatalf("frames after ClearAll = %d, want 0", got)
	}
}

func TestChunkTimerZeroDurationFallsBack(t *testing.T) {
	ct := NewChunkTimer(0)
	ct.RecordFrame("Alex")
	if got := ct.EstimatedWait("Alex"); got != DefaultFrameDuration {
		t.Fatalf("EstimatedWait = %s, want default %s", got, DefaultFrameDuration)
	}
}
