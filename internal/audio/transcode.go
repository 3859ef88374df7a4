package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Transcoder converts arbitrary client-submitted audio containers (webm, ogg,
// mp4...) into raw PCM16 mono at the backend sample rate by shelling out to
// ffmpeg. It holds no state.
type Transcoder struct {
	// Binary is the ffmpeg executable, "ffmpeg" when empty.
	Binary string
	// SampleRate of the PCM output, DefaultSampleRate when zero.
	SampleRate int
}

func NewTranscoder(sampleRate int) *Transcoder {
	return &Transcoder{SampleRate: sampleRate}
}

// ToPCM16 decodes data and returns raw little-endian 16-bit mono PCM.
func (t *Transcoder) ToPCM16(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("audio: empty input")
	}
	bin := t.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	sr := t.SampleRate
	if sr <= 0 {
		sr = DefaultSampleRate
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("audio: %s not available: %w", bin, err)
	}

	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sr),
		"-ac", "1",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("audio: ffmpeg: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("audio: ffmpeg produced no output")
	}
	return out.Bytes(), nil
}
