package conversation

import (
	"context"
	"time"
)

// HumanSpeaker is the sentinel speaker name for the human participant.
const HumanSpeaker = "Human"

// PersonaConfig is the static configuration of a single AI participant.
// It is created at conversation setup and never mutated afterwards.
type PersonaConfig struct {
	Name              string
	Voice             string
	Instructions      string
	Temperature       float64
	MaxResponseTokens int
}

// TurnEntry is one completed speaking turn. Entries are immutable once
// appended; their order is conversational order.
type TurnEntry struct {
	Speaker    string    `json:"speaker"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	AudioBytes int       `json:"audio_bytes"`
}

// SpeakerChoice is an explicit next-speaker nomination made by a persona
// during its own turn.
type SpeakerChoice struct {
	NextSpeaker string
	Reason      string
}

// StreamEventKind discriminates events on a backend generation stream.
type StreamEventKind int

const (
	StreamTextDelta StreamEventKind = iota
	StreamAudioDelta
	StreamSpeakerChoice
	StreamDone
	StreamError
)

// StreamEvent is one typed event from the speech backend. A stream ends with
// exactly one StreamDone or StreamError event.
type StreamEvent struct {
	Kind   StreamEventKind
	Text   string        // StreamTextDelta
	Audio  []byte        // StreamAudioDelta, raw PCM16 mono
	Choice SpeakerChoice // StreamSpeakerChoice
	Err    error         // StreamError
}

// GenerateRequest configures one backend exchange for a persona.
type GenerateRequest struct {
	Persona PersonaConfig
	// Prompt is the user message text. Ignored when InputAudio is set.
	Prompt string
	// InputAudio is raw PCM16 audio used as the turn's input instead of Prompt.
	InputAudio []byte
	// Speakers enumerates the allowed values of the next-speaker choice the
	// backend may surface during generation.
	Speakers []string
}

// Backend performs a single request/stream-consume exchange against the
// speech generation service. The returned channel is closed after the
// terminal StreamDone or StreamError event.
type Backend interface {
	Generate(ctx context.Context, req GenerateRequest) (<-chan StreamEvent, error)
}
