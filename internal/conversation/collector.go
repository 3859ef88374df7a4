package conversation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/malhajar17/modcast/internal/audio"
)

// TurnResult is everything one backend exchange produced.
type TurnResult struct {
	Text string
	// WAV is the full accumulated audio wrapped in a WAV container.
	WAV    []byte
	Frames int
	// Choice is nil when the persona never declared a next speaker; the
	// caller is responsible for the fallback policy.
	Choice *SpeakerChoice
}

// Collector drives a single generation exchange for one persona: it opens the
// backend stream, accumulates the transcript and audio, forwards each audio
// frame to listeners as soon as it arrives, and captures any next-speaker
// nomination offered along the way.
type Collector struct {
	backend    Backend
	timer      *ChunkTimer
	bus        *Bus
	sampleRate int
}

func NewCollector(backend Backend, timer *ChunkTimer, bus *Bus, sampleRate int) *Collector {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return &Collector{backend: backend, timer: timer, bus: bus, sampleRate: sampleRate}
}

// Collect runs one exchange. inputAudio, when non-nil, replaces the text
// prompt as the turn's input. Errors are recoverable: the caller records them
// as a failed turn and moves on.
func (c *Collector) Collect(ctx context.Context, turn int, persona PersonaConfig, prompt string, inputAudio []byte, speakers []string) (TurnResult, error) {
	c.timer.Reset(persona.Name)

	events, err := c.backend.Generate(ctx, GenerateRequest{
		Persona:    persona,
		Prompt:     prompt,
		InputAudio: inputAudio,
		Speakers:   speakers,
	})
	if err != nil {
		return TurnResult{}, fmt.Errorf("collector: open stream for %s: %w", persona.Name, err)
	}

	var res TurnResult
	var pcm []byte
	var text strings.Builder
	done := false
	for ev := range events {
		switch ev.Kind {
		case StreamTextDelta:
			text.WriteString(ev.Text)
		case StreamAudioDelta:
			if len(ev.Audio) == 0 {
				continue
			}
			pcm = append(pcm, ev.Audio...)
			res.Frames++
			c.timer.RecordFrame(persona.Name)
			// Forward immediately; listeners must not wait for the
			// full response.
			c.bus.Publish(Event{
				Kind:    EventAudioChunk,
				Turn:    turn,
				Speaker: persona.Name,
				Audio:   audio.WrapPCM16(ev.Audio, c.sampleRate),
			})
		case StreamSpeakerChoice:
			choice := ev.Choice
			res.Choice = &choice
			log.Printf("collector: %s selected next speaker %q (%s)", persona.Name, choice.NextSpeaker, choice.Reason)
		case StreamDone:
			done = true
		case StreamError:
			return TurnResult{}, fmt.Errorf("collector: %s stream: %w", persona.Name, ev.Err)
		}
		if done {
			break
		}
	}
	if !done {
		return TurnResult{}, fmt.Errorf("collector: %s stream closed before done", persona.Name)
	}

	if res.Choice == nil {
		log.Printf("collector: %s made no next-speaker choice", persona.Name)
	}
	res.Text = strings.TrimSpace(text.String())
	res.WAV = audio.WrapPCM16(pcm, c.sampleRate)
	return res, nil
}
