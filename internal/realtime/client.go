// Package realtime is the websocket client for the speech generation
// backend. One Generate call performs one full session exchange: configure,
// send a single input item, request a response, and stream the typed events
// back until the backend reports done or error.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/malhajar17/modcast/internal/conversation"
)

// Client dials an OpenAI Realtime-compatible endpoint.
type Client struct {
	url    string
	apiKey string
	model  string
	dialer *websocket.Dialer
}

func NewClient(rawURL, apiKey, model string) *Client {
	return &Client{
		url:    rawURL,
		apiKey: apiKey,
		model:  model,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Generate opens a session for the persona, sends the input (text prompt, or
// raw PCM16 audio when provided), requests a response, and returns the event
// stream. The channel is closed after the terminal done or error event.
func (c *Client) Generate(ctx context.Context, req conversation.GenerateRequest) (<-chan conversation.StreamEvent, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("realtime: API key missing")
	}

	wsURL := c.url
	if c.model != "" {
		wsURL = fmt.Sprintf("%s?model=%s", c.url, url.QueryEscape(c.model))
	}
	headers := http.Header{
		"Authorization": {"Bearer " + c.apiKey},
		"OpenAI-Beta":   {"realtime=v1"},
	}
	conn, resp, err := c.dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			log.Printf("realtime: connection failed with status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("realtime: dial: %w", err)
	}

	if err := c.configure(conn, req); err != nil {
		_ = conn.Close()
		return nil, err
	}

	events := make(chan conversation.StreamEvent, 256)
	go c.readLoop(ctx, conn, events)
	return events, nil
}

func (c *Client) configure(conn *websocket.Conn, req conversation.GenerateRequest) error {
	p := req.Persona
	update := sessionUpdate{
		Type: "session.update",
		Session: sessionConfig{
			Modalities:              []string{"text", "audio"},
			Instructions:            p.Instructions,
			Voice:                   p.Voice,
			InputAudioFormat:        "pcm16",
			OutputAudioFormat:       "pcm16",
			Temperature:             p.Temperature,
			MaxResponseOutputTokens: p.MaxResponseTokens,
			Tools:                   []toolDef{speakerSelectionTool(req.Speakers)},
		},
	}
	if err := conn.WriteJSON(update); err != nil {
		return fmt.Errorf("realtime: session update: %w", err)
	}

	var content itemContent
	if len(req.InputAudio) > 0 {
		log.Printf("realtime: using audio input for %s (%d bytes)", p.Name, len(req.InputAudio))
		content = itemContent{Type: "input_audio", Audio: base64.StdEncoding.EncodeToString(req.InputAudio)}
	} else {
		content = itemContent{Type: "input_text", Text: req.Prompt}
	}
	create := itemCreate{
		Type: "conversation.item.create",
		Item: item{Type: "message", Role: "user", Content: []itemContent{content}},
	}
	if err := conn.WriteJSON(create); err != nil {
		return fmt.Errorf("realtime: item create: %w", err)
	}

	request := responseCreate{
		Type:     "response.create",
		Response: responseConfig{Modalities: []string{"text", "audio"}},
	}
	if err := conn.WriteJSON(request); err != nil {
		return fmt.Errorf("realtime: response create: %w", err)
	}
	return nil
}

// readLoop consumes server messages until a terminal event or read failure.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, events chan<- conversation.StreamEvent) {
	defer close(events)
	defer func() { _ = conn.Close() }()

	// Close the connection when the caller goes away so ReadMessage unblocks.
	readerDone := make(chan struct{})
	defer close(readerDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-readerDone:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			events <- conversation.StreamEvent{
				Kind: conversation.StreamError,
				Err:  fmt.Errorf("realtime: read: %w", err),
			}
			return
		}
		ev, terminal := c.translate(message)
		if ev != nil {
			events <- *ev
		}
		if terminal {
			return
		}
	}
}

// translate maps one server message to a stream event. The second return
// value reports whether the stream is finished.
func (c *Client) translate(message []byte) (*conversation.StreamEvent, bool) {
	var base serverEvent
	if err := json.Unmarshal(message, &base); err != nil {
		log.Printf("realtime: unmarshal message: %v", err)
		return nil, false
	}

	switch base.Type {
	case "response.audio.delta":
		var msg deltaEvent
		if err := json.Unmarshal(message, &msg); err != nil || msg.Delta == "" {
			return nil, false
		}
		pcm, err := base64.StdEncoding.DecodeString(msg.Delta)
		if err != nil {
			log.Printf("realtime: decode audio delta: %v", err)
			return nil, false
		}
		return &conversation.StreamEvent{Kind: conversation.StreamAudioDelta, Audio: pcm}, false

	case "response.text.delta", "response.audio_transcript.delta":
		var msg deltaEvent
		if err := json.Unmarshal(message, &msg); err != nil {
			return nil, false
		}
		return &conversation.StreamEvent{Kind: conversation.StreamTextDelta, Text: msg.Delta}, false

	case "response.output_item.added":
		var msg outputItemAdded
		if err := json.Unmarshal(message, &msg); err != nil {
			return nil, false
		}
		if msg.Item.Type != "function_call" || msg.Item.Name != selectSpeakerTool || msg.Item.Arguments == "" {
			return nil, false
		}
		return c.choiceEvent(msg.Item.Arguments), false

	case "response.function_call_arguments.done":
		var msg functionCallArgsDone
		if err := json.Unmarshal(message, &msg); err != nil {
			return nil, false
		}
		if msg.Name != selectSpeakerTool {
			return nil, false
		}
		return c.choiceEvent(msg.Arguments), false

	case "response.done":
		return &conversation.StreamEvent{Kind: conversation.StreamDone}, true

	case "error":
		var msg errorEvent
		if err := json.Unmarshal(message, &msg); err != nil {
			return nil, false
		}
		return &conversation.StreamEvent{
			Kind: conversation.StreamError,
			Err:  fmt.Errorf("realtime: backend error: %s (%s)", msg.Error.Message, msg.Error.Code),
		}, true

	default:
		return nil, false
	}
}

func (c *Client) choiceEvent(arguments string) *conversation.StreamEvent {
	args, err := parseSpeakerArgs(arguments)
	if err != nil {
		log.Printf("realtime: parse %s arguments: %v", selectSpeakerTool, err)
		return nil
	}
	return &conversation.StreamEvent{
		Kind:   conversation.StreamSpeakerChoice,
		Choice: conversation.SpeakerChoice{NextSpeaker: args.NextSpeaker, Reason: args.Reason},
	}
}
