package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malhajar17/modcast/internal/conversation"
)

// fakeRealtimeServer accepts one websocket session, records the client's
// configuration messages, and replays a canned list of server events.
type fakeRealtimeServer struct {
	t      *testing.T
	events []any

	mu       sync.Mutex
	messages []json.RawMessage
	auth     string
}

func (f *fakeRealtimeServer) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.auth = r.Header.Get("Authorization")
	f.mu.Unlock()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.t.Errorf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	// session.update, conversation.item.create, response.create
	for i := 0; i < 3; i++ {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			f.t.Errorf("read client message %d: %v", i, err)
			return
		}
		f.mu.Lock()
		f.messages = append(f.messages, raw)
		f.mu.Unlock()
	}
	for _, ev := range f.events {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

func (f *fakeRealtimeServer) authHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func (f *fakeRealtimeServer) clientMessages() []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]json.RawMessage(nil), f.messages...)
}

func startFake(t *testing.T, events []any) (*fakeRealtimeServer, *Client) {
	fake := &fakeRealtimeServer{t: t, events: events}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return fake, NewClient(wsURL, "test-key", "test-model")
}

func collect(t *testing.T, events <-chan conversation.StreamEvent) []conversation.StreamEvent {
	t.Helper()
	var out []conversation.StreamEvent
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatal("stream never closed")
		}
	}
}

func generateReq() conversation.GenerateRequest {
	return conversation.GenerateRequest{
		Persona: conversation.PersonaConfig{
			Name:              "Alex",
			Voice:             "ballad",
			Instructions:      "You are Alex.",
			Temperature:       0.8,
			MaxResponseTokens: 1000,
		},
		Prompt:   "Say hi.",
		Speakers: []string{"Alex", "Sam", "Human"},
	}
}

func TestClientStreamsTypedEvents(t *testing.T) {
	pcm := []byte{1, 0, 2, 0}
	fake, client := startFake(t, []any{
		map[string]any{"type": "response.audio_transcript.delta", "delta": "Hello "},
		map[string]any{"type": "response.audio_transcript.delta", "delta": "there"},
		map[string]any{"type": "response.audio.delta", "delta": base64.StdEncoding.EncodeToString(pcm)},
		map[string]any{
			"type":      "response.function_call_arguments.done",
			"name":      "select_next_speaker",
			"arguments": `{"next_speaker":"Sam","reason":"analyst view"}`,
		},
		map[string]any{"type": "response.done"},
	})

	events, err := client.Generate(context.Background(), generateReq())
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 5)
	assert.Equal(t, conversation.StreamTextDelta, got[0].Kind)
	assert.Equal(t, "Hello ", got[0].Text)
	assert.Equal(t, conversation.StreamTextDelta, got[1].Kind)
	assert.Equal(t, conversation.StreamAudioDelta, got[2].Kind)
	assert.Equal(t, pcm, got[2].Audio)
	assert.Equal(t, conversation.StreamSpeakerChoice, got[3].Kind)
	assert.Equal(t, "Sam", got[3].Choice.NextSpeaker)
	assert.Equal(t, "analyst view", got[3].Choice.Reason)
	assert.Equal(t, conversation.StreamDone, got[4].Kind)

	assert.Equal(t, "Bearer test-key", fake.authHeader())
}

func TestClientConfiguresSession(t *testing.T) {
	fake, client := startFake(t, []any{map[string]any{"type": "response.done"}})

	events, err := client.Generate(context.Background(), generateReq())
	require.NoError(t, err)
	collect(t, events)

	msgs := fake.clientMessages()
	require.Len(t, msgs, 3)

	var update sessionUpdate
	require.NoError(t, json.Unmarshal(msgs[0], &update))
	assert.Equal(t, "session.update", update.Type)
	assert.Equal(t, "ballad", update.Session.Voice)
	assert.Equal(t, "You are Alex.", update.Session.Instructions)
	assert.Equal(t, "pcm16", update.Session.InputAudioFormat)
	assert.Equal(t, "pcm16", update.Session.OutputAudioFormat)
	require.Len(t, update.Session.Tools, 1)
	assert.Equal(t, selectSpeakerTool, update.Session.Tools[0].Name)

	var create itemCreate
	require.NoError(t, json.Unmarshal(msgs[1], &create))
	assert.Equal(t, "conversation.item.create", create.Type)
	require.Len(t, create.Item.Content, 1)
	assert.Equal(t, "input_text", create.Item.Content[0].Type)
	assert.Equal(t, "Say hi.", create.Item.Content[0].Text)

	var response responseCreate
	require.NoError(t, json.Unmarshal(msgs[2], &response))
	assert.Equal(t, "response.create", response.Type)
	assert.Equal(t, []string{"text", "audio"}, response.Response.Modalities)
}

func TestClientSendsAudioInput(t *testing.T) {
	fake, client := startFake(t, []any{map[string]any{"type": "response.done"}})

	req := generateReq()
	req.InputAudio = []byte{9, 0, 8, 0}
	events, err := client.Generate(context.Background(), req)
	require.NoError(t, err)
	collect(t, events)

	msgs := fake.clientMessages()
	require.Len(t, msgs, 3)
	var create itemCreate
	require.NoError(t, json.Unmarshal(msgs[1], &create))
	require.Len(t, create.Item.Content, 1)
	assert.Equal(t, "input_audio", create.Item.Content[0].Type)
	assert.Equal(t, base64.StdEncoding.EncodeToString(req.InputAudio), create.Item.Content[0].Audio)
	assert.Empty(t, create.Item.Content[0].Text)
}

func TestClientSurfacesBackendError(t *testing.T) {
	_, client := startFake(t, []any{
		map[string]any{"type": "error", "error": map[string]any{"code": "rate_limit", "message": "slow down"}},
	})

	events, err := client.Generate(context.Background(), generateReq())
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, conversation.StreamError, got[0].Kind)
	assert.ErrorContains(t, got[0].Err, "slow down")
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient("ws://127.0.0.1:0", "", "test-model")
	_, err := client.Generate(context.Background(), generateReq())
	assert.Error(t, err)
}

func TestClientIgnoresUnknownEvents(t *testing.T) {
	_, client := startFake(t, []any{
		map[string]any{"type": "session.created"},
		map[string]any{"type": "response.output_item.added", "item": map[string]any{"type": "message"}},
		map[string]any{"type": "response.done"},
	})

	events, err := client.Generate(context.Background(), generateReq())
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, conversation.StreamDone, got[0].Kind)
}
