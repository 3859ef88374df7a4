package realtime

import "encoding/json"

// Client messages.

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Modalities              []string  `json:"modalities"`
	Instructions            string    `json:"instructions"`
	Voice                   string    `json:"voice"`
	InputAudioFormat        string    `json:"input_audio_format"`
	OutputAudioFormat       string    `json:"output_audio_format"`
	Temperature             float64   `json:"temperature,omitempty"`
	MaxResponseOutputTokens int       `json:"max_response_output_tokens,omitempty"`
	Tools                   []toolDef `json:"tools,omitempty"`
}

type toolDef struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type itemCreate struct {
	Type string `json:"type"`
	Item item   `json:"item"`
}

type item struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Content []itemContent `json:"content,omitempty"`
	// function_call fields, present on response output items
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type itemContent struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Audio string `json:"audio,omitempty"` // base64 PCM16
}

type responseCreate struct {
	Type     string         `json:"type"`
	Response responseConfig `json:"response"`
}

type responseConfig struct {
	Modalities []string `json:"modalities"`
}

// Server messages.

type serverEvent struct {
	Type string `json:"type"`
}

type deltaEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta"`
}

type outputItemAdded struct {
	Type string `json:"type"`
	Item item   `json:"item"`
}

type functionCallArgsDone struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type errorEvent struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// selectSpeakerArgs are the arguments of the next-speaker tool call.
type selectSpeakerArgs struct {
	NextSpeaker string `json:"next_speaker"`
	Reason      string `json:"reason"`
}

const selectSpeakerTool = "select_next_speaker"

// speakerSelectionTool declares the next-speaker choice capability with the
// given enumerated speaker values.
func speakerSelectionTool(speakers []string) toolDef {
	return toolDef{
		Type:        "function",
		Name:        selectSpeakerTool,
		Description: "Choose who should speak next in the discussion, based on the conversation flow and who you want to respond to your points.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"next_speaker": map[string]any{
					"type": "string",
					"enum": speakers,
				},
				"reason": map[string]any{
					"type":        "string",
					"description": "Why you chose this speaker.",
				},
			},
			"required": []string{"next_speaker", "reason"},
		},
	}
}

func parseSpeakerArgs(arguments string) (selectSpeakerArgs, error) {
	var args selectSpeakerArgs
	err := json.Unmarshal([]byte(arguments), &args)
	return args, err
}
