package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeakerSelectionToolEnumeratesSpeakers(t *testing.T) {
	tool := speakerSelectionTool([]string{"Alex", "Sam", "Human"})

	assert.Equal(t, "function", tool.Type)
	assert.Equal(t, selectSpeakerTool, tool.Name)

	props, ok := tool.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	next, ok := props["next_speaker"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"Alex", "Sam", "Human"}, next["enum"])
	assert.Equal(t, []string{"next_speaker", "reason"}, tool.Parameters["required"])
}

func TestParseSpeakerArgs(t *testing.T) {
	args, err := parseSpeakerArgs(`{"next_speaker":"Jordan","reason":"practical angle"}`)
	require.NoError(t, err)
	assert.Equal(t, "Jordan", args.NextSpeaker)
	assert.Equal(t, "practical angle", args.Reason)

	_, err = parseSpeakerArgs(`{not json`)
	assert.Error(t, err)
}
