package training_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philm28/always/internal/training"
)

func TestParsePartialAnalysis_ValidJSON(t *testing.T) {
	raw := `{"personality": "warm and stubborn", "common_phrases": ["oh honey"]}`

	assert.Equal(t, raw, training.ParsePartialAnalysis(raw))
}

func TestParsePartialAnalysis_FencedJSON(t *testing.T) {
	raw := "```json\n{\"personality\": \"dry humor\"}\n```"

	assert.Equal(t, `{"personality": "dry humor"}`, training.ParsePartialAnalysis(raw))
}

func TestParsePartialAnalysis_Malformed(t *testing.T) {
	got := training.ParsePartialAnalysis("Sure! Here is the analysis you asked for:")

	assert.Equal(t, training.AnalysisErrorMarker, got)
}

func TestParseProfile_Valid(t *testing.T) {
	raw := `{
		"personality": "gentle, endlessly patient",
		"speech_patterns": ["trails off mid-sentence"],
		"common_phrases": ["you know what I mean"],
		"emotional_tone": "nostalgic",
		"memories": ["the lake house summers"],
		"voice_characteristics": {"pitch": "low", "speed": "slow", "tone": "warm"}
	}`

	profile, err := training.ParseProfile(raw)
	require.NoError(t, err)

	assert.Equal(t, "gentle, endlessly patient", profile.Personality)
	assert.Equal(t, []string{"you know what I mean"}, profile.CommonPhrases)
	require.NotNil(t, profile.VoiceCharacteristics)
	assert.Equal(t, "warm", profile.VoiceCharacteristics.Tone)
}

func TestParseProfile_Fenced(t *testing.T) {
	raw := "```json\n{\"personality\": \"quiet\"}\n```"

	profile, err := training.ParseProfile(raw)
	require.NoError(t, err)
	assert.Equal(t, "quiet", profile.Personality)
}

func TestParseProfile_MalformedIsError(t *testing.T) {
	_, err := training.ParseProfile("I'm sorry, I can't produce JSON right now.")

	assert.Error(t, err)
}

func TestParseProfile_MissingPersonalityIsError(t *testing.T) {
	_, err := training.ParseProfile(`{"emotional_tone": "flat"}`)

	assert.ErrorContains(t, err, "personality")
}
