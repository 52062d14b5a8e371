package training_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/training"
)

func TestBuildSystemPrompt(t *testing.T) {
	profile := &models.PersonaProfile{
		Personality:   "blunt but generous",
		CommonPhrases: []string{"no nonsense now"},
		EmotionalTone: "gruff",
		Memories:      []string{"teaching you to drive stick"},
	}

	prompt := training.BuildSystemPrompt("Frank", "grandfather", profile)

	assert.Contains(t, prompt, "You are Frank, the user's grandfather")
	assert.Contains(t, prompt, "blunt but generous")
	assert.Contains(t, prompt, "no nonsense now")
	assert.Contains(t, prompt, "teaching you to drive stick")
}

func TestBuildSystemPrompt_NoRelationship(t *testing.T) {
	prompt := training.BuildSystemPrompt("Frank", "", &models.PersonaProfile{Personality: "quiet"})

	assert.Contains(t, prompt, "You are Frank.")
	assert.NotContains(t, prompt, "the user's")
}
