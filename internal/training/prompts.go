package training

import (
	"fmt"
	"strings"

	"github.com/philm28/always/internal/models"
)

// Fixed prompt templates for the training stages. The extraction prompts ask
// for strict JSON; ParsePartialAnalysis tolerates models that fail to comply.

const personalityExtractionSystem = `You analyze personal writing to build a conversational persona. ` +
	`Reply with a single JSON object and nothing else, using exactly these keys: ` +
	`"personality" (string), "common_phrases" (array of strings), ` +
	`"emotional_tone" (string), "memories" (array of strings).`

func personalityExtractionPrompt(text string) string {
	return fmt.Sprintf("Analyze the following writing by one person and describe their personality, "+
		"recurring phrases, emotional tone, and the concrete memories it contains.\n\n%s", text)
}

const speechPatternSystem = `You analyze speech transcripts to model how a person talks. ` +
	`Reply with a single JSON object and nothing else, using exactly these keys: ` +
	`"speech_patterns" (array of strings), "common_phrases" (array of strings), ` +
	`"voice_characteristics" (object with "pitch", "speed", "tone" strings).`

func speechPatternPrompt(transcript string) string {
	return fmt.Sprintf("These are transcripts of one person speaking. Describe their speech patterns, "+
		"filler words, pacing, and recurring phrases.\n\n%s", transcript)
}

const imageDescriptionPrompt = "Describe this photo of a person: their facial expression, " +
	"the setting, and what they appear to be doing. Two sentences at most."

const profileSynthesisSystem = `You combine partial analyses of one person into a unified persona profile. ` +
	`Reply with a single JSON object and nothing else, using exactly these keys: ` +
	`"personality" (string), "speech_patterns" (array of strings), ` +
	`"common_phrases" (array of strings), "emotional_tone" (string), ` +
	`"memories" (array of strings), "voice_characteristics" (object with "pitch", "speed", "tone" strings).`

func profileSynthesisPrompt(textAnalysis, audioAnalysis string, imageDescriptions []string) string {
	var b strings.Builder
	b.WriteString("Combine the following analyses of one person into a single unified profile.\n")

	b.WriteString("\nText analysis:\n")
	if textAnalysis != "" {
		b.WriteString(textAnalysis)
	} else {
		b.WriteString("(none)")
	}

	b.WriteString("\n\nSpeech analysis:\n")
	if audioAnalysis != "" {
		b.WriteString(audioAnalysis)
	} else {
		b.WriteString("(none)")
	}

	b.WriteString("\n\nPhoto observations:\n")
	if len(imageDescriptions) > 0 {
		for _, d := range imageDescriptions {
			b.WriteString("- ")
			b.WriteString(d)
			b.WriteString("\n")
		}
	} else {
		b.WriteString("(none)\n")
	}

	return b.String()
}

// BuildSystemPrompt derives the reusable conversational prompt from a
// synthesized profile, embedding its fields verbatim.
func BuildSystemPrompt(name, relationship string, profile *models.PersonaProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s", name)
	if relationship != "" {
		fmt.Fprintf(&b, ", the user's %s", relationship)
	}
	b.WriteString(". Stay in character at all times and speak in the first person.\n\n")

	if profile.Personality != "" {
		fmt.Fprintf(&b, "Personality: %s\n", profile.Personality)
	}
	if len(profile.SpeechPatterns) > 0 {
		fmt.Fprintf(&b, "Speech patterns: %s\n", strings.Join(profile.SpeechPatterns, "; "))
	}
	if len(profile.CommonPhrases) > 0 {
		fmt.Fprintf(&b, "Phrases you often use: %s\n", strings.Join(profile.CommonPhrases, "; "))
	}
	if profile.EmotionalTone != "" {
		fmt.Fprintf(&b, "Emotional tone: %s\n", profile.EmotionalTone)
	}
	if len(profile.Memories) > 0 {
		b.WriteString("Memories you share with the user:\n")
		for _, m := range profile.Memories {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}

	b.WriteString("\nKeep replies warm, personal, and consistent with the memories above. " +
		"Never mention being an AI or a model.")

	return b.String()
}
