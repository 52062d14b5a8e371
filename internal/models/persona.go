package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Persona lifecycle statuses.
const (
	PersonaStatusCreated  = "created"
	PersonaStatusTraining = "training"
	PersonaStatusActive   = "active"
	PersonaStatusFailed   = "failed"
)

type Persona struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Name                 string
	Relationship         sql.NullString
	Status               string
	TrainingProgress     int
	PersonalityProfile   json.RawMessage
	SystemPrompt         sql.NullString
	VoiceCharacteristics json.RawMessage
	Metadata             json.RawMessage
	ErrorMessage         sql.NullString
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PersonaProfile is the unified personality description produced by the
// final synthesis stage of training.
type PersonaProfile struct {
	Personality          string                `json:"personality"`
	SpeechPatterns       []string              `json:"speech_patterns"`
	CommonPhrases        []string              `json:"common_phrases"`
	EmotionalTone        string                `json:"emotional_tone"`
	Memories             []string              `json:"memories"`
	VoiceCharacteristics *VoiceCharacteristics `json:"voice_characteristics,omitempty"`
}

type VoiceCharacteristics struct {
	Pitch string `json:"pitch"`
	Speed string `json:"speed"`
	Tone  string `json:"tone"`
}
