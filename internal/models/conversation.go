package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Session kinds.
const (
	SessionTypeChat      = "chat"
	SessionTypeVideoCall = "video_call"
	SessionTypeVoiceCall = "voice_call"
)

// Message sender roles.
const (
	SenderUser    = "user"
	SenderPersona = "persona"
)

type ConversationSession struct {
	ID              uuid.UUID
	PersonaID       uuid.UUID
	UserID          uuid.UUID
	SessionType     string
	StartedAt       time.Time
	EndedAt         sql.NullTime
	DurationSeconds sql.NullInt64
}

type Message struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	UserID      uuid.UUID
	SenderType  string
	Content     string
	MessageType string
	CreatedAt   time.Time
}
