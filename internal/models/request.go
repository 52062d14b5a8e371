package models

type CreatePersonaRequest struct {
	Name         string                 `json:"name" binding:"required"`
	Relationship string                 `json:"relationship,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

type CreateSessionRequest struct {
	// SessionType is one of "chat", "video_call", "voice_call".
	SessionType string `json:"session_type" example:"chat"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}
