package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type PersonaResponse struct {
	ID               string                 `json:"persona_id"`
	Name             string                 `json:"name"`
	Relationship     string                 `json:"relationship,omitempty"`
	Status           string                 `json:"status"`
	TrainingProgress int                    `json:"training_progress"`
	Profile          map[string]interface{} `json:"personality_profile,omitempty"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type PersonaListResponse struct {
	Personas []PersonaResponse `json:"personas"`
}

// UploadFileResult is the per-file outcome of one batch upload. A batch
// response always carries one entry per accepted file, settled or failed.
type UploadFileResult struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Status   string `json:"status"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
	Stage    string `json:"stage,omitempty"`
}

type UploadResponse struct {
	PersonaID string             `json:"persona_id"`
	Files     []UploadFileResult `json:"files"`
	Uploaded  int                `json:"uploaded"`
	Failed    int                `json:"failed"`
}

type ContentResponse struct {
	ID               string    `json:"id"`
	ContentType      string    `json:"content_type"`
	FileURL          string    `json:"file_url"`
	FileName         string    `json:"file_name"`
	FileSize         int64     `json:"file_size"`
	ProcessingStatus string    `json:"processing_status"`
	CreatedAt        time.Time `json:"created_at"`
}

type ContentListResponse struct {
	Content []ContentResponse `json:"content"`
}

type StorageProbeResponse struct {
	Writable bool   `json:"writable"`
	Cause    string `json:"cause,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Cached   bool   `json:"cached"`
}

type TrainingStepResponse struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

type TrainingStatusResponse struct {
	PersonaID     string                 `json:"persona_id"`
	PersonaStatus string                 `json:"persona_status"`
	Overall       int                    `json:"overall_progress"`
	Steps         []TrainingStepResponse `json:"steps"`
	Error         string                 `json:"error,omitempty"`
}

type SessionResponse struct {
	ID              string    `json:"session_id"`
	PersonaID       string    `json:"persona_id"`
	SessionType     string    `json:"session_type"`
	EngineReady     bool      `json:"engine_ready"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at,omitempty"`
	DurationSeconds int64     `json:"duration_seconds,omitempty"`
}

type MessageResponse struct {
	ID          string    `json:"id"`
	SenderType  string    `json:"sender_type"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type SendMessageResponse struct {
	UserMessage MessageResponse `json:"user_message"`
	Reply       MessageResponse `json:"reply"`
}

type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}
