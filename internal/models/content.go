package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Content categories derived from the declared media type.
const (
	ContentTypeVideo = "video"
	ContentTypeAudio = "audio"
	ContentTypeImage = "image"
	ContentTypeText  = "text"
)

// Content processing statuses.
const (
	ContentStatusProcessing = "processing"
	ContentStatusCompleted  = "completed"
	ContentStatusError      = "error"
)

// ContentRecord is the durable record of one uploaded asset. Rows are
// written once by the upload coordinator and read by the training pipeline;
// only processing_status changes after creation.
type ContentRecord struct {
	ID               uuid.UUID
	PersonaID        uuid.UUID
	UserID           uuid.UUID
	ContentType      string
	FileURL          string
	StoragePath      string
	FileName         string
	FileSize         sql.NullInt64
	Metadata         json.RawMessage
	ProcessingStatus string
	CreatedAt        time.Time
}
