package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Go client has no direct Realtime publish; persona/content row
	// updates trigger Realtime change feeds on their own. Kept as the single
	// seam for explicit event publishing via the Realtime REST API.
	return nil
}

func (r *RealtimeClient) PublishPersonaEvent(personaID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("persona:%s", personaID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads

func UploadStartedPayload(personaID uuid.UUID, fileCount int) map[string]interface{} {
	return map[string]interface{}{
		"persona_id": personaID.String(),
		"status":     "uploading",
		"file_count": fileCount,
	}
}

func UploadCompletedPayload(personaID uuid.UUID, uploaded, failed int) map[string]interface{} {
	return map[string]interface{}{
		"persona_id": personaID.String(),
		"status":     "uploaded",
		"uploaded":   uploaded,
		"failed":     failed,
	}
}

func TrainingStartedPayload(personaID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"persona_id": personaID.String(),
		"status":     "training",
		"progress":   0,
	}
}

func TrainingProgressPayload(personaID uuid.UUID, step string, progress int) map[string]interface{} {
	return map[string]interface{}{
		"persona_id": personaID.String(),
		"status":     "training",
		"step":       step,
		"progress":   progress,
	}
}

func TrainingCompletedPayload(personaID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"persona_id": personaID.String(),
		"status":     "active",
		"progress":   100,
	}
}

func TrainingFailedPayload(personaID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"persona_id": personaID.String(),
		"status":     "training",
		"error":      errorMsg,
	}
}
