package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/philm28/always/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

// --- personas ---

func (d *DatabaseClient) CreatePersona(ctx context.Context, userID uuid.UUID, name, relationship string, metadata map[string]interface{}) (*models.Persona, error) {
	metadataJSON, _ := json.Marshal(metadata)
	if metadata == nil {
		metadataJSON = []byte("{}")
	}

	var p models.Persona
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO personas (id, user_id, name, relationship, status, metadata)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING id, user_id, name, relationship, status, training_progress,
		          personality_profile, system_prompt, voice_characteristics,
		          metadata, error_message, created_at, updated_at
	`, uuid.New(), userID, name, relationship, models.PersonaStatusCreated, metadataJSON).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Relationship, &p.Status, &p.TrainingProgress,
		&p.PersonalityProfile, &p.SystemPrompt, &p.VoiceCharacteristics,
		&p.Metadata, &p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, TranslateError(err)
	}

	return &p, nil
}

func (d *DatabaseClient) GetPersona(ctx context.Context, personaID, userID uuid.UUID) (*models.Persona, error) {
	var p models.Persona
	err := d.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, relationship, status, training_progress,
		       personality_profile, system_prompt, voice_characteristics,
		       metadata, error_message, created_at, updated_at
		FROM personas
		WHERE id = $1 AND user_id = $2
	`, personaID, userID).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Relationship, &p.Status, &p.TrainingProgress,
		&p.PersonalityProfile, &p.SystemPrompt, &p.VoiceCharacteristics,
		&p.Metadata, &p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, TranslateError(err)
	}

	return &p, nil
}

func (d *DatabaseClient) ListPersonas(ctx context.Context, userID uuid.UUID) ([]models.Persona, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, name, relationship, status, training_progress,
		       personality_profile, system_prompt, voice_characteristics,
		       metadata, error_message, created_at, updated_at
		FROM personas
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, TranslateError(err)
	}
	defer rows.Close()

	var personas []models.Persona
	for rows.Next() {
		var p models.Persona
		err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Relationship, &p.Status, &p.TrainingProgress,
			&p.PersonalityProfile, &p.SystemPrompt, &p.VoiceCharacteristics,
			&p.Metadata, &p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan persona: %w", err)
		}
		personas = append(personas, p)
	}

	return personas, rows.Err()
}

func (d *DatabaseClient) DeletePersona(ctx context.Context, personaID, userID uuid.UUID) error {
	res, err := d.db.ExecContext(ctx, `
		DELETE FROM personas
		WHERE id = $1 AND user_id = $2
	`, personaID, userID)
	if err != nil {
		return TranslateError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return TranslateError(sql.ErrNoRows)
	}
	return nil
}

func (d *DatabaseClient) UpdatePersonaTraining(ctx context.Context, personaID uuid.UUID, status string, progress int) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE personas
		SET status = $1, training_progress = $2, error_message = NULL, updated_at = NOW()
		WHERE id = $3
	`, status, progress, personaID)
	if err != nil {
		return TranslateError(err)
	}
	return nil
}

func (d *DatabaseClient) UpdatePersonaError(ctx context.Context, personaID uuid.UUID, errorMsg string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE personas
		SET error_message = $1, updated_at = NOW()
		WHERE id = $2
	`, errorMsg, personaID)
	if err != nil {
		return TranslateError(err)
	}
	return nil
}

// SavePersonaProfile persists the synthesized profile. Lifecycle status is
// the orchestrator's to change; flipping active here would let a status
// poller see the persona regress to training while the prompt derivation
// stage is still reporting progress.
func (d *DatabaseClient) SavePersonaProfile(ctx context.Context, personaID uuid.UUID, profile *models.PersonaProfile) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		UPDATE personas
		SET personality_profile = $1, error_message = NULL, updated_at = NOW()
		WHERE id = $2
	`, profileJSON, personaID)
	if err != nil {
		return TranslateError(err)
	}
	return nil
}

// SavePersonaPrompt persists the derived system prompt and voice
// characteristics for later conversational use.
func (d *DatabaseClient) SavePersonaPrompt(ctx context.Context, personaID uuid.UUID, systemPrompt string, voice *models.VoiceCharacteristics) error {
	var voiceJSON []byte
	if voice != nil {
		var err error
		voiceJSON, err = json.Marshal(voice)
		if err != nil {
			return fmt.Errorf("failed to marshal voice characteristics: %w", err)
		}
	}

	_, err := d.db.ExecContext(ctx, `
		UPDATE personas
		SET system_prompt = $1, voice_characteristics = COALESCE($2, voice_characteristics),
		    updated_at = NOW()
		WHERE id = $3
	`, systemPrompt, voiceJSON, personaID)
	if err != nil {
		return TranslateError(err)
	}
	return nil
}

// --- persona content ---

func (d *DatabaseClient) CreateContentRecord(ctx context.Context, rec *models.ContentRecord) error {
	metadata := rec.Metadata
	if metadata == nil {
		metadata = json.RawMessage("{}")
	}

	err := d.db.QueryRowContext(ctx, `
		INSERT INTO persona_content (id, persona_id, user_id, content_type, file_url,
		                             storage_path, file_name, file_size, metadata, processing_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, rec.ID, rec.PersonaID, rec.UserID, rec.ContentType, rec.FileURL,
		rec.StoragePath, rec.FileName, rec.FileSize, metadata, rec.ProcessingStatus,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return TranslateError(err)
	}
	return nil
}

func (d *DatabaseClient) UpdateContentStatus(ctx context.Context, contentID uuid.UUID, status string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE persona_content
		SET processing_status = $1
		WHERE id = $2
	`, status, contentID)
	if err != nil {
		return TranslateError(err)
	}
	return nil
}

func (d *DatabaseClient) ListContent(ctx context.Context, personaID, userID uuid.UUID) ([]models.ContentRecord, error) {
	return d.queryContent(ctx, `
		SELECT id, persona_id, user_id, content_type, file_url, storage_path,
		       file_name, file_size, metadata, processing_status, created_at
		FROM persona_content
		WHERE persona_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`, personaID, userID)
}

// ListCompletedContent returns the records visible to training: only rows
// whose processing status has reached completed.
func (d *DatabaseClient) ListCompletedContent(ctx context.Context, personaID uuid.UUID) ([]models.ContentRecord, error) {
	return d.queryContent(ctx, `
		SELECT id, persona_id, user_id, content_type, file_url, storage_path,
		       file_name, file_size, metadata, processing_status, created_at
		FROM persona_content
		WHERE persona_id = $1 AND processing_status = $2
		ORDER BY created_at ASC
	`, personaID, models.ContentStatusCompleted)
}

func (d *DatabaseClient) queryContent(ctx context.Context, query string, args ...interface{}) ([]models.ContentRecord, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, TranslateError(err)
	}
	defer rows.Close()

	var records []models.ContentRecord
	for rows.Next() {
		var rec models.ContentRecord
		err := rows.Scan(
			&rec.ID, &rec.PersonaID, &rec.UserID, &rec.ContentType, &rec.FileURL,
			&rec.StoragePath, &rec.FileName, &rec.FileSize, &rec.Metadata,
			&rec.ProcessingStatus, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// --- conversation sessions ---

func (d *DatabaseClient) CreateSession(ctx context.Context, personaID, userID uuid.UUID, sessionType string) (*models.ConversationSession, error) {
	var s models.ConversationSession
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO conversation_sessions (id, persona_id, user_id, session_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, persona_id, user_id, session_type, started_at, ended_at, duration_seconds
	`, uuid.New(), personaID, userID, sessionType).Scan(
		&s.ID, &s.PersonaID, &s.UserID, &s.SessionType,
		&s.StartedAt, &s.EndedAt, &s.DurationSeconds,
	)
	if err != nil {
		return nil, TranslateError(err)
	}

	return &s, nil
}

func (d *DatabaseClient) GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.ConversationSession, error) {
	var s models.ConversationSession
	err := d.db.QueryRowContext(ctx, `
		SELECT id, persona_id, user_id, session_type, started_at, ended_at, duration_seconds
		FROM conversation_sessions
		WHERE id = $1 AND user_id = $2
	`, sessionID, userID).Scan(
		&s.ID, &s.PersonaID, &s.UserID, &s.SessionType,
		&s.StartedAt, &s.EndedAt, &s.DurationSeconds,
	)
	if err != nil {
		return nil, TranslateError(err)
	}

	return &s, nil
}

func (d *DatabaseClient) EndSession(ctx context.Context, sessionID uuid.UUID, endedAt time.Time, durationSeconds int64) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE conversation_sessions
		SET ended_at = $1, duration_seconds = $2
		WHERE id = $3
	`, endedAt, durationSeconds, sessionID)
	if err != nil {
		return TranslateError(err)
	}
	return nil
}

// --- messages ---

func (d *DatabaseClient) CreateMessage(ctx context.Context, msg *models.Message) error {
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO messages (id, session_id, user_id, sender_type, content, message_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, msg.ID, msg.SessionID, msg.UserID, msg.SenderType, msg.Content, msg.MessageType,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return TranslateError(err)
	}
	return nil
}

func (d *DatabaseClient) ListMessages(ctx context.Context, sessionID, userID uuid.UUID) ([]models.Message, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, sender_type, content, message_type, created_at
		FROM messages
		WHERE session_id = $1 AND user_id = $2
		ORDER BY created_at ASC
	`, sessionID, userID)
	if err != nil {
		return nil, TranslateError(err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.SenderType, &m.Content, &m.MessageType, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// FirstMessageTime returns the timestamp of the session's earliest message.
// Session duration is measured from here, not from session start.
func (d *DatabaseClient) FirstMessageTime(ctx context.Context, sessionID uuid.UUID) (time.Time, error) {
	var t time.Time
	err := d.db.QueryRowContext(ctx, `
		SELECT created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, sessionID).Scan(&t)
	if err != nil {
		return time.Time{}, TranslateError(err)
	}
	return t, nil
}
