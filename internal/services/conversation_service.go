package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/philm28/always/internal/engine"
	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/supabase"
)

// replyTimeout bounds how long a message waits for the persona's reply. A
// stalled completion surfaces as an error instead of hanging the session.
const replyTimeout = 60 * time.Second

// ErrInvalidSessionType rejects session types outside chat, video_call,
// and voice_call.
var ErrInvalidSessionType = errors.New("invalid session type")

// TranscriptStore persists sessions and their ordered messages.
type TranscriptStore interface {
	CreateSession(ctx context.Context, personaID, userID uuid.UUID, sessionType string) (*models.ConversationSession, error)
	EndSession(ctx context.Context, sessionID uuid.UUID, endedAt time.Time, durationSeconds int64) error
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, sessionID, userID uuid.UUID) ([]models.Message, error)
	FirstMessageTime(ctx context.Context, sessionID uuid.UUID) (time.Time, error)
}

// ConversationService owns session lifecycle and message exchange with a
// loaded persona engine.
type ConversationService struct {
	db     TranscriptStore
	ai     engine.Completer
	logger *zap.SugaredLogger
}

func NewConversationService(db TranscriptStore, completer engine.Completer, logger *zap.SugaredLogger) *ConversationService {
	return &ConversationService{
		db:     db,
		ai:     completer,
		logger: logger,
	}
}

// OpenSession creates the session record and reports whether a trained
// engine backs the persona.
func (s *ConversationService) OpenSession(ctx context.Context, persona *models.Persona, userID uuid.UUID, sessionType string) (*models.ConversationSession, bool, error) {
	switch sessionType {
	case "":
		sessionType = models.SessionTypeChat
	case models.SessionTypeChat, models.SessionTypeVideoCall, models.SessionTypeVoiceCall:
	default:
		return nil, false, fmt.Errorf("%w %q", ErrInvalidSessionType, sessionType)
	}

	session, err := s.db.CreateSession(ctx, persona.ID, userID, sessionType)
	if err != nil {
		return nil, false, err
	}

	ready := engine.Load(persona, s.ai).Ready()
	return session, ready, nil
}

// SendMessage persists the user's message, requests a reply from the
// persona's engine under a bounded wait, and persists the reply. A reply
// persistence failure is logged without rolling back the transcript.
func (s *ConversationService) SendMessage(ctx context.Context, session *models.ConversationSession, persona *models.Persona, content string) (*models.Message, *models.Message, error) {
	history, err := s.db.ListMessages(ctx, session.ID, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	userMsg := &models.Message{
		ID:          uuid.New(),
		SessionID:   session.ID,
		UserID:      session.UserID,
		SenderType:  models.SenderUser,
		Content:     content,
		MessageType: "text",
	}
	if err := s.db.CreateMessage(ctx, userMsg); err != nil {
		return nil, nil, fmt.Errorf("failed to persist message: %w", err)
	}

	eng := engine.Load(persona, s.ai)

	replyCtx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	replyText, err := eng.Reply(replyCtx, history, content)
	if err != nil {
		// The user's message stays in the transcript.
		return userMsg, nil, fmt.Errorf("failed to get reply: %w", err)
	}

	replyMsg := &models.Message{
		ID:          uuid.New(),
		SessionID:   session.ID,
		UserID:      session.UserID,
		SenderType:  models.SenderPersona,
		Content:     replyText,
		MessageType: "text",
	}
	if err := s.db.CreateMessage(ctx, replyMsg); err != nil {
		s.logger.Errorw("failed to persist reply",
			"session_id", session.ID.String(), "error", err)
	}

	return userMsg, replyMsg, nil
}

// EndSession closes the session. Duration is measured from the first
// message's timestamp; an empty transcript falls back to session start.
func (s *ConversationService) EndSession(ctx context.Context, session *models.ConversationSession) (time.Time, int64, error) {
	start := session.StartedAt

	first, err := s.db.FirstMessageTime(ctx, session.ID)
	if err == nil {
		start = first
	} else if supabase.ErrorKind(err) != supabase.ErrKindNotFound {
		// An empty transcript keeps session start; anything else is real.
		return time.Time{}, 0, fmt.Errorf("failed to read transcript: %w", err)
	}

	endedAt := time.Now().UTC()
	duration := SessionDuration(start, endedAt)

	if err := s.db.EndSession(ctx, session.ID, endedAt, duration); err != nil {
		return time.Time{}, 0, fmt.Errorf("failed to close session: %w", err)
	}

	return endedAt, duration, nil
}

// SessionDuration returns whole seconds between two instants, never
// negative.
func SessionDuration(start, end time.Time) int64 {
	if end.Before(start) {
		return 0
	}
	return int64(end.Sub(start) / time.Second)
}
