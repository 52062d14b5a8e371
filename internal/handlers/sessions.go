package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/services"
	"github.com/philm28/always/internal/supabase"
)

type SessionsHandler struct {
	dbClient      *supabase.DatabaseClient
	conversations *services.ConversationService
}

func NewSessionsHandler(dbClient *supabase.DatabaseClient, conversations *services.ConversationService) *SessionsHandler {
	return &SessionsHandler{
		dbClient:      dbClient,
		conversations: conversations,
	}
}

// CreateSession godoc
// @Summary     Open a conversation session with a persona
// @Description Creates the session record and reports whether a trained
// @Description engine backs the persona. An untrained persona still gets a
// @Description session; it just answers with the fallback reply.
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       persona_id path string true "Persona ID (UUID)"
// @Success     200 {object} models.SessionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /personas/{persona_id}/sessions [post]
func (h *SessionsHandler) CreateSession(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userID, ok := requestUser(c)
	if !ok {
		return
	}

	personaID, ok := pathUUID(c, "persona_id")
	if !ok {
		return
	}

	persona, err := h.dbClient.GetPersona(c.Request.Context(), personaID, userID)
	if err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "persona not found",
			Message: err.Error(),
		})
		return
	}

	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// No body means a plain chat session.
		req.SessionType = ""
	}

	session, ready, err := h.conversations.OpenSession(c.Request.Context(), persona, userID, req.SessionType)
	if err != nil {
		status := storeStatus(err)
		if errors.Is(err, services.ErrInvalidSessionType) {
			status = http.StatusBadRequest
		}
		c.JSON(status, models.ErrorResponse{
			Error:   "failed to open session",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SessionResponse{
		ID:          session.ID.String(),
		PersonaID:   session.PersonaID.String(),
		SessionType: session.SessionType,
		EngineReady: ready,
		StartedAt:   session.StartedAt,
	})
}

// SendMessage godoc
// @Summary     Send a message in a session
// @Description Persists the user's message, asks the persona's engine for a
// @Description reply, and persists the reply. An untrained persona answers
// @Description with a fixed apology without calling the engine.
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       session_id path string true "Session ID (UUID)"
// @Param       message body models.SendMessageRequest true "Message content"
// @Success     200 {object} models.SendMessageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /sessions/{session_id}/messages [post]
func (h *SessionsHandler) SendMessage(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userID, ok := requestUser(c)
	if !ok {
		return
	}

	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	session, err := h.dbClient.GetSession(c.Request.Context(), sessionID, userID)
	if err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "session not found",
			Message: err.Error(),
		})
		return
	}

	persona, err := h.dbClient.GetPersona(c.Request.Context(), session.PersonaID, userID)
	if err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "persona not found",
			Message: err.Error(),
		})
		return
	}

	userMsg, reply, err := h.conversations.SendMessage(c.Request.Context(), session, persona, req.Content)
	if err != nil {
		// The user's message may already be in the transcript.
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "failed to get reply",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SendMessageResponse{
		UserMessage: messageResponse(userMsg),
		Reply:       messageResponse(reply),
	})
}

// ListMessages godoc
// @Summary     List the transcript of a session
// @Tags        sessions
// @Produce     json
// @Security    Bearer
// @Param       session_id path string true "Session ID (UUID)"
// @Success     200 {object} models.MessagesResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /sessions/{session_id}/messages [get]
func (h *SessionsHandler) ListMessages(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userID, ok := requestUser(c)
	if !ok {
		return
	}

	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	if _, err := h.dbClient.GetSession(c.Request.Context(), sessionID, userID); err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "session not found",
			Message: err.Error(),
		})
		return
	}

	messages, err := h.dbClient.ListMessages(c.Request.Context(), sessionID, userID)
	if err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "failed to list messages",
			Message: err.Error(),
		})
		return
	}

	resp := models.MessagesResponse{Messages: make([]models.MessageResponse, len(messages))}
	for i := range messages {
		resp.Messages[i] = messageResponse(&messages[i])
	}

	c.JSON(http.StatusOK, resp)
}

// EndSession godoc
// @Summary     End a conversation session
// @Description Closes the session. Duration counts from the first message's
// @Description timestamp, not from session creation; an empty transcript
// @Description yields a zero-length session.
// @Tags        sessions
// @Produce     json
// @Security    Bearer
// @Param       session_id path string true "Session ID (UUID)"
// @Success     200 {object} models.SessionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /sessions/{session_id}/end [post]
func (h *SessionsHandler) EndSession(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userID, ok := requestUser(c)
	if !ok {
		return
	}

	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	session, err := h.dbClient.GetSession(c.Request.Context(), sessionID, userID)
	if err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "session not found",
			Message: err.Error(),
		})
		return
	}

	endedAt, duration, err := h.conversations.EndSession(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to end session",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SessionResponse{
		ID:              session.ID.String(),
		PersonaID:       session.PersonaID.String(),
		SessionType:     session.SessionType,
		StartedAt:       session.StartedAt,
		EndedAt:         endedAt,
		DurationSeconds: duration,
	})
}
