package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/philm28/always/internal/middleware"
	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/supabase"
)

// requestUser extracts the authenticated user id set by the auth
// middleware. It writes the error response itself; callers just return.
func requestUser(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}

	return userID, true
}

// pathUUID parses a path parameter as a canonical UUID. Malformed
// identifiers are refused here, before any storage or database call.
func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

// storeStatus maps a typed store error to the HTTP status it deserves.
func storeStatus(err error) int {
	switch supabase.ErrorKind(err) {
	case supabase.ErrKindNotFound, supabase.ErrKindForeignKey:
		return http.StatusNotFound
	case supabase.ErrKindPermission:
		return http.StatusForbidden
	case supabase.ErrKindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func personaResponse(p *models.Persona) models.PersonaResponse {
	resp := models.PersonaResponse{
		ID:               p.ID.String(),
		Name:             p.Name,
		Status:           p.Status,
		TrainingProgress: p.TrainingProgress,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.Relationship.Valid {
		resp.Relationship = p.Relationship.String
	}
	if p.ErrorMessage.Valid {
		resp.ErrorMessage = p.ErrorMessage.String
	}
	if len(p.PersonalityProfile) > 0 {
		var profile map[string]interface{}
		if err := json.Unmarshal(p.PersonalityProfile, &profile); err == nil {
			resp.Profile = profile
		}
	}
	return resp
}

func messageResponse(m *models.Message) models.MessageResponse {
	return models.MessageResponse{
		ID:          m.ID.String(),
		SenderType:  m.SenderType,
		Content:     m.Content,
		MessageType: m.MessageType,
		CreatedAt:   m.CreatedAt,
	}
}
