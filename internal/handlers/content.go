package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/supabase"
)

type ContentHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewContentHandler(dbClient *supabase.DatabaseClient) *ContentHandler {
	return &ContentHandler{dbClient: dbClient}
}

// ListContent godoc
// @Summary     List uploaded content for a persona
// @Tags        content
// @Produce     json
// @Security    Bearer
// @Param       persona_id path string true "Persona ID (UUID)"
// @Success     200 {object} models.ContentListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /personas/{persona_id}/content [get]
func (h *ContentHandler) ListContent(c *gin.Context) {
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

	if _, err := h.dbClient.GetPersona(c.Request.Context(), personaID, userID); err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "persona not found",
			Message: err.Error(),
		})
		return
	}

	records, err := h.dbClient.ListContent(c.Request.Context(), personaID, userID)
	if err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "failed to list content",
			Message: err.Error(),
		})
		return
	}

	resp := models.ContentListResponse{Content: make([]models.ContentResponse, len(records))}
	for i, rec := range records {
		resp.Content[i] = models.ContentResponse{
			ID:               rec.ID.String(),
			ContentType:      rec.ContentType,
			FileURL:          rec.FileURL,
			FileName:         rec.FileName,
			FileSize:         rec.FileSize.Int64,
			ProcessingStatus: rec.ProcessingStatus,
			CreatedAt:        rec.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, resp)
}
