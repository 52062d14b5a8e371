package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/supabase"
)

type PersonasHandler struct {
	dbClient      *supabase.DatabaseClient
	storageClient *supabase.StorageClient
}

func NewPersonasHandler(dbClient *supabase.DatabaseClient, storageClient *supabase.StorageClient) *PersonasHandler {
	return &PersonasHandler{
		dbClient:      dbClient,
		storageClient: storageClient,
	}
}

func (h *PersonasHandler) CreatePersona(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userID, ok := requestUser(c)
	if !ok {
		return
	}

	var req models.CreatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	persona, err := h.dbClient.CreatePersona(c.Request.Context(), userID, req.Name, req.Relationship, req.Metadata)
	if err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "failed to create persona",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, personaResponse(persona))
}

func (h *PersonasHandler) ListPersonas(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userID, ok := requestUser(c)
	if !ok {
		return
	}

	personas, err := h.dbClient.ListPersonas(c.Request.Context(), userID)
	if err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "failed to list personas",
			Message: err.Error(),
		})
		return
	}

	resp := models.PersonaListResponse{Personas: make([]models.PersonaResponse, len(personas))}
	for i := range personas {
		resp.Personas[i] = personaResponse(&personas[i])
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PersonasHandler) GetPersona(c *gin.Context) {
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

	c.JSON(http.StatusOK, personaResponse(persona))
}

// DeletePersona removes the persona row and then sweeps its stored objects.
// Content rows go with the persona via the cascade; a storage sweep failure
// is reported but does not resurrect the record.
func (h *PersonasHandler) DeletePersona(c *gin.Context) {
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

	if err := h.dbClient.DeletePersona(c.Request.Context(), personaID, userID); err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "failed to delete persona",
			Message: err.Error(),
		})
		return
	}

	if h.storageClient != nil {
		if err := h.storageClient.DeletePersonaFiles(personaID); err != nil {
			c.JSON(http.StatusOK, gin.H{
				"deleted": true,
				"warning": "persona deleted but some stored files were not removed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
