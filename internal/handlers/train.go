package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/supabase"
	"github.com/philm28/always/internal/training"
)

type TrainHandler struct {
	dbClient     *supabase.DatabaseClient
	orchestrator *training.Orchestrator
}

func NewTrainHandler(dbClient *supabase.DatabaseClient, orchestrator *training.Orchestrator) *TrainHandler {
	return &TrainHandler{
		dbClient:     dbClient,
		orchestrator: orchestrator,
	}
}

// Train godoc
// @Summary     Start (or restart) persona training
// @Description Launches the training pipeline for the persona. A retry on a
// @Description failed or interrupted persona resets every step to pending
// @Description and cancels any run still in flight.
// @Tags        training
// @Produce     json
// @Security    Bearer
// @Param       persona_id path string true "Persona ID (UUID)"
// @Success     202 {object} models.TrainingStatusResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /personas/{persona_id}/train [post]
func (h *TrainHandler) Train(c *gin.Context) {
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

	if err := h.orchestrator.Start(persona); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to start training",
			Message: err.Error(),
		})
		return
	}

	status, _ := h.orchestrator.Status(personaID)
	c.JSON(http.StatusAccepted, trainingStatusResponse(personaID.String(), models.PersonaStatusTraining, status))
}

// TrainingStatus godoc
// @Summary     Get training progress for a persona
// @Description Reports the five step states and the overall percentage,
// @Description which is always the arithmetic mean of the step percentages.
// @Tags        training
// @Produce     json
// @Security    Bearer
// @Param       persona_id path string true "Persona ID (UUID)"
// @Success     200 {object} models.TrainingStatusResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /personas/{persona_id}/train/status [get]
func (h *TrainHandler) TrainingStatus(c *gin.Context) {
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

	status, ok := h.orchestrator.Status(personaID)
	if !ok {
		// No run this process lifetime; report from the persisted row.
		c.JSON(http.StatusOK, models.TrainingStatusResponse{
			PersonaID:     personaID.String(),
			PersonaStatus: persona.Status,
			Overall:       persona.TrainingProgress,
			Error:         persona.ErrorMessage.String,
		})
		return
	}

	c.JSON(http.StatusOK, trainingStatusResponse(personaID.String(), persona.Status, status))
}

func trainingStatusResponse(personaID, personaStatus string, status training.RunStatus) models.TrainingStatusResponse {
	resp := models.TrainingStatusResponse{
		PersonaID:     personaID,
		PersonaStatus: personaStatus,
		Overall:       status.Overall,
		Error:         status.Err,
	}
	for _, step := range status.Steps {
		resp.Steps = append(resp.Steps, models.TrainingStepResponse{
			ID:       step.ID,
			Label:    step.Label,
			Status:   step.Status,
			Progress: step.Progress,
		})
	}
	return resp
}
