package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/services"
	"github.com/philm28/always/internal/supabase"
)

type UploadHandler struct {
	dbClient *supabase.DatabaseClient
	uploads  *services.UploadService
}

func NewUploadHandler(dbClient *supabase.DatabaseClient, uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{
		dbClient: dbClient,
		uploads:  uploads,
	}
}

// Upload godoc
// @Summary     Upload memory files for a persona
// @Description Uploads a batch of files (video, audio, image, or text) that
// @Description will feed the persona's training. Files in one batch upload
// @Description concurrently; each file settles or fails on its own. If the
// @Description storage destination is not writable the whole batch is
// @Description refused with a typed cause and remediation hint.
// @Tags        upload
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       persona_id path string true "Persona ID (UUID)"
// @Param       files formData file true "Memory files (multiple allowed, max 50 MiB each)"
// @Success     200 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     503 {object} models.StorageProbeResponse
// @Router      /personas/{persona_id}/upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
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

	// Verify persona belongs to user
	if _, err := h.dbClient.GetPersona(c.Request.Context(), personaID, userID); err != nil {
		c.JSON(storeStatus(err), models.ErrorResponse{
			Error:   "persona not found",
			Message: err.Error(),
		})
		return
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}

	form := c.Request.MultipartForm
	if form == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: "multipart form is nil",
		})
		return
	}

	// Try multiple common field names
	var files []*multipart.FileHeader
	fieldNames := []string{"files", "file", "uploads", "upload", "media"}
	for _, fieldName := range fieldNames {
		if f := form.File[fieldName]; len(f) > 0 {
			files = f
			break
		}
	}

	if len(files) == 0 {
		availableFields := make([]string, 0, len(form.File))
		for fieldName := range form.File {
			availableFields = append(availableFields, fieldName)
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no files uploaded",
			Message: fmt.Sprintf("please provide files with one of these field names: %v. Available fields in request: %v", fieldNames, availableFields),
		})
		return
	}

	results, err := h.uploads.UploadBatch(c.Request.Context(), personaID, userID, files)
	if err != nil {
		var notWritable *services.ErrStorageNotWritable
		if errors.As(err, &notWritable) {
			c.JSON(http.StatusServiceUnavailable, models.StorageProbeResponse{
				Writable: false,
				Cause:    string(notWritable.Probe.Cause),
				Hint:     notWritable.Probe.Hint,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "upload failed",
			Message: err.Error(),
		})
		return
	}

	uploaded, failed := 0, 0
	for _, r := range results {
		if r.Status == models.ContentStatusCompleted {
			uploaded++
		} else {
			failed++
		}
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		PersonaID: personaID.String(),
		Files:     results,
		Uploaded:  uploaded,
		Failed:    failed,
	})
}
