package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/philm28/always/internal/models"
	"github.com/philm28/always/internal/supabase"
)

type StorageHandler struct {
	storageClient *supabase.StorageClient
}

func NewStorageHandler(storageClient *supabase.StorageClient) *StorageHandler {
	return &StorageHandler{storageClient: storageClient}
}

// Probe godoc
// @Summary     Check whether the storage destination is writable
// @Description Performs (or reuses) the write-then-delete storage probe.
// @Description Pass retry=true to discard the cached verdict and probe
// @Description again, e.g. after fixing bucket policies.
// @Tags        storage
// @Produce     json
// @Security    Bearer
// @Param       retry query bool false "Force a fresh probe"
// @Success     200 {object} models.StorageProbeResponse
// @Router      /storage/probe [get]
func (h *StorageHandler) Probe(c *gin.Context) {
	if h.storageClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "storage not available"})
		return
	}

	force := c.Query("retry") == "true"
	cached := !force && h.storageClient.ProbeCached()
	result := h.storageClient.Probe(force)

	c.JSON(http.StatusOK, models.StorageProbeResponse{
		Writable: result.Writable,
		Cause:    string(result.Cause),
		Hint:     result.Hint,
		Cached:   cached,
	})
}
