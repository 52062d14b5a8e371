package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/philm28/always/internal/handlers"
)

// Handlers must refuse work when no database client was wired, instead of
// panicking on a nil pointer.
func TestPersonasHandler_NoDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := handlers.NewPersonasHandler(nil, nil)
	router := gin.New()
	router.GET("/personas", h.ListPersonas)

	req, _ := http.NewRequest("GET", "/personas", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "database not available")
}

func TestUploadHandler_NoDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := handlers.NewUploadHandler(nil, nil)
	router := gin.New()
	router.POST("/personas/:persona_id/upload", h.Upload)

	req, _ := http.NewRequest("POST", "/personas/not-a-uuid/upload", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStorageHandler_NoStorage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := handlers.NewStorageHandler(nil)
	router := gin.New()
	router.GET("/storage/probe", h.Probe)

	req, _ := http.NewRequest("GET", "/storage/probe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "storage not available")
}
