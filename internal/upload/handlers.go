package upload

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes the upload pipeline over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates an upload handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Upload handles POST /api/upload: one multipart file field, classified and
// size-checked before a single storage write.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrNoFile.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open multipart file",
			"request_id", c.GetString("request_id"),
			"error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Upload failed"})
		return
	}
	defer file.Close()

	stored, err := h.service.Store(c.Request.Context(), Input{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Success:   true,
		PublicURL: stored.PublicURL,
		Type:      string(stored.Category),
	})
}

// respondStoreError maps validation errors to 400s and everything else to an
// opaque 500, with the detail kept in the server log.
func (h *Handler) respondStoreError(c *gin.Context, err error) {
	var unsupported *UnsupportedTypeError
	var tooLarge *TooLargeError

	switch {
	case errors.As(err, &unsupported):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: unsupported.Error()})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: tooLarge.Error()})
	default:
		h.logger.Error("Upload failed",
			"request_id", c.GetString("request_id"),
			"error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Upload failed"})
	}
}

// Delete handles DELETE /api/upload/:folder/:name.
func (h *Handler) Delete(c *gin.Context) {
	folder := c.Param("folder")
	name := c.Param("name")

	if _, ok := ParseFolder(folder); !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown storage folder: " + folder})
		return
	}
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "object name is required"})
		return
	}

	key := folder + "/" + name
	if err := h.service.Remove(c.Request.Context(), key); err != nil {
		h.logger.Error("Delete failed",
			"request_id", c.GetString("request_id"),
			"key", key,
			"error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Delete failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "key": key})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	if err := h.service.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
