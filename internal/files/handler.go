package files

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for course materials. A nil service
// means storage was not configured; every route then answers 503.
type Handler struct {
	service Service
}

// NewHandler creates a new files handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) available(c *gin.Context) bool {
	if h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "File storage is not configured"})
		return false
	}
	return true
}

// UploadURL handles POST /api/files/upload-url
func (h *Handler) UploadURL(c *gin.Context) {
	if !h.available(c) {
		return
	}

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Filename and content type are required"})
		return
	}

	resp, err := h.service.UploadURL(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidFile) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		slog.Error("Failed to generate upload URL", "filename", req.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate upload URL"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadURL handles GET /api/files/:key/download-url
func (h *Handler) DownloadURL(c *gin.Context) {
	if !h.available(c) {
		return
	}

	resp, err := h.service.DownloadURL(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, ErrInvalidFile) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		slog.Error("Failed to generate download URL", "key", c.Param("key"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate download URL"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /api/files/:key
func (h *Handler) Delete(c *gin.Context) {
	if !h.available(c) {
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("key")); err != nil {
		if errors.Is(err, ErrInvalidFile) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		slog.Error("Failed to delete file", "key", c.Param("key"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted"})
}
