package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for user management
type Handler struct {
	service Service
}

// NewHandler creates a new users handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/users
func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, list)
}

// Get handles GET /api/users/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	u, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		slog.Error("Failed to get user", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, u)
}

// Me handles GET /api/users/me and returns the caller's own record.
func (h *Handler) Me(c *gin.Context) {
	id, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	u, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Token subject no longer exists, e.g. account deleted.
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		slog.Error("Failed to load caller record", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, u)
}

// Create handles POST /api/users
func (h *Handler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	u, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Role must be regular, expert or admin"})
		case errors.Is(err, ErrEmailExists):
			c.JSON(http.StatusConflict, gin.H{"message": "This email is already registered"})
		default:
			slog.Error("Failed to create user", "email", req.Email, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		}
		return
	}

	c.JSON(http.StatusCreated, u)
}

// Update handles PUT /api/users/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	u, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Role must be regular, expert or admin"})
		case errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, ErrEmailExists):
			c.JSON(http.StatusConflict, gin.H{"message": "This email is already registered"})
		default:
			slog.Error("Failed to update user", "user_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		}
		return
	}

	c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /api/users/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		slog.Error("Failed to delete user", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// currentUserID reads the authenticated user id injected by the auth
// middleware.
func currentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
