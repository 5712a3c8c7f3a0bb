package forum

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the forum
type Handler struct {
	service Service
}

// NewHandler creates a new forum handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListPosts handles GET /api/forum/posts
func (h *Handler) ListPosts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	posts, err := h.service.ListPosts(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to list posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load posts"})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// CreatePost handles POST /api/forum/posts
func (h *Handler) CreatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title and content are required"})
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), userID, req)
	if err != nil {
		slog.Error("Failed to create post", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, post)
}

// AddReply handles POST /api/forum/posts/:id/replies
func (h *Handler) AddReply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post ID"})
		return
	}

	var req CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Content is required"})
		return
	}

	reply, err := h.service.AddReply(c.Request.Context(), userID, postID, req)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
			return
		}
		slog.Error("Failed to add reply", "post_id", postID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to add reply"})
		return
	}

	c.JSON(http.StatusCreated, reply)
}

// ToggleLike handles POST /api/forum/posts/:id/like
func (h *Handler) ToggleLike(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post ID"})
		return
	}

	result, err := h.service.ToggleLike(c.Request.Context(), userID, postID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
			return
		}
		slog.Error("Failed to toggle like", "post_id", postID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to toggle like"})
		return
	}

	c.JSON(http.StatusOK, result)
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
