package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mkulima/internal/auth"
	"mkulima/internal/ratelimit"
)

// RegisterRoutes builds the gin router. Everything under /api except
// login sits behind the bearer token guard.
func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", s.healthHandler)

	r.POST("/api/login", ratelimit.Middleware(s.loginLimiter), s.authHandler.Login)

	api := r.Group("/api")
	api.Use(auth.RequireAuth(s.codec))
	{
		api.GET("/users", s.usersHandler.List)
		api.GET("/users/me", s.usersHandler.Me)
		api.GET("/users/:id", s.usersHandler.Get)
		api.POST("/users", s.usersHandler.Create)
		api.PUT("/users/:id", s.usersHandler.Update)
		api.DELETE("/users/:id", s.usersHandler.Delete)

		api.GET("/forum/posts", s.forumHandler.ListPosts)
		api.POST("/forum/posts", s.forumHandler.CreatePost)
		api.POST("/forum/posts/:id/replies", s.forumHandler.AddReply)
		api.POST("/forum/posts/:id/like", s.forumHandler.ToggleLike)

		api.POST("/files/upload-url", s.filesHandler.UploadURL)
		api.GET("/files/:key/download-url", s.filesHandler.DownloadURL)
		api.DELETE("/files/:key", s.filesHandler.Delete)
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"database": s.db.Health(),
	})
}
