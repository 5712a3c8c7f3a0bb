// Package server wires the application together: database, token
// codec, services, handlers and the HTTP router.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"mkulima/internal/auth"
	"mkulima/internal/database"
	"mkulima/internal/files"
	"mkulima/internal/forum"
	"mkulima/internal/ratelimit"
	"mkulima/internal/token"
	"mkulima/internal/users"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg   *Config
	db    database.Service
	codec *token.Codec

	authHandler  *auth.Handler
	usersHandler *users.Handler
	forumHandler *forum.Handler
	filesHandler *files.Handler
	loginLimiter *ratelimit.Limiter
}

// New builds the application server from config. Optional pieces
// (Redis, object storage) are skipped when unconfigured; required ones
// fail startup.
func New(cfg *Config) (*Server, error) {
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	codec := token.NewCodec([]byte(cfg.JWTSecret), cfg.TokenTTL)

	userRepo := users.NewRepository(db)
	userService := users.NewService(userRepo)
	authService := auth.NewService(userRepo, codec)
	forumService := forum.NewService(db)

	s := &Server{
		cfg:          cfg,
		db:           db,
		codec:        codec,
		authHandler:  auth.NewHandler(authService),
		usersHandler: users.NewHandler(userService),
		forumHandler: forum.NewHandler(forumService),
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		s.loginLimiter = ratelimit.NewLimiter(
			ratelimit.NewRedisStore(client), cfg.LoginLimit, cfg.LoginWindow)
		slog.Info("Login rate limiting enabled", "addr", cfg.RedisAddr)
	}

	storageCfg := files.StorageConfig{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
	}
	if storageCfg.Configured() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		storage, err := files.NewS3Storage(ctx, storageCfg)
		if err != nil {
			// Materials are a secondary feature; the handler answers
			// 503 until storage comes back.
			slog.Warn("File storage unavailable", "error", err.Error())
		} else {
			s.filesHandler = files.NewHandler(files.NewService(storage))
			slog.Info("File storage initialized", "bucket", cfg.S3Bucket)
		}
	}
	if s.filesHandler == nil {
		s.filesHandler = files.NewHandler(nil)
	}

	return s, nil
}

// HTTPServer wraps the router in an http.Server with timeouts applied
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.RegisterRoutes(),
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// Close releases the server's resources
func (s *Server) Close() error {
	return s.db.Close()
}
