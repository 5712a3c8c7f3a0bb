package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mkulima/internal/token"
)

func guardedRouter(codec *token.Codec) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(codec), func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		name, _ := c.Get("user_name")
		role, _ := c.Get("user_role")
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "name": name, "role": role})
	})
	return r
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	return payload.Message
}

func TestRequireAuthMissingHeader(t *testing.T) {
	codec := token.NewCodec([]byte("test-secret"), time.Hour)
	r := guardedRouter(codec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if msg := errorMessage(t, w.Body.Bytes()); msg != "Authentication required" {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestRequireAuthNonBearerHeader(t *testing.T) {
	codec := token.NewCodec([]byte("test-secret"), time.Hour)
	r := guardedRouter(codec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if msg := errorMessage(t, w.Body.Bytes()); msg != "Authentication required" {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestRequireAuthGarbageToken(t *testing.T) {
	codec := token.NewCodec([]byte("test-secret"), time.Hour)
	r := guardedRouter(codec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if msg := errorMessage(t, w.Body.Bytes()); msg != "Invalid token" {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	// Negative TTL issues an already-expired token with a valid
	// signature, so this exercises the liveness check alone.
	issuer := token.NewCodec([]byte("test-secret"), -time.Minute)
	tok, err := issuer.Issue(7, "Amina", "admin")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	verifier := token.NewCodec([]byte("test-secret"), time.Hour)
	r := guardedRouter(verifier)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if msg := errorMessage(t, w.Body.Bytes()); msg != "Session expired" {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	codec := token.NewCodec([]byte("test-secret"), time.Hour)
	tok, err := codec.Issue(7, "Amina", "admin")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	r := guardedRouter(codec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		UserID int64  `json:"user_id"`
		Name   string `json:"name"`
		Role   string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.UserID != 7 || body.Name != "Amina" || body.Role != "admin" {
		t.Errorf("unexpected identity: %+v", body)
	}
}
