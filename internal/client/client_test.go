package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mkulima/internal/session"
	"mkulima/internal/token"
)

func issueToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	codec := token.NewCodec([]byte("test-secret"), ttl)
	tok, err := codec.Issue(7, "Amina", "admin")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func TestLoginArmsSession(t *testing.T) {
	tok := issueToken(t, time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode login body: %v", err)
		}
		if req.Email != "amina@mkulima.co.ke" {
			t.Errorf("unexpected email %q", req.Email)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": tok,
			"user":  map[string]any{"id": 7, "name": "Amina", "email": req.Email, "role": "admin"},
		})
	}))
	defer srv.Close()

	sess := session.NewManager(session.NewMemoryStorage())
	c := New(srv.URL, sess)

	resp, err := c.Login(context.Background(), "amina@mkulima.co.ke", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.User.Name != "Amina" {
		t.Errorf("unexpected user: %+v", resp.User)
	}
	if sess.State() != session.LoggedIn {
		t.Error("login must arm the session")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid email or password"})
	}))
	defer srv.Close()

	sess := session.NewManager(session.NewMemoryStorage())
	c := New(srv.URL, sess)

	_, err := c.Login(context.Background(), "amina@mkulima.co.ke", "wrong-pass")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if sess.State() != session.LoggedOut {
		t.Error("failed login must not arm the session")
	}
}

func TestAuthedRequestAttachesBearer(t *testing.T) {
	tok := issueToken(t, time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+tok {
			t.Errorf("missing bearer header, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": 7, "name": "Amina", "email": "amina@mkulima.co.ke", "role": "admin",
		})
	}))
	defer srv.Close()

	sess := session.NewManager(session.NewMemoryStorage())
	if _, err := sess.Login(tok); err != nil {
		t.Fatalf("arm session: %v", err)
	}

	c := New(srv.URL, sess)
	u, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if u.ID != 7 {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestServerRejectionDropsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Session expired"})
	}))
	defer srv.Close()

	sess := session.NewManager(session.NewMemoryStorage())
	if _, err := sess.Login(issueToken(t, time.Hour)); err != nil {
		t.Fatalf("arm session: %v", err)
	}

	c := New(srv.URL, sess)
	_, err := c.ListUsers(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if sess.State() != session.LoggedOut {
		t.Error("401 from the server must drop the local session")
	}
}

func TestAuthedRequestWithoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server without a session")
	}))
	defer srv.Close()

	c := New(srv.URL, session.NewManager(session.NewMemoryStorage()))
	if _, err := c.ListPosts(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAPIErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Post not found"})
	}))
	defer srv.Close()

	sess := session.NewManager(session.NewMemoryStorage())
	if _, err := sess.Login(issueToken(t, time.Hour)); err != nil {
		t.Fatalf("arm session: %v", err)
	}

	c := New(srv.URL, sess)
	_, err := c.ToggleLike(context.Background(), 99)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "Post not found" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}
