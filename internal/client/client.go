// Package client is the HTTP client for the Mkulima's Table API. It
// pairs with a session manager: a successful login arms the session,
// and any 401 from the server drops it, so the client's view of being
// logged in tracks what the server will actually accept.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mkulima/internal/forum"
	"mkulima/internal/session"
	"mkulima/internal/users"
)

// ErrUnauthorized is returned when the server rejects the session
var ErrUnauthorized = errors.New("unauthorized")

// APIError carries the server's error message and status code
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the API server
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Manager
}

// New creates a client for the server at baseURL
func New(baseURL string, sess *session.Manager) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		session: sess,
	}
}

// LoginResponse is the server's answer to a successful login
type LoginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

// Login authenticates and arms the session with the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &resp, false); err != nil {
		return nil, err
	}

	if _, err := c.session.Login(resp.Token); err != nil {
		return nil, fmt.Errorf("adopt session: %w", err)
	}
	return &resp, nil
}

// Logout drops the local session. The server keeps no session state,
// so there is nothing to tell it.
func (c *Client) Logout() error {
	return c.session.Logout()
}

// Me fetches the authenticated user's own profile
func (c *Client) Me(ctx context.Context) (*users.User, error) {
	var u users.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers fetches all platform users
func (c *Client) ListUsers(ctx context.Context) ([]users.User, error) {
	var list []users.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &list, true); err != nil {
		return nil, err
	}
	return list, nil
}

// ListPosts fetches the forum feed
func (c *Client) ListPosts(ctx context.Context) ([]forum.Post, error) {
	var posts []forum.Post
	if err := c.do(ctx, http.MethodGet, "/api/forum/posts", nil, &posts, true); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost publishes a new forum post
func (c *Client) CreatePost(ctx context.Context, title, content string) (*forum.Post, error) {
	req := forum.CreatePostRequest{Title: title, Content: content}
	var post forum.Post
	if err := c.do(ctx, http.MethodPost, "/api/forum/posts", req, &post, true); err != nil {
		return nil, err
	}
	return &post, nil
}

// AddReply replies to a post
func (c *Client) AddReply(ctx context.Context, postID int64, content string) (*forum.Reply, error) {
	req := forum.CreateReplyRequest{Content: content}
	path := fmt.Sprintf("/api/forum/posts/%d/replies", postID)
	var reply forum.Reply
	if err := c.do(ctx, http.MethodPost, path, req, &reply, true); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ToggleLike flips the caller's like on a post
func (c *Client) ToggleLike(ctx context.Context, postID int64) (*forum.LikeResult, error) {
	path := fmt.Sprintf("/api/forum/posts/%d/like", postID)
	var result forum.LikeResult
	if err := c.do(ctx, http.MethodPost, path, nil, &result, true); err != nil {
		return nil, err
	}
	return &result, nil
}

// do sends one request and decodes the response into out. When authed
// is set the session token is attached, and a 401 answer drops the
// session before the error is returned.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		tok, err := c.session.Token()
		if err != nil {
			return ErrUnauthorized
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("request %s: %w", path, urlErr.Err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if authed {
			if logoutErr := c.session.Logout(); logoutErr != nil {
				return fmt.Errorf("drop session: %w", logoutErr)
			}
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, serverMessage(resp.Body))
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// serverMessage extracts the "message" field of an error response,
// falling back to a generic string.
func serverMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil || payload.Message == "" {
		return "request failed"
	}
	return payload.Message
}
