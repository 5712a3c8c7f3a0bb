package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type mockService struct {
	listFunc   func(ctx context.Context) ([]User, error)
	getFunc    func(ctx context.Context, id int64) (*User, error)
	createFunc func(ctx context.Context, req CreateUserRequest) (*User, error)
	updateFunc func(ctx context.Context, id int64, req UpdateUserRequest) (*User, error)
	deleteFunc func(ctx context.Context, id int64) error
}

func (m *mockService) List(ctx context.Context) ([]User, error) {
	return m.listFunc(ctx)
}
func (m *mockService) Get(ctx context.Context, id int64) (*User, error) {
	return m.getFunc(ctx, id)
}
func (m *mockService) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	return m.createFunc(ctx, req)
}
func (m *mockService) Update(ctx context.Context, id int64, req UpdateUserRequest) (*User, error) {
	return m.updateFunc(ctx, id, req)
}
func (m *mockService) Delete(ctx context.Context, id int64) error {
	return m.deleteFunc(ctx, id)
}

func usersRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.GET("/api/users", h.List)
	r.GET("/api/users/me", func(c *gin.Context) {
		c.Set("user_id", int64(7))
		h.Me(c)
	})
	r.GET("/api/users/:id", h.Get)
	r.POST("/api/users", h.Create)
	r.PUT("/api/users/:id", h.Update)
	r.DELETE("/api/users/:id", h.Delete)
	return r
}

func TestListUsers(t *testing.T) {
	svc := &mockService{
		listFunc: func(ctx context.Context) ([]User, error) {
			return []User{
				{ID: 1, Name: "Amina", Email: "amina@mkulima.co.ke", Role: RoleAdmin},
				{ID: 2, Name: "Joseph", Email: "joseph@mkulima.co.ke", Role: RoleExpert},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	usersRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var list []User
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Amina" {
		t.Errorf("unexpected list: %+v", list)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("password hash leaked into response")
	}
}

func TestGetUserNotFound(t *testing.T) {
	svc := &mockService{
		getFunc: func(ctx context.Context, id int64) (*User, error) {
			return nil, ErrUserNotFound
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/99", nil)
	usersRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetUserInvalidID(t *testing.T) {
	svc := &mockService{
		getFunc: func(ctx context.Context, id int64) (*User, error) {
			t.Fatal("service must not be called for a bad id")
			return nil, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/abc", nil)
	usersRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMeReturnsCaller(t *testing.T) {
	svc := &mockService{
		getFunc: func(ctx context.Context, id int64) (*User, error) {
			if id != 7 {
				t.Errorf("expected lookup of caller id 7, got %d", id)
			}
			return &User{ID: id, Name: "Amina", Email: "amina@mkulima.co.ke", Role: RoleAdmin}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	usersRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCreateUser(t *testing.T) {
	svc := &mockService{
		createFunc: func(ctx context.Context, req CreateUserRequest) (*User, error) {
			return &User{ID: 3, Name: req.Name, Email: req.Email, Role: req.Role}, nil
		},
	}

	body := `{"name":"Grace","email":"grace@mkulima.co.ke","phone":"+254700000000","role":"regular","password":"secret123"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	usersRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := &mockService{
		createFunc: func(ctx context.Context, req CreateUserRequest) (*User, error) {
			return nil, ErrEmailExists
		},
	}

	body := `{"name":"Grace","email":"grace@mkulima.co.ke","phone":"+254700000000","role":"regular","password":"secret123"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	usersRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestUpdateUserInvalidRole(t *testing.T) {
	svc := &mockService{
		updateFunc: func(ctx context.Context, id int64, req UpdateUserRequest) (*User, error) {
			return nil, ErrInvalidRole
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/users/3", strings.NewReader(`{"role":"superuser"}`))
	req.Header.Set("Content-Type", "application/json")
	usersRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	var deleted int64
	svc := &mockService{
		deleteFunc: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/users/3", nil)
	usersRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if deleted != 3 {
		t.Errorf("expected delete of id 3, got %d", deleted)
	}
}
