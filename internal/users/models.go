package users

// Roles a user can hold on the platform.
const (
	RoleRegular = "regular"
	RoleExpert  = "expert"
	RoleAdmin   = "admin"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleRegular, RoleExpert, RoleAdmin:
		return true
	}
	return false
}

// User represents a row in the users table. The password hash never
// leaves the server.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
}

// CreateUserRequest is the request payload for adding a user
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

// UpdateUserRequest is the request payload for updating a user; nil
// fields are left untouched.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone *string `json:"phone,omitempty"`
	Role  *string `json:"role,omitempty"`
}
