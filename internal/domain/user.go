package domain

import "context"

// Role identifies one of the two access levels in the system.
type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// User represents a member of the organization.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	Department  string   `json:"department,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	ManagerID   string   `json:"managerId,omitempty"`   // employee -> manager back-reference
	TeamMembers []string `json:"teamMembers,omitempty"` // manager -> employee ids
}

// IsManager reports whether the user holds the manager role.
func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

// UserDirectory defines read-only access to the authoritative user records.
// Sessions and feedback resolve every identity against this directory.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

// SessionStore persists the logged-in user across restarts. Absence of a
// stored record is reported as ErrNoSession, never as success.
type SessionStore interface {
	Save(ctx context.Context, user *User) error
	Load(ctx context.Context) (*User, error)
	Clear(ctx context.Context) error
}
