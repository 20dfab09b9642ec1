package domain

import "time"

// UserRole distinguishes the two actor kinds known to the system.
type UserRole string

const (
	RoleParent UserRole = "PARENT"
	RoleChild  UserRole = "CHILD"
)

// User represents an authenticated actor (a parent or a child login).
// Identity verification itself is external; this record only carries what the
// engine needs: a stable actor id and a role.
type User struct {
	UserID       string   `json:"userID"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"-"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}
