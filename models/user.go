package models

import "strings"

const (
	DefaultUserRole   = "Sales"
	DefaultUserStatus = "active"
)

// User is a staff member with access to the console.
type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// Validate requires a name and email and fills role and status defaults.
func (u *User) Validate() error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if u.Role == "" {
		u.Role = DefaultUserRole
	}
	if u.Status == "" {
		u.Status = DefaultUserStatus
	}

	var v ValidationError
	if u.Name == "" {
		v.add("name", "is required")
	}
	if u.Email == "" {
		v.add("email", "is required")
	}
	return v.errOrNil()
}
