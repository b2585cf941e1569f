package models

import "fmt"

// Role is the closed set of user roles. Claims are parsed into a Role
// exactly once at the auth boundary; raw role strings never travel
// further than that.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
	RoleGuest   Role = "guest"
)

var allRoles = []Role{RoleStudent, RoleTeacher, RoleParent, RoleAdmin, RoleGuest}

// ParseRole validates a raw role string. An unknown value is an error,
// never a fallback to a default role.
func ParseRole(s string) (Role, error) {
	for _, r := range allRoles {
		if s == string(r) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	return string(r)
}
