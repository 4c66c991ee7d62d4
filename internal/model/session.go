package model

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleMember  Role = "Member"
	RoleStaff   Role = "Staff"
	RoleAdmin   Role = "Admin"
	RoleUnknown Role = "Unknown"
)

// ParseRole maps a stored role string onto the closed role set. Anything
// that is not a known role, including the empty string, is RoleUnknown.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "member":
		return RoleMember
	case "staff":
		return RoleStaff
	case "admin":
		return RoleAdmin
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	return string(r)
}

// Persisted session keys. They are written on login and removed together.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
	KeyUserID       = "userId"
	KeyRole         = "role"
	KeyUser         = "user"
)

var SessionKeys = []string{KeyToken, KeyRefreshToken, KeyUserID, KeyRole, KeyUser}

type Session struct {
	AuthToken    string          `json:"-"`
	RefreshToken string          `json:"-"`
	UserID       string          `json:"user_id"`
	Role         Role            `json:"role"`
	User         json.RawMessage `json:"user,omitempty"`
}

func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.AuthToken) != ""
}

func (s Session) HasRole(roles ...Role) bool {
	for _, role := range roles {
		if s.Role == role {
			return true
		}
	}
	return false
}

// SessionFromValues decodes the persisted key/value form. The role is
// validated on every read.
func SessionFromValues(values map[string]string) Session {
	s := Session{
		AuthToken:    values[KeyToken],
		RefreshToken: values[KeyRefreshToken],
		UserID:       values[KeyUserID],
		Role:         ParseRole(values[KeyRole]),
	}
	if raw := strings.TrimSpace(values[KeyUser]); raw != "" && json.Valid([]byte(raw)) {
		s.User = json.RawMessage(raw)
	}
	return s
}

func (s Session) Values() map[string]string {
	values := map[string]string{
		KeyToken:        s.AuthToken,
		KeyRefreshToken: s.RefreshToken,
		KeyUserID:       s.UserID,
		KeyRole:         string(s.Role),
	}
	if len(s.User) > 0 {
		values[KeyUser] = string(s.User)
	}
	return values
}

// LandingRoute is the view a freshly logged-in user is sent to.
func LandingRoute(role Role) string {
	switch role {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleStaff:
		return "/staff/orders"
	default:
		return "/home"
	}
}
