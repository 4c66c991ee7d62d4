package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
	}{
		{"Member", RoleMember},
		{"member", RoleMember},
		{" Staff ", RoleStaff},
		{"ADMIN", RoleAdmin},
		{"", RoleUnknown},
		{"Owner", RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.raw))
		})
	}
}

func TestSessionValuesRoundTrip(t *testing.T) {
	sess := Session{
		AuthToken:    "tok",
		RefreshToken: "ref",
		UserID:       "42",
		Role:         RoleStaff,
		User:         json.RawMessage(`{"email":"a@b.c"}`),
	}

	values := sess.Values()
	for _, key := range SessionKeys {
		assert.Contains(t, values, key)
	}

	assert.Equal(t, sess, SessionFromValues(values))
}

func TestSessionFromValuesDropsInvalidUser(t *testing.T) {
	sess := SessionFromValues(map[string]string{
		KeyToken: "tok",
		KeyRole:  "superuser",
		KeyUser:  "{not json",
	})

	assert.True(t, sess.Authenticated())
	assert.Equal(t, RoleUnknown, sess.Role)
	assert.Nil(t, sess.User)
	assert.NotContains(t, sess.Values(), KeyUser)
}

func TestSessionHasRole(t *testing.T) {
	sess := Session{Role: RoleAdmin}
	assert.True(t, sess.HasRole(RoleStaff, RoleAdmin))
	assert.False(t, sess.HasRole(RoleMember))
	assert.False(t, Session{AuthToken: "  "}.Authenticated())
}

func TestLandingRoute(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", LandingRoute(RoleAdmin))
	assert.Equal(t, "/staff/orders", LandingRoute(RoleStaff))
	assert.Equal(t, "/home", LandingRoute(RoleMember))
	assert.Equal(t, "/home", LandingRoute(RoleUnknown))
}
