package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Allows(t *testing.T) {
	tests := []struct {
		have     Role
		required Role
		want     bool
	}{
		{RoleWorker, RoleWorker, true},
		{RoleWorker, RoleMaintainer, false},
		{RoleWorker, RoleAdmin, false},
		{RoleMaintainer, RoleMaintainer, true},
		{RoleMaintainer, RoleAdmin, false},
		{RoleAdmin, RoleMaintainer, true},
		{RoleAdmin, RoleAdmin, true},
		{Role("visitor"), RoleMaintainer, false},
		{Role("visitor"), RoleWorker, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.have.Allows(tt.required), "%s -> %s", tt.have, tt.required)
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)

	token, err := iss.Issue("user-1")
	require.NoError(t, err)

	id, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestIssuer_Rejects(t *testing.T) {
	iss, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewIssuer("other-secret", time.Hour)
	require.NoError(t, err)

	forged, err := other.Issue("user-1")
	require.NoError(t, err)

	past := iss.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, err := past.Issue("user-1")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not-a-token",
		"legacy":  "mock-token-1",
		"forged":  forged,
		"expired": expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := iss.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.Error(t, err)
}
