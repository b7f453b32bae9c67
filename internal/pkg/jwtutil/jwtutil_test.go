package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	token, expiresAt, err := GenerateToken("secret", time.Hour, "sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestParseRejects(t *testing.T) {
	valid, _, err := GenerateToken("secret", time.Hour, "sess-1")
	require.NoError(t, err)
	expired, _, err := GenerateToken("secret", -time.Minute, "sess-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "wrong secret", secret: "other", token: valid},
		{name: "expired", secret: "secret", token: expired},
		{name: "garbage", secret: "secret", token: "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestGenerateRequiresSecret(t *testing.T) {
	_, _, err := GenerateToken("", time.Hour, "sess-1")
	assert.Error(t, err)
}
