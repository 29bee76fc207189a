package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	iss, err := NewIssuer("secret", time.Hour, "sim-trader")
	require.NoError(t, err)

	token, exp, err := iss.Issue(Identity{AccountID: 42, Role: "admin"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{AccountID: 42, Role: "admin"}, id)
}

func TestVerifyRejects(t *testing.T) {
	iss, err := NewIssuer("secret", time.Minute, "")
	require.NoError(t, err)
	token, _, err := iss.Issue(Identity{AccountID: 1, Role: "user"})
	require.NoError(t, err)

	other, err := NewIssuer("other-secret", time.Minute, "")
	require.NoError(t, err)

	expired, err := NewIssuer("secret", time.Minute, "")
	require.NoError(t, err)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	tests := []struct {
		name   string
		issuer *Issuer
		token  string
	}{
		{"wrong secret", other, token},
		{"expired", expired, token},
		{"garbage", iss, "not-a-token"},
		{"tampered", iss, token + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.issuer.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour, "")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
