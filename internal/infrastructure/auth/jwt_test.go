package auth

import (
	"testing"
	"time"

	"github.com/dinarbooks/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issuedAt = time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

func newTestService(issuer string) *TokenService {
	svc := NewTokenService(config.AuthConfig{
		Enabled: true,
		Secret:  "test-secret-key-at-least-32-chars",
		Issuer:  issuer,
	})
	svc.now = func() time.Time { return issuedAt }
	return svc
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := newTestService("dinarbooks")

	token, err := svc.Issue("pos-terminal-1", time.Hour, "ledger:write")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "pos-terminal-1", claims.Subject)
	assert.Equal(t, "dinarbooks", claims.Issuer)
	assert.Equal(t, []string{"ledger:write"}, claims.Scopes)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenService_Verify(t *testing.T) {
	svc := newTestService("dinarbooks")
	valid, err := svc.Issue("clerk", time.Hour)
	require.NoError(t, err)

	expired, err := svc.Issue("clerk", -time.Minute)
	require.NoError(t, err)

	otherIssuer, err := newTestService("someone-else").Issue("clerk", time.Hour)
	require.NoError(t, err)

	otherSecret := NewTokenService(config.AuthConfig{Secret: "a-different-secret-entirely-000000", Issuer: "dinarbooks"})
	forged, err := otherSecret.Issue("clerk", time.Hour)
	require.NoError(t, err)

	noSubject, err := svc.Issue("", time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "clerk", "iss": "dinarbooks"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"valid", valid, nil},
		{"expired", expired, ErrExpiredToken},
		{"wrong issuer", otherIssuer, ErrInvalidToken},
		{"wrong secret", forged, ErrInvalidToken},
		{"missing subject", noSubject, ErrMissingSubject},
		{"unsigned", none, ErrInvalidToken},
		{"garbage", "not.a.token", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenService_NotYetValid(t *testing.T) {
	svc := newTestService("")
	token, err := svc.Issue("clerk", time.Hour)
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(-time.Hour) }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}
