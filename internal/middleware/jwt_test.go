package middleware

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-dash/internal/domain"
)

const testSecret = "test-secret-32-bytes-long-xxxxx"

func makeToken(secret string, claims jwt.MapClaims) string {
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return signed
}

func future() int64 { return time.Now().Add(time.Hour).Unix() }

func TestNewHS256Validator_RequiresSecret(t *testing.T) {
	t.Parallel()
	_, err := NewHS256Validator("", "")
	require.Error(t, err)
}

func TestHS256Validator_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		audience string
		token    string
		wantErr  bool
		wantName string
		wantRole domain.Role
		wantAud  []string
	}{
		{
			name:     "role claim",
			token:    makeToken(testSecret, jwt.MapClaims{"sub": "u-1", "name": "Dana", "role": "manager", "exp": future()}),
			wantName: "Dana",
			wantRole: domain.RoleManager,
		},
		{
			name:     "no role defaults to viewer",
			token:    makeToken(testSecret, jwt.MapClaims{"sub": "u-2", "exp": future()}),
			wantName: "u-2",
			wantRole: domain.RoleViewer,
		},
		{
			name:     "highest of roles array",
			token:    makeToken(testSecret, jwt.MapClaims{"sub": "u-3", "roles": []any{"viewer", "admin", "unknown"}, "exp": future()}),
			wantName: "u-3",
			wantRole: domain.RoleAdmin,
		},
		{
			name:     "unknown role is viewer",
			token:    makeToken(testSecret, jwt.MapClaims{"sub": "u-4", "role": "root", "exp": future()}),
			wantName: "u-4",
			wantRole: domain.RoleViewer,
		},
		{
			name:     "audience match",
			audience: "fleet-dash",
			token:    makeToken(testSecret, jwt.MapClaims{"sub": "u-5", "aud": "fleet-dash", "exp": future()}),
			wantName: "u-5",
			wantRole: domain.RoleViewer,
			wantAud:  []string{"fleet-dash"},
		},
		{
			name:     "audience mismatch",
			audience: "fleet-dash",
			token:    makeToken(testSecret, jwt.MapClaims{"sub": "u-6", "aud": "other", "exp": future()}),
			wantErr:  true,
		},
		{name: "expired", token: makeToken(testSecret, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()}), wantErr: true},
		{name: "no expiry", token: makeToken(testSecret, jwt.MapClaims{"sub": "u"}), wantErr: true},
		{name: "no subject", token: makeToken(testSecret, jwt.MapClaims{"exp": future()}), wantErr: true},
		{name: "wrong secret", token: makeToken("another-secret", jwt.MapClaims{"sub": "u", "exp": future()}), wantErr: true},
		{name: "garbage", token: "not.a.jwt", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v, err := NewHS256Validator(testSecret, tc.audience)
			require.NoError(t, err)

			claims, err := v.Validate(context.Background(), tc.token)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			p := claims.Principal()
			assert.Equal(t, tc.wantName, p.Name)
			assert.Equal(t, tc.wantRole, p.Role)
			assert.Equal(t, tc.wantAud, claims.Audience)
		})
	}
}

func TestHS256Validator_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{"sub": "u", "exp": future()}).SignedString(key)
	require.NoError(t, err)

	v, err := NewHS256Validator(testSecret, "")
	require.NoError(t, err)
	_, err = v.Validate(context.Background(), token)
	require.Error(t, err)
}

func TestOIDCValidator_StaticKeySet(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	const issuer = "https://auth.example.com"

	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	v := NewOIDCValidatorFromKeySet(keySet, issuer, "fleet-dash")

	claims, err := v.Validate(context.Background(), sign(jwt.MapClaims{
		"iss": issuer, "aud": "fleet-dash", "sub": "u-9", "name": "Mia", "role": "admin", "exp": future(),
	}))
	require.NoError(t, err)
	assert.Equal(t, "u-9", claims.Subject)
	assert.Equal(t, issuer, claims.Issuer)
	assert.Equal(t, domain.ContextPrincipal{Name: "Mia", Role: domain.RoleAdmin}, claims.Principal())

	_, err = v.Validate(context.Background(), sign(jwt.MapClaims{
		"iss": "https://evil.example.com", "aud": "fleet-dash", "sub": "u-9", "exp": future(),
	}))
	require.Error(t, err)

	_, err = v.Validate(context.Background(), sign(jwt.MapClaims{
		"iss": issuer, "aud": "other", "sub": "u-9", "exp": future(),
	}))
	require.Error(t, err)
}
