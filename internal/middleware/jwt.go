// Package middleware provides the dashboard's HTTP middleware: bearer JWT
// authentication, request IDs, access logging and rate limiting.
package middleware

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"fleet-dash/internal/domain"
)

// RoleClaim is the token claim holding the dashboard role. A "roles" array
// claim is also accepted; the highest recognised role wins.
const RoleClaim = "role"

// JWTClaims holds the parsed claims from a validated JWT.
type JWTClaims struct {
	Subject  string
	Issuer   string
	Audience []string
	Name     string
	Role     domain.Role
}

// Principal returns the session principal described by the claims.
func (c *JWTClaims) Principal() domain.ContextPrincipal {
	name := c.Name
	if name == "" {
		name = c.Subject
	}
	return domain.ContextPrincipal{Name: name, Role: c.Role}
}

// JWTValidator validates a JWT and returns its claims.
type JWTValidator interface {
	Validate(ctx context.Context, token string) (*JWTClaims, error)
}

// OIDCValidator validates JWTs using OIDC discovery and the issuer's JWKS.
type OIDCValidator struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCValidator discovers the provider at issuerURL.
func NewOIDCValidator(ctx context.Context, issuerURL, audience string) (*OIDCValidator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	return &OIDCValidator{verifier: provider.Verifier(&oidc.Config{ClientID: audience})}, nil
}

// NewOIDCValidatorFromKeySet builds a validator from an explicit key set,
// skipping discovery.
func NewOIDCValidatorFromKeySet(keySet oidc.KeySet, issuerURL, audience string) *OIDCValidator {
	return &OIDCValidator{verifier: oidc.NewVerifier(issuerURL, keySet, &oidc.Config{ClientID: audience})}
}

func (v *OIDCValidator) Validate(ctx context.Context, token string) (*JWTClaims, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	var raw map[string]any
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	claims := claimsFromMap(raw)
	claims.Subject = idToken.Subject
	claims.Issuer = idToken.Issuer
	claims.Audience = idToken.Audience
	return claims, nil
}

// HS256Validator validates JWTs signed with a shared secret.
type HS256Validator struct {
	secret   []byte
	audience string
}

// NewHS256Validator creates a shared-secret validator. When audience is
// set, tokens must carry it in their aud claim.
func NewHS256Validator(secret, audience string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret), audience: audience}, nil
}

func (v *HS256Validator) Validate(_ context.Context, token string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	tok, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}
	claims := claimsFromMap(raw)
	claims.Subject, _ = raw.GetSubject()
	claims.Issuer, _ = raw.GetIssuer()
	aud, _ := raw.GetAudience()
	claims.Audience = []string(aud)
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

func claimsFromMap(raw map[string]any) *JWTClaims {
	c := &JWTClaims{Role: domain.RoleViewer}
	if name, ok := raw["name"].(string); ok {
		c.Name = name
	}

	var roles []string
	if r, ok := raw[RoleClaim].(string); ok {
		roles = append(roles, r)
	}
	if list, ok := raw["roles"].([]any); ok {
		for _, r := range list {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	}
	for _, r := range roles {
		if role := domain.ParseRole(r); role.AtLeast(c.Role) {
			c.Role = role
		}
	}
	return c
}
