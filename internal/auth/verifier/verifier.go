// Package verifier validates bearer tokens issued by the external identity
// provider and extracts the identity claims the rest of the application
// relies on. Verification is injected as a dependency so handlers and
// services never reach for provider-specific globals.
package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ExternalIdentity is the set of claims extracted from a verified identity
// token. Subject is the provider-assigned stable identifier; email and name
// are informational and may be empty.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}

// TokenVerifier validates a raw bearer token and returns the identity it
// asserts. Implementations must reject expired, malformed, or wrongly
// signed tokens with an error.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (ExternalIdentity, error)
}

// StaticHMACVerifier verifies HS256 tokens signed with a shared secret.
// It exists for local development and tests where no identity provider
// is reachable; production deployments use the OIDC verifier.
type StaticHMACVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewStaticHMAC creates a verifier for HS256 tokens signed with secret.
// Issuer and audience checks are applied only when non-empty.
func NewStaticHMAC(secret, issuer, audience string) *StaticHMACVerifier {
	return &StaticHMACVerifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

// Verify parses and validates the token and extracts identity claims.
func (v *StaticHMACVerifier) Verify(_ context.Context, rawToken string) (ExternalIdentity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return ExternalIdentity{}, fmt.Errorf("verify token: %w", err)
	}

	return identityFromClaims(claims)
}

// identityFromClaims maps standard OIDC claims onto ExternalIdentity.
// A token without a subject is useless for account resolution and is
// rejected here rather than downstream.
func identityFromClaims(claims jwt.MapClaims) (ExternalIdentity, error) {
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return ExternalIdentity{}, fmt.Errorf("token has no subject claim")
	}

	ident := ExternalIdentity{Subject: sub}
	if email, ok := claims["email"].(string); ok {
		ident.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		ident.Name = name
	}
	return ident, nil
}
