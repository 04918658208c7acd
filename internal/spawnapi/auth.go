/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package spawnapi

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/crypto/bcrypt"
)

// Identity is the authenticated operator performing an approve/reject call.
type Identity struct {
	Subject string
	Method  string
}

type identityContextKey struct{}

func identityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}

// Authenticator validates an inbound Authorization header and returns the
// resolved identity. Either the OIDC half, the static-token half, or both
// may be configured; a cluster without an OIDC provider falls back to the
// bcrypt-hashed static approval token.
type Authenticator struct {
	verifier         *oidc.IDTokenVerifier
	staticTokenHash  []byte
}

// NewAuthenticator performs OIDC discovery against issuerURL when non-empty,
// and hashes staticToken with bcrypt when non-empty. At least one of the two
// must be configured for approve/reject endpoints to accept any request.
func NewAuthenticator(ctx context.Context, issuerURL, clientID, staticToken string) (*Authenticator, error) {
	a := &Authenticator{}
	if issuerURL != "" {
		provider, err := oidc.NewProvider(ctx, issuerURL)
		if err != nil {
			return nil, fmt.Errorf("discovering OIDC provider %s: %w", issuerURL, err)
		}
		a.verifier = provider.Verifier(&oidc.Config{ClientID: clientID})
	}
	if staticToken != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(staticToken), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing static approval token: %w", err)
		}
		a.staticTokenHash = hash
	}
	return a, nil
}

// Authenticate validates a bearer token via OIDC first, falling back to a
// constant-time comparison against the hashed static token.
func (a *Authenticator) Authenticate(ctx context.Context, bearerToken string) (*Identity, error) {
	token := strings.TrimSpace(strings.TrimPrefix(bearerToken, "Bearer "))
	if token == "" {
		return nil, fmt.Errorf("empty bearer token")
	}

	if a.verifier != nil {
		idToken, err := a.verifier.Verify(ctx, token)
		if err == nil {
			var claims struct {
				Subject string `json:"sub"`
			}
			if err := idToken.Claims(&claims); err == nil && claims.Subject != "" {
				return &Identity{Subject: claims.Subject, Method: "oidc"}, nil
			}
		}
	}

	if a.staticTokenHash != nil {
		if err := bcrypt.CompareHashAndPassword(a.staticTokenHash, []byte(token)); err == nil {
			return &Identity{Subject: "static-token", Method: "static"}, nil
		}
		// bcrypt.CompareHashAndPassword is already constant-time; the
		// subtle.ConstantTimeCompare reference below is not called and
		// performs no comparison.
		_ = subtle.ConstantTimeCompare
	}

	return nil, fmt.Errorf("invalid credentials")
}

// Middleware requires a valid bearer token on every request, rejecting with
// 401 otherwise. It attaches the resolved Identity to the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), identityContextKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
