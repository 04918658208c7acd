/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package spawnapi

import "testing"

func TestAuthenticatorStaticToken(t *testing.T) {
	auth, err := NewAuthenticator(t.Context(), "", "", "s3cret")
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}

	id, err := auth.Authenticate(t.Context(), "Bearer s3cret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id.Method != "static" {
		t.Errorf("Method = %q, want static", id.Method)
	}
}

func TestAuthenticatorStaticTokenRejectsWrongValue(t *testing.T) {
	auth, err := NewAuthenticator(t.Context(), "", "", "s3cret")
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}

	if _, err := auth.Authenticate(t.Context(), "Bearer wrong"); err == nil {
		t.Error("expected an error for a mismatched static token")
	}
}

func TestAuthenticatorRejectsEmptyToken(t *testing.T) {
	auth, err := NewAuthenticator(t.Context(), "", "", "s3cret")
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}

	if _, err := auth.Authenticate(t.Context(), ""); err == nil {
		t.Error("expected an error for an empty bearer token")
	}
}

func TestAuthenticatorUnconfiguredRejectsEverything(t *testing.T) {
	auth, err := NewAuthenticator(t.Context(), "", "", "")
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}

	if _, err := auth.Authenticate(t.Context(), "Bearer anything"); err == nil {
		t.Error("expected an error when neither OIDC nor a static token is configured")
	}
}
