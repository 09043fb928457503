package auth

import (
	"context"
	"slices"
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	t.Setenv(secretEnvVariable, "test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	token, err := GenerateToken("kiosk-7", []string{"Kiosk", "kiosk", "Admin"}, "org-1", 30*time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "kiosk-7" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Organization != "org-1" {
		t.Fatalf("unexpected org: %s", claims.Organization)
	}
	if !slices.Contains(claims.Roles, "kiosk") || !slices.Contains(claims.Roles, "admin") {
		t.Fatalf("roles not preserved: %v", claims.Roles)
	}
	if len(claims.Roles) != 2 {
		t.Fatalf("expected deduplicated roles, got %v", claims.Roles)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Setenv(secretEnvVariable, "test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	for _, token := range []string{"", "not.a.jwt", "aaa.bbb.ccc"} {
		if _, err := ParseAndValidate(token); err == nil {
			t.Fatalf("expected rejection for %q", token)
		}
	}
}

func TestGenerateWithoutSecret(t *testing.T) {
	t.Setenv(secretEnvVariable, "")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := GenerateToken("kiosk-1", nil, "", time.Minute); err == nil {
		t.Fatal("expected error when secret is unset")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = ContextWithSubject(ctx, "kiosk-3", []string{"Kiosk", "kiosk", "viewer"}, "org-9")

	id, ok := SubjectFromContext(ctx)
	if !ok || id != "kiosk-3" {
		t.Fatalf("unexpected subject: %s, ok=%v", id, ok)
	}
	if org := OrgFromContext(ctx); org != "org-9" {
		t.Fatalf("unexpected org: %s", org)
	}
	roles := RolesFromContext(ctx)
	if len(roles) != 2 {
		t.Fatalf("expected deduplicated roles, got %v", roles)
	}
	if !HasRole(ctx, "kiosk") || !HasRole(ctx, "viewer") {
		t.Fatalf("HasRole missing expected roles: %v", roles)
	}
	if HasRole(ctx, "admin") {
		t.Fatal("unexpected role found")
	}
}

func TestKioskSecret(t *testing.T) {
	hash, err := HashKioskSecret("front-door-secret")
	if err != nil {
		t.Fatalf("HashKioskSecret: %v", err)
	}
	if err := VerifyKioskSecret(hash, "front-door-secret"); err != nil {
		t.Fatalf("VerifyKioskSecret: %v", err)
	}
	if err := VerifyKioskSecret(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}
