package verifier

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "local-dev-secret"

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestStaticHMACVerifierExtractsClaims(t *testing.T) {
	v := NewStaticHMAC(testSecret, "", "")
	raw := signHS256(t, testSecret, jwt.MapClaims{
		"sub":   "provider|abc123",
		"email": "priya@example.com",
		"name":  "Priya Sharma",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	ident, err := v.Verify(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify returned error: %v", err)
	}
	if ident.Subject != "provider|abc123" {
		t.Fatalf("expected subject %q, got %q", "provider|abc123", ident.Subject)
	}
	if ident.Email != "priya@example.com" {
		t.Fatalf("expected email to be extracted, got %q", ident.Email)
	}
	if ident.Name != "Priya Sharma" {
		t.Fatalf("expected name to be extracted, got %q", ident.Name)
	}
}

func TestStaticHMACVerifierAllowsMissingOptionalClaims(t *testing.T) {
	v := NewStaticHMAC(testSecret, "", "")
	raw := signHS256(t, testSecret, jwt.MapClaims{
		"sub": "provider|abc123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	ident, err := v.Verify(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify returned error: %v", err)
	}
	if ident.Email != "" || ident.Name != "" {
		t.Fatalf("expected empty optional claims, got email=%q name=%q", ident.Email, ident.Name)
	}
}

func TestStaticHMACVerifierRejectsWrongSecret(t *testing.T) {
	v := NewStaticHMAC(testSecret, "", "")
	raw := signHS256(t, "some-other-secret", jwt.MapClaims{
		"sub": "provider|abc123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(context.Background(), raw); err == nil {
		t.Fatal("expected verification to fail for a token signed with a different secret")
	}
}

func TestStaticHMACVerifierRejectsExpiredToken(t *testing.T) {
	v := NewStaticHMAC(testSecret, "", "")
	raw := signHS256(t, testSecret, jwt.MapClaims{
		"sub": "provider|abc123",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	if _, err := v.Verify(context.Background(), raw); err == nil {
		t.Fatal("expected verification to fail for an expired token")
	}
}

func TestStaticHMACVerifierRejectsMissingSubject(t *testing.T) {
	v := NewStaticHMAC(testSecret, "", "")
	raw := signHS256(t, testSecret, jwt.MapClaims{
		"email": "priya@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(context.Background(), raw); err == nil {
		t.Fatal("expected verification to fail for a token without a subject")
	}
}

func TestStaticHMACVerifierChecksIssuer(t *testing.T) {
	v := NewStaticHMAC(testSecret, "https://id.example.com", "")
	good := signHS256(t, testSecret, jwt.MapClaims{
		"sub": "provider|abc123",
		"iss": "https://id.example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	bad := signHS256(t, testSecret, jwt.MapClaims{
		"sub": "provider|abc123",
		"iss": "https://evil.example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(context.Background(), good); err != nil {
		t.Fatalf("expected matching issuer to pass, got %v", err)
	}
	if _, err := v.Verify(context.Background(), bad); err == nil {
		t.Fatal("expected mismatched issuer to fail")
	}
}

func TestStaticHMACVerifierChecksAudience(t *testing.T) {
	v := NewStaticHMAC(testSecret, "", "bridge-backend")
	good := signHS256(t, testSecret, jwt.MapClaims{
		"sub": "provider|abc123",
		"aud": "bridge-backend",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	bad := signHS256(t, testSecret, jwt.MapClaims{
		"sub": "provider|abc123",
		"aud": "another-service",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(context.Background(), good); err != nil {
		t.Fatalf("expected matching audience to pass, got %v", err)
	}
	if _, err := v.Verify(context.Background(), bad); err == nil {
		t.Fatal("expected mismatched audience to fail")
	}
}

func TestStaticHMACVerifierRejectsUnsignedToken(t *testing.T) {
	v := NewStaticHMAC(testSecret, "", "")
	// Token with alg=none carries no signature at all.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "provider|abc123",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("build unsigned token: %v", err)
	}

	if _, err := v.Verify(context.Background(), unsigned); err == nil {
		t.Fatal("expected unsigned token to be rejected")
	}
}
