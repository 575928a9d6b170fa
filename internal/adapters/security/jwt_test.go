package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viralforge/invoicing-service/internal/domain"
	"github.com/viralforge/invoicing-service/internal/ports"
)

func TestSignAndVerify(t *testing.T) {
	t.Parallel()
	v, err := NewHMACVerifier("secret-1", "issuer-1")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	raw, err := v.Sign(ports.AuthClaims{SubjectID: "user-1", Role: "Admin", TenantID: "tenant-1"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := v.Verify(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.SubjectID != "user-1" || claims.TenantID != "tenant-1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	t.Parallel()
	v, _ := NewHMACVerifier("secret-1", "issuer-1")
	other, _ := NewHMACVerifier("secret-2", "issuer-1")
	otherIssuer, _ := NewHMACVerifier("secret-1", "issuer-2")

	wrongKey, _ := other.Sign(ports.AuthClaims{SubjectID: "u", TenantID: "t"}, time.Hour)
	wrongIssuer, _ := otherIssuer.Sign(ports.AuthClaims{SubjectID: "u", TenantID: "t"}, time.Hour)
	noTenant, _ := v.Sign(ports.AuthClaims{SubjectID: "u"}, time.Hour)
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, invoicingClaims{
		TenantID: "t",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			Issuer:    "issuer-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte("secret-1"))
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u", "tenant_id": "t"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, raw := range map[string]string{
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"no tenant":    noTenant,
		"expired":      expired,
		"none alg":     noneAlg,
		"garbage":      "not-a-token",
	} {
		if _, err := v.Verify(context.Background(), raw); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("%s: expected unauthorized, got %v", name, err)
		}
	}
}

func TestNewHMACVerifierRequiresSecret(t *testing.T) {
	t.Parallel()
	if _, err := NewHMACVerifier(" ", ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
