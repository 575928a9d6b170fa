package ports

import "context"

type AuthClaims struct {
	SubjectID string
	Role      string
	TenantID  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (AuthClaims, error)
}
