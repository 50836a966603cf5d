package ports

import (
	"context"

	"github.com/aymen-fh/bmo-care/internal/core/domain"
)

// LoginResult is the backend's answer to a login call that reached it.
// Success and Token are checked together: some backend deployments omit the
// success flag but still issue a token.
type LoginResult struct {
	Success bool
	Message string
	Token   string
	User    *domain.Principal
}

// IdentityAPI is the slice of the backend consumed by the identity bridge.
// Implementations classify failures into the domain error taxonomy so that
// callers only ever branch on errors.Is against the domain sentinels.
type IdentityAPI interface {
	// Login exchanges credentials for a token and identity.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Me re-validates a bearer token and returns the fresh identity
	// (without the token; the caller reattaches the original).
	Me(ctx context.Context, token string) (*domain.Principal, error)

	// Password recovery, forwarded verbatim to the backend.
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, code string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}
