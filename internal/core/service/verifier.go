package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/aymen-fh/bmo-care/internal/core/domain"
	"github.com/aymen-fh/bmo-care/internal/core/ports"
)

// User-facing rejection reasons. InvalidCredentials and unavailability must
// never share a message: a user whose password is fine should not be told it
// is wrong because the backend happened to be down.
const (
	MsgInvalidCredentials = "The email or password is incorrect."
	MsgUnavailable        = "The server is currently unavailable. Please try again in a minute."
	MsgRoleNotPermitted   = "This account is not allowed to sign in to this portal."
	MsgTooManyAttempts    = "Too many failed attempts. Please wait a few minutes and try again."
	MsgLoginFailed        = "Something went wrong while signing in. Please try again."
)

// minTokenLength guards against backends that report success without issuing
// a usable credential.
const minTokenLength = 10

// ErrThrottled classifies a rejection caused by the attempt throttle rather
// than by the backend.
var ErrThrottled = errors.New("too many failed login attempts")

// LoginOutcome is the three-way result of a verification attempt: an
// authenticated principal, or a rejection with a user-displayable reason.
// A separate error return covers the fatal case.
type LoginOutcome struct {
	Principal *domain.Principal
	Reason    string
	Err       error // classification sentinel for logging/metrics, nil on success
}

// Authenticated reports whether the attempt produced a principal.
func (o LoginOutcome) Authenticated() bool { return o.Principal != nil }

// Verifier exchanges an email/password pair for a backend-issued identity,
// classifying every failure into a fixed taxonomy.
type Verifier struct {
	backend  ports.IdentityAPI
	throttle ports.LoginThrottle
	log      zerolog.Logger
}

// NewVerifier creates a Verifier. throttle may be nil to disable attempt
// throttling.
func NewVerifier(backend ports.IdentityAPI, throttle ports.LoginThrottle, log zerolog.Logger) *Verifier {
	return &Verifier{backend: backend, throttle: throttle, log: log}
}

// Verify runs the login transaction. On success the bearer token is already
// embedded in the returned Principal; it is never handed around separately.
func (v *Verifier) Verify(ctx context.Context, email, password string) (LoginOutcome, error) {
	if locked := v.locked(ctx, email); locked {
		return LoginOutcome{Reason: MsgTooManyAttempts, Err: ErrThrottled}, nil
	}

	res, err := v.backend.Login(ctx, email, password)
	if err != nil {
		return v.classify(ctx, email, err), nil
	}

	// Some backend deployments omit the success flag but still issue a
	// token; either signal counts, an identity payload is mandatory.
	loginOk := res.Success || len(res.Token) > minTokenLength
	if !loginOk || res.User == nil {
		reason := res.Message
		if reason == "" {
			reason = MsgLoginFailed
		}
		v.recordFailure(ctx, email)
		return LoginOutcome{Reason: reason, Err: domain.ErrInvalidCredentials}, nil
	}

	// The backend considers the login valid, but a role outside the portal
	// set (e.g. parent) belongs to a different client.
	if !domain.RoleAllowed(res.User.Role) {
		v.log.Warn().Str("email", email).Str("role", res.User.Role).Msg("login rejected: role not permitted")
		return LoginOutcome{Reason: MsgRoleNotPermitted, Err: domain.ErrRoleNotPermitted}, nil
	}

	principal := *res.User
	principal.Token = res.Token
	v.clearFailures(ctx, email)

	return LoginOutcome{Principal: &principal}, nil
}

// classify maps a failed backend call to a rejection. Transport failures and
// gateway errors are "service unavailable", a 401 is "wrong credentials", and
// anything else passes the backend's own message through as a best-effort
// diagnostic.
func (v *Verifier) classify(ctx context.Context, email string, err error) LoginOutcome {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		v.recordFailure(ctx, email)
		return LoginOutcome{Reason: MsgInvalidCredentials, Err: domain.ErrInvalidCredentials}

	case errors.Is(err, domain.ErrBackendUnavailable):
		v.log.Warn().Err(err).Msg("login failed: backend unavailable")
		return LoginOutcome{Reason: MsgUnavailable, Err: domain.ErrBackendUnavailable}
	}

	var be *domain.BackendError
	if errors.As(err, &be) && be.Message != "" {
		return LoginOutcome{Reason: be.Message, Err: err}
	}

	v.log.Error().Err(err).Msg("login failed: unclassified error")
	return LoginOutcome{Reason: MsgLoginFailed, Err: err}
}

// Throttle helpers fail open: a broken counter must never lock users out.

func (v *Verifier) locked(ctx context.Context, email string) bool {
	if v.throttle == nil {
		return false
	}
	locked, err := v.throttle.TooManyFailures(ctx, email)
	if err != nil {
		v.log.Warn().Err(err).Msg("login throttle check failed")
		return false
	}
	return locked
}

func (v *Verifier) recordFailure(ctx context.Context, email string) {
	if v.throttle == nil {
		return
	}
	if err := v.throttle.RecordFailure(ctx, email); err != nil {
		v.log.Warn().Err(err).Msg("login throttle record failed")
	}
}

func (v *Verifier) clearFailures(ctx context.Context, email string) {
	if v.throttle == nil {
		return
	}
	if err := v.throttle.Clear(ctx, email); err != nil {
		v.log.Warn().Err(err).Msg("login throttle clear failed")
	}
}
