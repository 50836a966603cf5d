package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aymen-fh/bmo-care/internal/core/domain"
	"github.com/aymen-fh/bmo-care/internal/core/ports"
)

type stubIdentityAPI struct {
	loginResult *ports.LoginResult
	loginErr    error
}

func (s *stubIdentityAPI) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubIdentityAPI) Me(ctx context.Context, token string) (*domain.Principal, error) {
	return nil, errors.New("not implemented")
}

func (s *stubIdentityAPI) ForgotPassword(ctx context.Context, email string) error { return nil }
func (s *stubIdentityAPI) VerifyResetToken(ctx context.Context, code string) error {
	return nil
}
func (s *stubIdentityAPI) ResetPassword(ctx context.Context, token, newPassword string) error {
	return nil
}

type fakeThrottle struct {
	locked   bool
	checkErr error
	failures int
	cleared  int
}

func (f *fakeThrottle) TooManyFailures(ctx context.Context, email string) (bool, error) {
	return f.locked, f.checkErr
}

func (f *fakeThrottle) RecordFailure(ctx context.Context, email string) error {
	f.failures++
	return nil
}

func (f *fakeThrottle) Clear(ctx context.Context, email string) error {
	f.cleared++
	return nil
}

func TestVerify_Success(t *testing.T) {
	backend := &stubIdentityAPI{loginResult: &ports.LoginResult{
		Success: true,
		Token:   "tok-abcdefghij",
		User:    &domain.Principal{ID: "u1", Email: "sara@example.com", Role: domain.RoleSpecialist},
	}}
	throttle := &fakeThrottle{}

	out, err := NewVerifier(backend, throttle, zerolog.Nop()).Verify(context.Background(), "sara@example.com", "pw")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !out.Authenticated() {
		t.Fatalf("expected authenticated outcome, got reason %q", out.Reason)
	}
	if out.Principal.Token != "tok-abcdefghij" {
		t.Fatalf("token must be embedded in the principal, got %q", out.Principal.Token)
	}
	if throttle.cleared != 1 {
		t.Fatalf("successful login must clear the failure counter, got %d clears", throttle.cleared)
	}
}

func TestVerify_TokenOnlySuccess(t *testing.T) {
	// Some backend deployments omit the success flag but issue a token.
	backend := &stubIdentityAPI{loginResult: &ports.LoginResult{
		Token: "tok-abcdefghij",
		User:  &domain.Principal{ID: "u1", Role: domain.RoleAdmin},
	}}

	out, err := NewVerifier(backend, nil, zerolog.Nop()).Verify(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !out.Authenticated() {
		t.Fatalf("a long token without the success flag must still authenticate")
	}
}

func TestVerify_ShortTokenWithoutSuccessIsRejected(t *testing.T) {
	backend := &stubIdentityAPI{loginResult: &ports.LoginResult{
		Token: "short",
		User:  &domain.Principal{ID: "u1", Role: domain.RoleAdmin},
	}}
	throttle := &fakeThrottle{}

	out, err := NewVerifier(backend, throttle, zerolog.Nop()).Verify(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if out.Authenticated() {
		t.Fatalf("short token without success flag must not authenticate")
	}
	if throttle.failures != 1 {
		t.Fatalf("rejected login must record a failure, got %d", throttle.failures)
	}
}

func TestVerify_RoleNotPermitted(t *testing.T) {
	backend := &stubIdentityAPI{loginResult: &ports.LoginResult{
		Success: true,
		Token:   "tok-abcdefghij",
		User:    &domain.Principal{ID: "u1", Role: "parent"},
	}}

	out, err := NewVerifier(backend, nil, zerolog.Nop()).Verify(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if out.Authenticated() {
		t.Fatalf("parent role must not sign in to the portal")
	}
	if out.Reason != MsgRoleNotPermitted {
		t.Fatalf("reason = %q, want %q", out.Reason, MsgRoleNotPermitted)
	}
	if !errors.Is(out.Err, domain.ErrRoleNotPermitted) {
		t.Fatalf("classification = %v, want ErrRoleNotPermitted", out.Err)
	}
}

func TestVerify_InvalidCredentials(t *testing.T) {
	backend := &stubIdentityAPI{loginErr: &domain.BackendError{
		Status:  401,
		Message: "wrong password",
		Class:   domain.ErrInvalidCredentials,
	}}
	throttle := &fakeThrottle{}

	out, err := NewVerifier(backend, throttle, zerolog.Nop()).Verify(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if out.Reason != MsgInvalidCredentials {
		t.Fatalf("reason = %q, want %q", out.Reason, MsgInvalidCredentials)
	}
	if throttle.failures != 1 {
		t.Fatalf("invalid credentials must record a failure, got %d", throttle.failures)
	}
}

func TestVerify_BackendUnavailableHasDistinctMessage(t *testing.T) {
	backend := &stubIdentityAPI{loginErr: domain.ErrBackendUnavailable}

	out, err := NewVerifier(backend, nil, zerolog.Nop()).Verify(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if out.Reason != MsgUnavailable {
		t.Fatalf("reason = %q, want %q", out.Reason, MsgUnavailable)
	}
	if out.Reason == MsgInvalidCredentials {
		t.Fatalf("an outage must never be reported as wrong credentials")
	}
}

func TestVerify_UnclassifiedErrorPassesBackendMessageThrough(t *testing.T) {
	backend := &stubIdentityAPI{loginErr: &domain.BackendError{
		Status:  422,
		Message: "account suspended",
	}}

	out, err := NewVerifier(backend, nil, zerolog.Nop()).Verify(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if out.Reason != "account suspended" {
		t.Fatalf("reason = %q, want the backend's own message", out.Reason)
	}
}

func TestVerify_UnclassifiedErrorWithoutMessageFallsBack(t *testing.T) {
	backend := &stubIdentityAPI{loginErr: errors.New("boom")}

	out, err := NewVerifier(backend, nil, zerolog.Nop()).Verify(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if out.Reason != MsgLoginFailed {
		t.Fatalf("reason = %q, want %q", out.Reason, MsgLoginFailed)
	}
}

func TestVerify_Throttled(t *testing.T) {
	backend := &stubIdentityAPI{loginResult: &ports.LoginResult{Success: true, Token: "tok-abcdefghij", User: &domain.Principal{Role: domain.RoleAdmin}}}
	throttle := &fakeThrottle{locked: true}

	out, err := NewVerifier(backend, throttle, zerolog.Nop()).Verify(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if out.Authenticated() {
		t.Fatalf("a locked account must not reach the backend at all")
	}
	if out.Reason != MsgTooManyAttempts {
		t.Fatalf("reason = %q, want %q", out.Reason, MsgTooManyAttempts)
	}
	if !errors.Is(out.Err, ErrThrottled) {
		t.Fatalf("classification = %v, want ErrThrottled", out.Err)
	}
}

func TestVerify_ThrottleErrorFailsOpen(t *testing.T) {
	backend := &stubIdentityAPI{loginResult: &ports.LoginResult{
		Success: true,
		Token:   "tok-abcdefghij",
		User:    &domain.Principal{ID: "u1", Role: domain.RoleAdmin},
	}}
	throttle := &fakeThrottle{checkErr: errors.New("redis down")}

	out, err := NewVerifier(backend, throttle, zerolog.Nop()).Verify(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !out.Authenticated() {
		t.Fatalf("a broken throttle must never lock users out")
	}
}
