package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aymen-fh/bmo-care/internal/api/flash"
	"github.com/aymen-fh/bmo-care/internal/api/metrics"
	"github.com/aymen-fh/bmo-care/internal/api/middleware"
	"github.com/aymen-fh/bmo-care/internal/api/session"
	"github.com/aymen-fh/bmo-care/internal/core/domain"
	"github.com/aymen-fh/bmo-care/internal/core/ports"
	"github.com/aymen-fh/bmo-care/internal/core/service"
	"github.com/aymen-fh/bmo-care/internal/web"
)

// AuthHandler owns the login transaction and the password-recovery flows.
type AuthHandler struct {
	verifier *service.Verifier
	codec    *session.Codec
	backend  ports.IdentityAPI
	recorder ports.ActivityRecorder
	log      zerolog.Logger
}

func NewAuthHandler(verifier *service.Verifier, codec *session.Codec, backend ports.IdentityAPI, recorder ports.ActivityRecorder, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{verifier: verifier, codec: codec, backend: backend, recorder: recorder, log: log}
}

type loginRequest struct {
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// LoginPage renders the login form. The guest guard keeps signed-in users off
// this page.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", web.Page{
		Title:       "Sign in",
		BackendDown: middleware.BackendDown(c),
		Flash:       flash.Pop(c),
	})
}

// Login runs the credential verification. Success establishes the session and
// redirects home; every failure flashes its classified reason and returns to
// the login form — the response is a redirect either way.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return h.loginRejected(c, service.MsgLoginFailed, "error", req.Email)
	}
	if err := c.Validate(&req); err != nil {
		return h.loginRejected(c, service.MsgInvalidCredentials, "invalid_credentials", req.Email)
	}

	outcome, err := h.verifier.Verify(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("login verification failed")
		return h.loginRejected(c, service.MsgLoginFailed, "error", req.Email)
	}
	if !outcome.Authenticated() {
		return h.loginRejected(c, outcome.Reason, loginResultLabel(outcome.Err), req.Email)
	}

	if err := h.codec.Serialize(c, outcome.Principal); err != nil {
		h.log.Error().Err(err).Msg("session write failed after login")
		return h.loginRejected(c, service.MsgLoginFailed, "error", req.Email)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	h.recorder.Record(domain.Activity{
		Kind:       domain.ActivityLogin,
		Email:      outcome.Principal.Email,
		UserID:     outcome.Principal.ID,
		Role:       outcome.Principal.Role,
		RemoteAddr: c.RealIP(),
	})

	return c.Redirect(http.StatusFound, "/")
}

// Logout destroys the session and returns to the login page with a
// confirmation. User-initiated, as opposed to the forced logout the codec
// performs when the backend rejects a token.
func (h *AuthHandler) Logout(c echo.Context) error {
	if p := middleware.PrincipalFrom(c); p != nil {
		h.recorder.Record(domain.Activity{
			Kind:       domain.ActivityLogout,
			Email:      p.Email,
			UserID:     p.ID,
			Role:       p.Role,
			RemoteAddr: c.RealIP(),
		})
	}

	h.codec.Destroy(c)
	flash.Success(c, "You have been signed out.")
	return c.Redirect(http.StatusFound, "/auth/login")
}

// ── Password recovery (forwarded to the backend) ─────────────────────────────

func (h *AuthHandler) ForgotPasswordPage(c echo.Context) error {
	return c.Render(http.StatusOK, "forgot-password.html", web.Page{
		Title:       "Forgot password",
		BackendDown: middleware.BackendDown(c),
		Flash:       flash.Pop(c),
	})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	email := c.FormValue("email")
	if email == "" {
		flash.Error(c, "An email address is required.")
		return c.Redirect(http.StatusFound, "/auth/forgot-password")
	}

	if err := h.backend.ForgotPassword(c.Request().Context(), email); err != nil {
		flash.Error(c, backendMessage(err, "The verification code could not be sent."))
		return c.Redirect(http.StatusFound, "/auth/forgot-password")
	}

	flash.Success(c, "A verification code has been sent to your email.")
	return c.Redirect(http.StatusFound, "/auth/verify-reset")
}

func (h *AuthHandler) VerifyResetPage(c echo.Context) error {
	return c.Render(http.StatusOK, "verify-reset.html", web.Page{
		Title:       "Verify code",
		BackendDown: middleware.BackendDown(c),
		Flash:       flash.Pop(c),
	})
}

func (h *AuthHandler) VerifyReset(c echo.Context) error {
	code := c.FormValue("code")
	if code == "" {
		flash.Error(c, "The verification code is required.")
		return c.Redirect(http.StatusFound, "/auth/verify-reset")
	}

	if err := h.backend.VerifyResetToken(c.Request().Context(), code); err != nil {
		flash.Error(c, backendMessage(err, "The verification code is not valid."))
		return c.Redirect(http.StatusFound, "/auth/verify-reset")
	}

	return c.Redirect(http.StatusFound, "/auth/reset-password?token="+url.QueryEscape(code))
}

func (h *AuthHandler) ResetPasswordPage(c echo.Context) error {
	return c.Render(http.StatusOK, "reset-password.html", web.Page{
		Title:       "Reset password",
		BackendDown: middleware.BackendDown(c),
		Flash:       flash.Pop(c),
		Token:       c.QueryParam("token"),
	})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	token := c.FormValue("token")
	password := c.FormValue("password")
	confirm := c.FormValue("confirmPassword")

	back := "/auth/reset-password?token=" + url.QueryEscape(token)
	switch {
	case token == "":
		flash.Error(c, "The verification code is required.")
		return c.Redirect(http.StatusFound, "/auth/reset-password")
	case password == "":
		flash.Error(c, "A password is required.")
		return c.Redirect(http.StatusFound, back)
	case password != confirm:
		flash.Error(c, "The passwords do not match.")
		return c.Redirect(http.StatusFound, back)
	}

	if err := h.backend.ResetPassword(c.Request().Context(), token, password); err != nil {
		flash.Error(c, backendMessage(err, "The password could not be updated."))
		return c.Redirect(http.StatusFound, back)
	}

	flash.Success(c, "Your password has been updated.")
	return c.Redirect(http.StatusFound, "/auth/login")
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (h *AuthHandler) loginRejected(c echo.Context, reason, label, email string) error {
	metrics.LoginAttemptsTotal.WithLabelValues(label).Inc()
	h.recorder.Record(domain.Activity{
		Kind:       domain.ActivityLoginFailed,
		Email:      email,
		Reason:     reason,
		RemoteAddr: c.RealIP(),
	})
	flash.Error(c, reason)
	return c.Redirect(http.StatusFound, "/auth/login")
}

// loginResultLabel maps a classification sentinel to its metric label.
func loginResultLabel(err error) string {
	switch {
	case errors.Is(err, service.ErrThrottled):
		return "throttled"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrRoleNotPermitted):
		return "role_not_permitted"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "backend_unavailable"
	default:
		return "error"
	}
}

// backendMessage prefers the backend's own diagnostic, then the unavailability
// notice, then the given fallback.
func backendMessage(err error, fallback string) string {
	var be *domain.BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	if errors.Is(err, domain.ErrBackendUnavailable) {
		return service.MsgUnavailable
	}
	return fallback
}
