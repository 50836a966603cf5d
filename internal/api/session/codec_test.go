package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aymen-fh/bmo-care/internal/core/domain"
	"github.com/aymen-fh/bmo-care/internal/core/ports"
)

type stubBackend struct {
	me      *domain.Principal
	meErr   error
	meCalls int
}

func (s *stubBackend) Me(ctx context.Context, token string) (*domain.Principal, error) {
	s.meCalls++
	if s.meErr != nil {
		return nil, s.meErr
	}
	fresh := *s.me
	return &fresh, nil
}

func (s *stubBackend) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubBackend) ForgotPassword(ctx context.Context, email string) error    { return nil }
func (s *stubBackend) VerifyResetToken(ctx context.Context, code string) error   { return nil }
func (s *stubBackend) ResetPassword(ctx context.Context, token, pw string) error { return nil }

// run executes fn inside the cookie-session middleware, the way requests see
// the codec in production.
func run(t *testing.T, store sessions.Store, req *http.Request, fn echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := echosession.Middleware(store)(fn)(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func carryCookies(req *http.Request, rec *httptest.ResponseRecorder) {
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}
}

func TestDeserialize_NoSessionIsLoggedOut(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret"))
	backend := &stubBackend{}
	codec := NewCodec(backend, time.Hour, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	run(t, store, req, func(c echo.Context) error {
		if p := codec.Deserialize(c); p != nil {
			t.Fatalf("expected nil principal, got %+v", p)
		}
		return nil
	})
	if backend.meCalls != 0 {
		t.Fatalf("logged-out request must not hit the backend, got %d calls", backend.meCalls)
	}
}

func TestDeserialize_StoredPrincipalWithoutTokenIsLoggedOut(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret"))
	backend := &stubBackend{}
	codec := NewCodec(backend, time.Hour, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := run(t, store, req, func(c echo.Context) error {
		return codec.Serialize(c, &domain.Principal{ID: "u1", Role: domain.RoleAdmin})
	})

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	carryCookies(req2, rec)
	run(t, store, req2, func(c echo.Context) error {
		if p := codec.Deserialize(c); p != nil {
			t.Fatalf("tokenless principal must deserialize to nil, got %+v", p)
		}
		return nil
	})
	if backend.meCalls != 0 {
		t.Fatalf("tokenless session must not hit the backend, got %d calls", backend.meCalls)
	}
}

func TestDeserialize_RefreshReattachesToken(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret"))
	backend := &stubBackend{me: &domain.Principal{ID: "u1", Name: "Sara Updated", Role: domain.RoleAdmin}}
	codec := NewCodec(backend, time.Hour, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := run(t, store, req, func(c echo.Context) error {
		return codec.Serialize(c, &domain.Principal{ID: "u1", Name: "Sara", Role: domain.RoleAdmin, Token: "tok-1"})
	})

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	carryCookies(req2, rec)
	run(t, store, req2, func(c echo.Context) error {
		p := codec.Deserialize(c)
		if p == nil {
			t.Fatalf("expected a refreshed principal")
		}
		if p.Name != "Sara Updated" {
			t.Fatalf("expected the backend's fresh identity, got %+v", p)
		}
		if p.Token != "tok-1" {
			t.Fatalf("original token must be reattached, got %q", p.Token)
		}
		return nil
	})
	if backend.meCalls != 1 {
		t.Fatalf("expected exactly one refresh call, got %d", backend.meCalls)
	}
}

func TestDeserialize_RejectedTokenDestroysSession(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret"))
	backend := &stubBackend{meErr: &domain.BackendError{Status: 403, Class: domain.ErrTokenRejected}}
	codec := NewCodec(backend, time.Hour, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := run(t, store, req, func(c echo.Context) error {
		return codec.Serialize(c, &domain.Principal{ID: "u1", Role: domain.RoleAdmin, Token: "tok-expired"})
	})

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	carryCookies(req2, rec)
	rec2 := run(t, store, req2, func(c echo.Context) error {
		if p := codec.Deserialize(c); p != nil {
			t.Fatalf("rejected token must log the user out, got %+v", p)
		}
		return nil
	})

	// The cleared session must stay cleared on the next request without any
	// further backend traffic.
	backend.meErr = nil
	backend.me = &domain.Principal{ID: "u1"}
	calls := backend.meCalls

	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	carryCookies(req3, rec2)
	run(t, store, req3, func(c echo.Context) error {
		if p := codec.Deserialize(c); p != nil {
			t.Fatalf("destroyed session must stay logged out, got %+v", p)
		}
		return nil
	})
	if backend.meCalls != calls {
		t.Fatalf("destroyed session must not hit the backend")
	}
}

func TestDeserialize_BackendOutageKeepsStaleIdentity(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret"))
	backend := &stubBackend{meErr: fmt.Errorf("%w: connection refused", domain.ErrBackendUnavailable)}
	codec := NewCodec(backend, time.Hour, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := run(t, store, req, func(c echo.Context) error {
		return codec.Serialize(c, &domain.Principal{ID: "u1", Name: "Sara", Role: domain.RoleSpecialist, Token: "tok-1"})
	})

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	carryCookies(req2, rec)
	run(t, store, req2, func(c echo.Context) error {
		p := codec.Deserialize(c)
		if p == nil {
			t.Fatalf("backend outage must not log the user out")
		}
		if p.ID != "u1" || p.Name != "Sara" || p.Token != "tok-1" {
			t.Fatalf("expected the stale stored identity verbatim, got %+v", p)
		}
		return nil
	})
}

func TestDeserialize_MalformedRefreshBodyKeepsStaleIdentity(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret"))
	backend := &stubBackend{meErr: &domain.BackendError{Status: 200, Message: "identity missing from response"}}
	codec := NewCodec(backend, time.Hour, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := run(t, store, req, func(c echo.Context) error {
		return codec.Serialize(c, &domain.Principal{ID: "u1", Role: domain.RoleAdmin, Token: "tok-1"})
	})

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	carryCookies(req2, rec)
	run(t, store, req2, func(c echo.Context) error {
		if p := codec.Deserialize(c); p == nil || p.ID != "u1" {
			t.Fatalf("a malformed refresh body must fall back to the stale identity, got %+v", p)
		}
		return nil
	})
}
