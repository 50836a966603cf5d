// Package session freezes the authenticated Principal into the cookie-backed
// browser session at login and re-hydrates it against the backend on every
// subsequent request, bridging the backend's stateless bearer tokens and the
// portal's stateful sessions.
package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aymen-fh/bmo-care/internal/api/metrics"
	"github.com/aymen-fh/bmo-care/internal/core/domain"
	"github.com/aymen-fh/bmo-care/internal/core/ports"
)

// Name is the session cookie name, shared with the flash helpers.
const Name = "bmo_portal"

const principalKey = "principal"

// Codec serializes a Principal into the session record and re-hydrates it.
type Codec struct {
	backend ports.IdentityAPI
	ttl     time.Duration
	log     zerolog.Logger
}

// NewCodec creates a Codec refreshing identities through backend. ttl bounds
// the session cookie.
func NewCodec(backend ports.IdentityAPI, ttl time.Duration, log zerolog.Logger) *Codec {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Codec{backend: backend, ttl: ttl, log: log}
}

// Serialize freezes the full principal, token included, into the session
// record. The record is overwritten, never merged. No backend call is made:
// session-payload size is traded for read simplicity.
func (cd *Codec) Serialize(c echo.Context, p *domain.Principal) error {
	sess, err := echosession.Get(Name, c)
	if sess == nil {
		return err
	}

	blob, err := json.Marshal(p)
	if err != nil {
		return err
	}

	sess.Values[principalKey] = string(blob)
	sess.Options = cd.cookieOptions(int(cd.ttl.Seconds()))
	return sess.Save(c.Request(), c.Response())
}

// Deserialize resolves the session to the current Principal, or nil when the
// request is effectively logged out:
//
//   - no stored principal, or one without a token → nil, no backend call;
//   - backend confirms the token → fresh identity with the original token
//     reattached (the backend does not rotate tokens here), session overwritten;
//   - backend rejects the token (401/403) → session destroyed, nil;
//   - backend unreachable or any other failure → the stale stored principal,
//     so a backend hiccup degrades the page instead of bouncing a valid user
//     to the login screen. The stale identity is exactly the one previously
//     issued at login, never derived from request input.
func (cd *Codec) Deserialize(c echo.Context) *domain.Principal {
	stored := cd.stored(c)
	if !stored.CanRefresh() {
		if stored != nil {
			metrics.SessionRefreshTotal.WithLabelValues("logged_out").Inc()
		}
		return nil
	}

	fresh, err := cd.backend.Me(c.Request().Context(), stored.Token)
	switch {
	case err == nil:
		fresh.Token = stored.Token
		if err := cd.Serialize(c, fresh); err != nil {
			cd.log.Warn().Err(err).Msg("session refresh write failed")
		}
		metrics.SessionRefreshTotal.WithLabelValues("fresh").Inc()
		return fresh

	case errors.Is(err, domain.ErrTokenRejected):
		cd.log.Info().Str("user_id", stored.ID).Msg("bearer token rejected, forcing logout")
		cd.Destroy(c)
		metrics.SessionRefreshTotal.WithLabelValues("forced_logout").Inc()
		return nil

	default:
		cd.log.Warn().Err(err).Str("user_id", stored.ID).Msg("session refresh failed, keeping stale identity")
		metrics.SessionRefreshTotal.WithLabelValues("stale").Inc()
		return stored
	}
}

// Destroy removes the identity from the session record. The cookie itself
// stays alive so a flash notice queued right after ("you have been signed
// out") still reaches the next page.
func (cd *Codec) Destroy(c echo.Context) {
	sess, _ := echosession.Get(Name, c)
	if sess == nil {
		return
	}
	delete(sess.Values, principalKey)
	sess.Options = cd.cookieOptions(int(cd.ttl.Seconds()))
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		cd.log.Warn().Err(err).Msg("session destroy failed")
	}
}

// stored reads the frozen principal from the session record, nil when absent
// or unreadable.
func (cd *Codec) stored(c echo.Context) *domain.Principal {
	sess, _ := echosession.Get(Name, c)
	if sess == nil {
		return nil
	}
	raw, ok := sess.Values[principalKey].(string)
	if !ok || raw == "" {
		return nil
	}

	var p domain.Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		cd.log.Warn().Err(err).Msg("unreadable principal in session, treating as logged out")
		return nil
	}
	return &p
}

func (cd *Codec) cookieOptions(maxAge int) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
