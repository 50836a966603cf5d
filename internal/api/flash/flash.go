// Package flash stores one-shot notices in the session, surfaced on the next
// rendered page and cleared on read.
package flash

import (
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	portalsession "github.com/aymen-fh/bmo-care/internal/api/session"
)

const (
	keySuccess = "success_msg"
	keyError   = "error_msg"
)

// Messages holds the notices popped for a render.
type Messages struct {
	Success []string
	Error   []string
}

// Success queues a confirmation notice.
func Success(c echo.Context, msg string) {
	add(c, keySuccess, msg)
}

// Error queues an error notice.
func Error(c echo.Context, msg string) {
	add(c, keyError, msg)
}

// Pop returns and clears all queued notices.
func Pop(c echo.Context) Messages {
	sess, _ := echosession.Get(portalsession.Name, c)
	if sess == nil {
		return Messages{}
	}

	msgs := Messages{
		Success: asStrings(sess.Flashes(keySuccess)),
		Error:   asStrings(sess.Flashes(keyError)),
	}
	if len(msgs.Success) > 0 || len(msgs.Error) > 0 {
		_ = sess.Save(c.Request(), c.Response())
	}
	return msgs
}

func add(c echo.Context, key, msg string) {
	sess, _ := echosession.Get(portalsession.Name, c)
	if sess == nil {
		return
	}
	sess.AddFlash(msg, key)
	_ = sess.Save(c.Request(), c.Response())
}

func asStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
