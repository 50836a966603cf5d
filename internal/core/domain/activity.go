package domain

import "time"

// Activity event kinds recorded by the sign-in audit trail.
const (
	ActivityLogin       = "login"
	ActivityLoginFailed = "login_failed"
	ActivityLogout      = "logout"
)

// Activity is one entry of the sign-in audit trail.
type Activity struct {
	Kind       string    `json:"kind"`
	Email      string    `json:"email"`
	UserID     string    `json:"user_id,omitempty"`
	Role       string    `json:"role,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
