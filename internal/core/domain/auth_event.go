package domain

import "time"

// AuthEventType names the auth operation an AuthEvent records.
type AuthEventType string

const (
	AuthEventRegister AuthEventType = "register"
	AuthEventLogin    AuthEventType = "login"
)

// AuthEvent is one entry of the authentication audit trail.
type AuthEvent struct {
	Type       AuthEventType
	Username   string
	Success    bool
	Reason     string // server-side diagnostic only
	RemoteIP   string
	OccurredAt time.Time
}
