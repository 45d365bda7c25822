package chat

import "time"

// Exchange is one stored turn of the dictation session.
type Exchange struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionContext is an immutable snapshot of an active session used for
// carry-over.
type SessionContext struct {
	Exchanges             []Exchange `json:"exchanges"`
	MessageCount          int        `json:"messageCount"`
	TimeSinceLastActivity string     `json:"timeSinceLastActivity"`
}

// SessionStats summarises the session for logs and the /session endpoint.
type SessionStats struct {
	Active                bool   `json:"active"`
	MessageCount          int    `json:"messageCount"`
	TimeSinceLastActivity string `json:"timeSinceLastActivity,omitempty"`
}

// SessionSnapshot is what GET /session reports: the stats plus the exchanges
// that would be carried over, which is none once the session has expired.
type SessionSnapshot struct {
	SessionStats
	Exchanges []Exchange `json:"exchanges"`
}
