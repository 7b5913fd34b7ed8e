package event

import "time"

const (
	// EventSessionsRotated identifies a bulk QR rotation for a restaurant.
	EventSessionsRotated = "qr.sessions.rotated"
	// EventSessionIssued identifies a fresh QR session for a single table.
	EventSessionIssued = "qr.session.issued"
)

// SessionsRotatedEvent tells staff screens how many tables received new codes.
type SessionsRotatedEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Count      int       `json:"count"`
}

// SessionIssuedEvent tells staff screens a table printed or displayed a new code.
type SessionIssuedEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	TableID    string    `json:"table_id"`
}
