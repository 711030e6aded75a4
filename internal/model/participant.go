package model

import "time"

// Participant status values.  A participant stays ACTIVE for the whole
// event lifecycle; only the cancellation cascade moves it to CANCELED.
const (
	ParticipantActive   = "ACTIVE"
	ParticipantCanceled = "CANCELED"
)

// Participant records a user's registration for one event.  At most one
// participant exists per (event, user) pair, enforced by a unique index at
// the persistence layer.  Check-in/out timestamps are written by the ticket
// state machine when the paired ticket is scanned.
//
// Fields:
//  ID           – primary key identifier.
//  EventID      – event the user registered for.
//  UserID       – registered user.
//  Name         – display name captured at registration time.
//  Email        – contact address captured at registration time.
//  SessionIDs   – sessions of the event the user signed up for (JSON).
//  Status       – ACTIVE or CANCELED.
//  CheckedInAt  – first successful scan, nil until then.
//  CheckedOutAt – second successful scan, nil until then.
//  CreatedAt    – creation timestamp.
type Participant struct {
	ID           uint64     // participants.id
	EventID      uint64     // participants.event_id
	UserID       uint64     // participants.user_id
	Name         string     // participants.name
	Email        string     // participants.email
	SessionIDs   []uint64   // participants.session_ids (JSON)
	Status       string     // participants.status
	CheckedInAt  *time.Time // participants.checked_in_at (nullable)
	CheckedOutAt *time.Time // participants.checked_out_at (nullable)
	CreatedAt    time.Time  // participants.created_at
}

// RosterEntry is one row of the per-event check-in/out roster served through
// the participant cache.  It is a derived view over participants, not a
// separate store.
type RosterEntry struct {
	ParticipantID uint64  `json:"participant_id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	CheckedInAt   *string `json:"checked_in_at,omitempty"`
	CheckedOutAt  *string `json:"checked_out_at,omitempty"`
}
