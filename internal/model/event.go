package model

import "time"

// Event status values.  SCHEDULED is the only state in which invitations
// can be issued and participants can register.  CANCELED and FINISHED are
// terminal for participation purposes.
const (
	EventScheduled = "SCHEDULED"
	EventCanceled  = "CANCELED"
	EventFinished  = "FINISHED"
)

// Invitation status values stored per invited user.  PENDING is the only
// non-terminal state; redeeming an invitation moves it to ACCEPTED or
// DECLINED exactly once.
const (
	InvitePending  = "PENDING"
	InviteAccepted = "ACCEPTED"
	InviteDeclined = "DECLINED"
)

// Event is owned and mutated only by the event service.  Other services
// read it through the event summary endpoint.
//
// Fields:
//  ID              – primary key identifier.
//  OwnerID         – user who created the event (the organizer).
//  Title           – display title.
//  Status          – SCHEDULED, CANCELED or FINISHED.
//  MaxParticipants – capacity ceiling for registrations.
//  ImageURLs       – attachment image URLs (stored as JSON).
//  VideoURL        – optional attachment video URL.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Event struct {
	ID              uint64    // events.id
	OwnerID         uint64    // events.owner_id
	Title           string    // events.title
	Status          string    // events.status
	MaxParticipants uint32    // events.max_participants
	ImageURLs       []string  // events.image_urls (JSON)
	VideoURL        *string   // events.video_url (nullable)
	CreatedAt       time.Time // events.created_at
	UpdatedAt       time.Time // events.updated_at
}

// InvitedUser is one entry of an event's invitation list.  The (event, email)
// pair is unique; redeeming the emailed token flips Status from PENDING to a
// terminal value.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event the invitation belongs to.
//  Email     – recipient address, lower-cased.
//  UserID    – recipient user, when known at issue time.
//  Status    – PENDING, ACCEPTED or DECLINED.
//  CreatedAt – creation timestamp.
type InvitedUser struct {
	ID        uint64    // event_invites.id
	EventID   uint64    // event_invites.event_id
	Email     string    // event_invites.email
	UserID    *uint64   // event_invites.user_id (nullable)
	Status    string    // event_invites.status
	CreatedAt time.Time // event_invites.created_at
}

// EventSummary is the cross-service read model served by the event service
// and consumed by the ticket service before registering participants.  It
// carries only what the registrar needs to validate a registration.
type EventSummary struct {
	ID              uint64 `json:"id"`
	OwnerID         uint64 `json:"owner_id"`
	Status          string `json:"status"`
	MaxParticipants uint32 `json:"max_participants"`
}
