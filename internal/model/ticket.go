package model

import "time"

// Ticket status values.  Transitions move strictly forward:
// ACTIVE -> CHECKED_IN -> CHECKED_OUT, and CANCELED is reachable from any
// non-terminal state.  CHECKED_OUT and CANCELED are terminal.
const (
	TicketActive     = "ACTIVE"
	TicketCheckedIn  = "CHECKED_IN"
	TicketCheckedOut = "CHECKED_OUT"
	TicketCanceled   = "CANCELED"
)

// Ticket is the scannable credential tied 1:1 to a participant.  It is
// created atomically with its participant and carries the opaque QR code
// that gets printed into the physical QR image.
//
// Fields:
//  ID            – primary key identifier.
//  ParticipantID – owning participant (1:1).
//  QRCode        – opaque HMAC-signed token; the only scannable value.
//  Status        – ACTIVE, CHECKED_IN, CHECKED_OUT or CANCELED.
//  UsedAt        – set when the ticket reaches CHECKED_OUT.
//  CreatedAt     – creation timestamp.
type Ticket struct {
	ID            uint64     // tickets.id
	ParticipantID uint64     // tickets.participant_id
	QRCode        string     // tickets.qr_code
	Status        string     // tickets.status
	UsedAt        *time.Time // tickets.used_at (nullable)
	CreatedAt     time.Time  // tickets.created_at
}

// TicketFinalized reports whether a ticket is in a terminal state, meaning
// a scan has nothing left to do.  Repeated scans of a finalized ticket are
// harmless no-ops, not errors.
func TicketFinalized(status string) bool {
	return status == TicketCheckedOut || status == TicketCanceled
}
