// Package repository defines error types that are reused across multiple
// repositories and the service layer. These sentinel values allow higher
// layers such as handlers to distinguish between failure scenarios and map
// them onto HTTP responses without inspecting error strings.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, such as inviting to or canceling someone
// else's event. Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrEventNotFound is returned when the referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrParticipantNotFound is returned when the referenced participant does
// not exist.
var ErrParticipantNotFound = errors.New("participant not found")

// ErrTicketNotFound is returned when no ticket matches the given ID or
// scan code.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrRecipientNotFound is returned when an invitation token verifies but
// no invited-user entry exists for the token's email.
var ErrRecipientNotFound = errors.New("recipient not found")

// ErrEventNotJoinable is returned when registration is attempted against a
// CANCELED or FINISHED event.
var ErrEventNotJoinable = errors.New("event not joinable")

// ErrEventUnavailable is returned when an invitation operation targets a
// canceled event or one that no longer accepts invitations.
var ErrEventUnavailable = errors.New("event unavailable")

// ErrAlreadyRegistered is returned when a (event, user) pair already has a
// participant row. The unique index on participants is the single source
// of truth for this condition under concurrent registration attempts.
var ErrAlreadyRegistered = errors.New("already registered")

// ErrCapacityExceeded is returned when an event has reached its
// max_participants ceiling.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrStateConflict is returned when an operation is invalid for the current
// lifecycle state, such as unregistering after check-in.
var ErrStateConflict = errors.New("invalid state for operation")

// ErrTokenInvalid is returned for invitation tokens with a bad signature or
// an event mismatch, and for scan codes that fail HMAC verification.
var ErrTokenInvalid = errors.New("token invalid")

// ErrTokenExpired is returned for invitation tokens past their expiry.
var ErrTokenExpired = errors.New("token expired")

// ErrUpstreamUnavailable is returned when a synchronous dependency call
// times out or fails to connect. Callers retry with backoff; handlers
// translate this into an HTTP 503 response.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")
