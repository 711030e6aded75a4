// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the idempotent consumers.
package queue

// Queue names.  Each cascade queue has a paired dead-letter queue where
// poison messages land after a failed handling attempt.
const (
	EventCancelledQueue = "event.cancelled"
	EventCancelledDLQ   = "event.cancelled.dlq"
	FilesDeleteQueue    = "files.delete"
	FilesDeleteDLQ      = "files.delete.dlq"
)

// EventCancelledMessage is published by the event service after an event
// flips to CANCELED.  The ticket service consumes it and bulk-cancels all
// non-terminal tickets for the event.  MessageID feeds consumer-side
// deduplication under at-least-once delivery.
type EventCancelledMessage struct {
	MessageID  string `json:"message_id"`
	EventID    uint64 `json:"event_id"`
	CanceledAt string `json:"canceled_at"`
}

// FilesDeleteMessage is published by the event service when attachments
// are replaced.  The file service consumes it and removes the orphaned
// assets and their records by reverse URL lookup.
type FilesDeleteMessage struct {
	MessageID string   `json:"message_id"`
	URLs      []string `json:"urls"`
	VideoURL  *string  `json:"video_url,omitempty"`
}
