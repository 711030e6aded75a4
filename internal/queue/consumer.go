package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Deduper tracks which broker message IDs a consumer has already handled.
// The broker delivers at-least-once, so consumers check Seen before
// acting and Mark an ID only after the work succeeded.  Marking first
// would turn a crash mid-handling into a lost message.
type Deduper interface {
	Seen(ctx context.Context, consumer, messageID string) (bool, error)
	Mark(ctx context.Context, consumer, messageID string) error
}

// TicketCanceller bulk-cancels every non-terminal ticket of an event.
// *repository.ParticipantRepo satisfies it.
type TicketCanceller interface {
	CancelEventTickets(ctx context.Context, eventID uint64) (int64, error)
}

// RosterInvalidator drops the cached roster for an event after its
// participants change underneath the cache.
type RosterInvalidator interface {
	Invalidate(ctx context.Context, eventID uint64)
}

// CancelConsumer subscribes to the event.cancelled queue and applies the
// ticket-cancellation cascade.  Handling is idempotent twice over: the
// deduper short-circuits redelivered message IDs, and the bulk cancel
// itself only touches non-terminal tickets, so even a dedup miss cannot
// corrupt state.  Poison messages are forwarded to the dead-letter queue
// instead of being redelivered in a tight loop.
type CancelConsumer struct {
	url     string
	tickets TicketCanceller
	dedup   Deduper
	roster  RosterInvalidator
}

// NewCancelConsumer constructs a CancelConsumer.  dedup and roster may be
// nil when Redis is unavailable; the consumer then relies on the natural
// idempotency of the cascade alone.
func NewCancelConsumer(url string, tickets TicketCanceller, dedup Deduper, roster RosterInvalidator) *CancelConsumer {
	return &CancelConsumer{url: url, tickets: tickets, dedup: dedup, roster: roster}
}

// Start connects to the broker and consumes cancellation messages until
// the process exits.  It runs a reconnect loop with exponential backoff
// and keeps running through handling errors, so a broker restart never
// takes the ticket service down with it.
func (c *CancelConsumer) Start() error {
	return runConsumer("ticket-consumer", c.url, EventCancelledQueue, EventCancelledDLQ, c.handle)
}

func (c *CancelConsumer) handle(ctx context.Context, body []byte) error {
	var msg EventCancelledMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if msg.EventID == 0 {
		return errors.New("missing event_id")
	}
	if c.dedup != nil && msg.MessageID != "" {
		seen, err := c.dedup.Seen(ctx, "ticket-cancel", msg.MessageID)
		if err != nil {
			log.Printf("ticket-consumer: dedup lookup failed: %v", err)
		} else if seen {
			log.Printf("ticket-consumer: duplicate delivery of %s; skipping", msg.MessageID)
			return nil
		}
	}
	n, err := c.tickets.CancelEventTickets(ctx, msg.EventID)
	if err != nil {
		return fmt.Errorf("cancel tickets for event %d: %w", msg.EventID, err)
	}
	if c.roster != nil {
		c.roster.Invalidate(ctx, msg.EventID)
	}
	if c.dedup != nil && msg.MessageID != "" {
		if err := c.dedup.Mark(ctx, "ticket-cancel", msg.MessageID); err != nil {
			log.Printf("ticket-consumer: dedup mark failed: %v", err)
		}
	}
	log.Printf("ticket-consumer: event %d canceled; %d tickets transitioned", msg.EventID, n)
	return nil
}

// runConsumer is the shared consume loop.  It declares the queue and its
// dead-letter partner (durable), consumes with manual acks, and on a
// handler error publishes the offending body to the DLQ and acks the
// original so the queue keeps draining.
func runConsumer(name, url, queueName, dlqName string, handle func(context.Context, []byte) error) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("%s: failed to dial broker: %v; retrying in %s", name, err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(name, conn, queueName, dlqName, handle); err != nil {
			log.Printf("%s: consume loop ended: %v; reconnecting", name, err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(name string, conn *amqp.Connection, queueName, dlqName string, handle func(context.Context, []byte) error) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("%s: set QoS failed: %v", name, err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("dlq declare: %w", err)
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handle(context.Background(), d.Body); err != nil {
			log.Printf("%s: handle message failed: %v; routing to %s", name, err, dlqName)
			deadLetter(ch, dlqName, d.Body)
			_ = d.Ack(false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func deadLetter(ch *amqp.Channel, dlqName string, body []byte) {
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(context.Background(), "", dlqName, false, false, pub); err != nil {
		log.Printf("dead-letter publish to %s failed: %v", dlqName, err)
	}
}
