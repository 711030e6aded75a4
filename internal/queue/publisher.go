package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends cascade messages to the broker.  It is constructed with
// an explicit broker URL and passed to the services that need it, rather
// than resolved ambiently from the environment at call sites.  Each
// publish opens a short-lived connection, declares the target queue
// (idempotent, durable) and sends a persistent message; errors are logged
// and returned so callers can choose to ignore them without interrupting
// the main request flow.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher bound to the given AMQP URL.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishEventCancelled publishes an EventCancelledMessage to the
// event.cancelled queue.
func (p *Publisher) PublishEventCancelled(ctx context.Context, msg EventCancelledMessage) error {
	return p.publish(ctx, EventCancelledQueue, msg)
}

// PublishFilesDelete publishes a FilesDeleteMessage to the files.delete
// queue.
func (p *Publisher) PublishFilesDelete(ctx context.Context, msg FilesDeleteMessage) error {
	return p.publish(ctx, FilesDeleteQueue, msg)
}

func (p *Publisher) publish(ctx context.Context, queueName string, payload interface{}) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("rabbitmq: marshal message failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish to %s failed: %v", queueName, err)
		return err
	}

	return nil
}
