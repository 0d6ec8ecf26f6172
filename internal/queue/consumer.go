package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/slotwise/platform/internal/model"
	"github.com/slotwise/platform/internal/repository"
	"github.com/slotwise/platform/internal/service"
)

const paymentQueueName = "payment.events"

// TenantLookup resolves a tenant ID to its record so the consumer can
// verify event signatures with the right webhook secret.
type TenantLookup interface {
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
}

// Gate is the ingestion entry point the consumer feeds. It is the same
// two-phase gate the HTTP webhook uses, so both delivery channels share
// one idempotency boundary.
type Gate interface {
	Ingest(ctx context.Context, tenant *model.Tenant, signature string, payload []byte) (service.IngestOutcome, error)
}

// Consumer drains the payment.events queue, an at-least-once delivery
// channel for payment confirmations. Every message passes through the
// ingestion gate; duplicates are acknowledged like first deliveries so
// broker redeliveries never pile up. Malformed or unverifiable messages
// are rejected without requeue to avoid tight redelivery loops, but a
// delivery that failed before anything was durably recorded (storage or
// tenant lookup outage) is requeued, preserving at-least-once delivery.
type Consumer struct {
	url     string
	tenants TenantLookup
	gate    Gate
	log     zerolog.Logger
}

// NewConsumer builds a Consumer using the RABBITMQ_URL / AMQP_URL
// environment variables for the broker address.
func NewConsumer(tenants TenantLookup, gate Gate, log zerolog.Logger) *Consumer {
	return &Consumer{url: brokerURL(), tenants: tenants, gate: gate, log: log}
}

// Run connects to RabbitMQ, declares the payment.events queue (durable),
// and consumes until the context is cancelled. It runs a reconnect loop
// with exponential backoff so a broker restart only pauses ingestion.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("payment-consumer: dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(ctx, conn); err != nil {
			c.log.Warn().Err(err).Msg("payment-consumer: consume loop ended, reconnecting")
			_ = conn.Close()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("payment-consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(paymentQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(paymentQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			requeue, err := c.handleMessage(ctx, d.Body)
			if err != nil {
				c.log.Warn().Err(err).Bool("requeue", requeue).Msg("payment-consumer: message not settled")
				_ = d.Nack(false, requeue)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// handleMessage feeds one delivery through the gate. A nil error means
// the broker may consider the delivery settled, which covers Accepted
// and Duplicate alike, since redelivering either would change nothing.
// On error, requeue reports whether the delivery should be retried:
// true when nothing was durably recorded and the failure is transient,
// false when the message itself can never succeed.
func (c *Consumer) handleMessage(ctx context.Context, body []byte) (requeue bool, err error) {
	var msg PaymentEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return false, fmt.Errorf("unmarshal envelope: %w", err)
	}
	tenant, err := c.tenants.GetByID(ctx, msg.TenantID)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return false, fmt.Errorf("resolve tenant %q: %w", msg.TenantID, err)
		}
		// Lookup outage: the tenant may well exist, retry the delivery.
		return true, fmt.Errorf("resolve tenant %q: %w", msg.TenantID, err)
	}
	outcome, err := c.gate.Ingest(ctx, tenant, msg.Signature, msg.Payload)
	switch outcome {
	case service.OutcomeRejected:
		return false, fmt.Errorf("ingest rejected: %w", err)
	case service.OutcomeUnavailable:
		return true, fmt.Errorf("ingest unavailable: %w", err)
	}
	return false, nil
}
