// Package service holds side-effecting collaborators used by handlers,
// currently the booking event publisher.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/krizzk/be-koszhunter/internal/queue"
)

// Publisher pushes booking events to RabbitMQ. Publishing is best
// effort; a broker outage must never fail the confirmation itself.
type Publisher struct {
	url string
	log *logrus.Logger
}

func NewPublisher(url string, log *logrus.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// PublishBookingConfirmed publishes a persistent message to the durable
// booking.confirmed queue. Errors are logged, not returned.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) {
	if p == nil || p.url == "" {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.WithError(err).Error("failed to encode booking event")
		return
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.WithError(err).Warn("failed to connect to broker, event dropped")
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		p.log.WithError(err).Warn("failed to open channel, event dropped")
		return
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queue.QueueBookingConfirmed, true, false, false, false, nil); err != nil {
		p.log.WithError(err).Warn("failed to declare queue, event dropped")
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = ch.PublishWithContext(pubCtx, "", queue.QueueBookingConfirmed, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		p.log.WithError(err).Warn("failed to publish booking event")
		return
	}
	p.log.WithField("booking_id", ev.BookingID).Info("booking confirmed event published")
}
