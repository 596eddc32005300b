package queue

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer drains booking.confirmed events and appends them to a log
// file. It reconnects with backoff so a broker restart does not require
// an API restart.
type Consumer struct {
	url    string
	logDir string
	log    *logrus.Logger
}

func NewConsumer(url, logDir string, log *logrus.Logger) *Consumer {
	return &Consumer{url: url, logDir: logDir, log: log}
}

// Run blocks until ctx is cancelled, consuming events and retrying the
// connection every five seconds after a failure.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if err := c.consume(ctx); err != nil {
			c.log.WithError(err).Warn("booking consumer disconnected")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(QueueBookingConfirmed, true, false, false, false, nil); err != nil {
		return err
	}
	deliveries, err := ch.Consume(QueueBookingConfirmed, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	c.log.Info("booking consumer connected")
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return amqp.ErrClosed
			}
			if err := c.record(d.Body); err != nil {
				c.log.WithError(err).Error("failed to record booking event")
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
		}
	}
}

// record appends one line per event to logs/booking.log.
func (c *Consumer) record(body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return err
	}
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, "booking.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}
