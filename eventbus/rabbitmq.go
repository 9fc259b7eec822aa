package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/arkantrust/dealership-admin/backend/reconciler"
)

const (
	// For publisher confirms
	publishTimeout = 5 * time.Second

	queueSize = 256
)

// publisher is the part of *amqp.Channel the publisher uses.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQ publishes changes to a durable exchange with the change kind as
// routing key. Notify only enqueues; a background goroutine publishes and
// waits for the broker's confirm, so a slow broker never holds up the
// reconciler. Changes that do not fit in the queue, or that arrive after
// Close, are dropped and logged.
type RabbitMQ struct {
	exchange string
	timeout  time.Duration

	conn     *amqp.Connection
	ch       *amqp.Channel
	pub      publisher
	confirms chan amqp.Confirmation
	// seq is the delivery tag of the last successful publish. The broker
	// numbers publishes on a confirm-mode channel from 1.
	seq uint64

	mu        sync.Mutex
	closed    bool
	queue     chan reconciler.Change
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewRabbitMQ dials url, puts a channel into confirm mode and declares the
// exchange.
func NewRabbitMQ(url, exchange, kind string) (*RabbitMQ, error) {
	log.Info().Str("exchange", exchange).Msg("Attempting to connect to RabbitMQ")
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open producer channel: %w", err)
	}

	// Enable publisher confirms on this channel
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("producer channel could not be put into confirm mode: %w", err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	err = ch.ExchangeDeclare(
		exchange, // name
		kind,     // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	log.Info().Str("exchange", exchange).Str("type", kind).Msg("Changes exchange declared successfully")

	r := newRabbitMQ(ch, confirms, exchange)
	r.conn = conn
	r.ch = ch
	return r, nil
}

func newRabbitMQ(pub publisher, confirms chan amqp.Confirmation, exchange string) *RabbitMQ {
	r := &RabbitMQ{
		exchange: exchange,
		timeout:  publishTimeout,
		pub:      pub,
		confirms: confirms,
		queue:    make(chan reconciler.Change, queueSize),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *RabbitMQ) Notify(_ context.Context, changes ...reconciler.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		log.Warn().Int("changes", len(changes)).Msg("Publisher closed, dropping changes")
		return
	}
	for _, c := range changes {
		select {
		case r.queue <- c:
		default:
			log.Warn().Str("kind", string(c.Kind)).Str("entityId", c.EntityID).Msg("Change queue full, dropping change")
		}
	}
}

func (r *RabbitMQ) run() {
	defer r.wg.Done()
	for c := range r.queue {
		if err := r.publish(c); err != nil {
			log.Error().Err(err).Str("kind", string(c.Kind)).Str("entityId", c.EntityID).Msg("Failed to publish change")
		}
	}
}

func (r *RabbitMQ) publish(c reconciler.Change) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	log.Debug().Str("exchange", r.exchange).Str("routingKey", string(c.Kind)).RawJSON("body", body).Msg("Publishing change")

	err = r.pub.Publish(
		r.exchange,     // exchange
		string(c.Kind), // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    c.ID,
			Timestamp:    c.At,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	r.seq++

	timeout := r.timeout
	if timeout <= 0 {
		timeout = publishTimeout
	}
	deadline := time.After(timeout)
	for {
		select {
		case confirm, ok := <-r.confirms:
			if !ok {
				return errors.New("confirm channel closed")
			}
			// A confirm for an earlier publish that already timed out.
			if confirm.DeliveryTag < r.seq {
				log.Warn().Uint64("tag", confirm.DeliveryTag).Uint64("want", r.seq).Msg("Discarding late confirm")
				continue
			}
			if confirm.Ack {
				log.Debug().Uint64("tag", confirm.DeliveryTag).Msg("Change published and confirmed")
				return nil
			}
			return errors.New("change published but not confirmed by broker")
		case <-deadline:
			return errors.New("publish confirmation timeout")
		}
	}
}

// Close publishes what is still queued, then closes the channel and the
// connection.
func (r *RabbitMQ) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
		r.wg.Wait()
		if r.ch != nil {
			if cerr := r.ch.Close(); cerr != nil {
				log.Error().Err(cerr).Msg("Error closing producer channel")
			}
		}
		if r.conn != nil && !r.conn.IsClosed() {
			log.Info().Msg("Closing RabbitMQ connection.")
			err = r.conn.Close()
		}
	})
	return err
}
