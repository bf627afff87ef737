package rabbitmq

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	amqp "github.com/streadway/amqp"
)

// DefaultQueue is used when Config.Queue is empty.
const DefaultQueue = "formflow_events"

// publisher is the part of *amqp.Channel used for publishing.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	pub     publisher
	queue   string
	cb      *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the event
// queue.
func NewClient(cfg Config, log *logrus.Logger) (*Client, error) {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to open channel")
	}

	if err := declareQueue(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.WithField("queue", cfg.Queue).Info("RabbitMQ client connected")

	c := newClient(ch, cfg.Queue, log)
	c.conn = conn
	c.channel = ch
	return c, nil
}

func newClient(pub publisher, queue string, log *logrus.Logger) *Client {
	st := gobreaker.Settings{
		Name:        "RabbitMQ-Publisher",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("CircuitBreaker[%s] state changed from %s to %s", name, from, to)
		},
	}
	return &Client{
		pub:   pub,
		queue: queue,
		cb:    gobreaker.NewCircuitBreaker(st),
		log:   log,
	}
}

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to declare queue %s", name)
	}
	return nil
}

// Queue returns the name of the event queue.
func (c *Client) Queue() string { return c.queue }

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close channel"))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close connection"))
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("errors during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishEvent marshals payload to JSON and publishes it to the event queue
// with eventType as the message type. Publishing goes through a circuit
// breaker; while it is open calls fail fast with gobreaker.ErrOpenState.
func (c *Client) PublishEvent(eventType string, payload any) error {
	if c.pub == nil {
		return errors.New("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event to JSON")
	}

	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.pub.Publish(
			"",      // default exchange
			c.queue, // routing key: the queue name
			false,   // mandatory
			false,   // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				Type:         eventType,
				Body:         body,
				DeliveryMode: amqp.Persistent,
				Timestamp:    time.Now(),
			})
	})
	if err != nil {
		return errors.Wrapf(err, "failed to publish %s", eventType)
	}

	c.log.WithField("event", eventType).Debug("event published")
	return nil
}

// ConsumeEvents starts a goroutine delivering messages from the event queue
// to handler. Messages are acked on success and nacked without requeue on
// failure so a poison message cannot loop.
func (c *Client) ConsumeEvents(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	if err := declareQueue(c.channel, c.queue); err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "failed to register consumer")
	}

	c.log.WithField("queue", c.queue).Info("waiting for events")

	go func() {
		for msg := range msgs {
			c.dispatch(msg, handler)
		}
	}()

	return nil
}

// acknowledger is implemented by amqp.Delivery.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Client) dispatch(msg amqp.Delivery, handler func(msg amqp.Delivery) error) {
	c.settle(msg.DeliveryTag, msg, handler(msg))
}

func (c *Client) settle(tag uint64, ack acknowledger, handlerErr error) {
	entry := c.log.WithField("delivery_tag", tag)
	if handlerErr != nil {
		entry.WithError(handlerErr).Warn("error processing message")
		if err := ack.Nack(false, false); err != nil {
			entry.WithError(err).Error("error nacking message")
		}
		return
	}
	if err := ack.Ack(false); err != nil {
		entry.WithError(err).Error("error acking message")
	}
}

// Event mirrors the JSON published by the services layer.
type Event struct {
	Type         string    `json:"type"`
	FormID       string    `json:"formId"`
	SubmissionID string    `json:"submissionId,omitempty"`
	At           time.Time `json:"at"`
}

// LogEventHandler returns a handler that decodes each event and logs it.
// Undecodable bodies are reported as errors.
func LogEventHandler(log *logrus.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var ev Event
		if err := json.Unmarshal(msg.Body, &ev); err != nil {
			return errors.Wrap(err, "decode event")
		}
		log.WithFields(logrus.Fields{
			"event":         ev.Type,
			"form_id":       ev.FormID,
			"submission_id": ev.SubmissionID,
			"at":            ev.At,
		}).Info("event received")
		return nil
	}
}
