// Package events publishes cart domain events on a RabbitMQ topic
// exchange. The broker is optional: a nil *Rabbit swallows publishes so
// the engine can run without one.
package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for the cart event fabric.
const (
	RKItemAdded         = "cart.item.added"
	RKItemRemoved       = "cart.item.removed"
	RKCheckoutValidated = "cart.checkout.validated"
)

// ItemEvent is emitted after every persisted item mutation. Qty is the
// quantity remaining on the line (zero when the line was removed).
type ItemEvent struct {
	OwnerID    string `json:"owner_id"`
	BookID     string `json:"book_id"`
	Qty        int32  `json:"qty"`
	TotalCents int64  `json:"total_cents"`
}

// CheckoutEvent is emitted once per successful checkout reconciliation.
type CheckoutEvent struct {
	OwnerID    string   `json:"owner_id"`
	TotalCents int64    `json:"total_cents"`
	Violations []string `json:"violations"`
}

type Rabbit struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewRabbit connects and declares the topic exchange. An empty URL returns
// a nil publisher, which is valid and publishes nothing.
func NewRabbit(url, exchange string) (*Rabbit, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Rabbit{conn: conn, ch: ch, exchange: exchange}, nil
}

func (r *Rabbit) Publish(ctx context.Context, key string, payload any) error {
	if r == nil || r.ch == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.ch.PublishWithContext(ctx, r.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	})
}

func (r *Rabbit) Close() error {
	if r == nil || r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
