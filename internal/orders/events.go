package orders

import (
	"context"
	"errors"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

// Publisher fans order events out to interested parties.
type Publisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}

// MultiPublisher delivers each event to every publisher, even if some fail.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// KeyedProducer is the subset of messaging.Producer used to ship events to Kafka.
type KeyedProducer interface {
	Publish(ctx context.Context, key string, event any) error
}

// BrokerPublisher writes events to a message broker keyed by order ID, so
// events for one order stay ordered within a partition.
type BrokerPublisher struct {
	producer KeyedProducer
}

func NewBrokerPublisher(producer KeyedProducer) *BrokerPublisher {
	return &BrokerPublisher{producer: producer}
}

func (b *BrokerPublisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	key := event.OrderID
	if key == "" {
		key = string(event.Type)
	}
	return b.producer.Publish(ctx, key, event)
}
