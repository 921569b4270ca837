package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

// MemoryStore keeps orders in process. Everything is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*domain.Order),
		now:    time.Now,
	}
}

func (s *MemoryStore) Submit(_ context.Context, order *domain.Order) (string, error) {
	if err := prepare(order, s.now()); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.orders[order.ID] = order.Clone()
	s.mu.Unlock()

	return order.ID, nil
}

func (s *MemoryStore) List(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o.Clone())
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) MarkDelivered(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if o.Status != domain.OrderStatusDelivered {
		now := s.now().UTC()
		o.Status = domain.OrderStatusDelivered
		o.DeliveredAt = &now
	}
	return o.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	s.orders = make(map[string]*domain.Order)
	s.mu.Unlock()
	return nil
}
