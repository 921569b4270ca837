// Package orders records confirmed orders and serves the ordering and admin
// HTTP surface on top of a pluggable Store.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrInvalidOrder     = errors.New("invalid order")
	ErrStoreUnavailable = errors.New("order store unavailable")
)

// Store is the system of record for orders. Implementations must be safe for
// concurrent use and return orders the caller may freely modify.
type Store interface {
	// Submit assigns an ID and creation time, marks the order confirmed and
	// persists it.
	Submit(ctx context.Context, order *domain.Order) (string, error)
	// List returns every order, newest first.
	List(ctx context.Context) ([]domain.Order, error)
	// MarkDelivered is idempotent: a delivered order keeps its first deliveredAt.
	MarkDelivered(ctx context.Context, id string) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
	Reset(ctx context.Context) error
}

// NewOrderID returns an identifier of the form ORDER_<unix millis>_<8 hex>.
func NewOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORDER_%d_%s", now.UnixMilli(), suffix)
}

// prepare checks the fields every backend requires and fills in the
// server-assigned ones.
func prepare(order *domain.Order, now time.Time) error {
	if order == nil {
		return fmt.Errorf("%w: nil order", ErrInvalidOrder)
	}
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidOrder)
	}
	if strings.TrimSpace(order.Customer.Name) == "" || strings.TrimSpace(order.Customer.Phone) == "" {
		return fmt.Errorf("%w: missing customer details", ErrInvalidOrder)
	}
	if order.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidOrder)
	}

	if order.Currency == "" {
		order.Currency = domain.DefaultCurrency
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = domain.PaymentMethodOnline
	}
	order.ID = NewOrderID(now)
	order.Status = domain.OrderStatusConfirmed
	order.CreatedAt = now.UTC()
	order.DeliveredAt = nil
	return nil
}
