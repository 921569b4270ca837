package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

// Submitter sends an assembled order to the ordering API.
type Submitter interface {
	Submit(ctx context.Context, order domain.OrderRequest) (string, error)
}

type Summary struct {
	Items   []domain.LineItem      `json:"items"`
	Profile domain.CustomerProfile `json:"profile"`
	Totals  Totals                 `json:"totals"`
}

// CanSubmit is false while the cart is empty.
func (s Summary) CanSubmit() bool {
	return !s.Totals.Empty()
}

type Receipt struct {
	OrderID string                 `json:"orderId"`
	Profile domain.CustomerProfile `json:"profile"`
	Totals  Totals                 `json:"totals"`
}

// Session ties the draft store to the submission client for one customer.
type Session struct {
	drafts    DraftStore
	submitter Submitter
	logger    *slog.Logger
}

func NewSession(drafts DraftStore, submitter Submitter, logger *slog.Logger) *Session {
	return &Session{
		drafts:    drafts,
		submitter: submitter,
		logger:    logger,
	}
}

func (s *Session) Cart() *Cart {
	return NewCart(s.drafts)
}

func (s *Session) Summary(ctx context.Context) (Summary, error) {
	items, err := s.Cart().Items(ctx)
	if err != nil {
		return Summary{}, err
	}
	profile, err := loadProfile(ctx, s.drafts)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Items: items, Profile: profile, Totals: Quote(items)}, nil
}

// SaveProfile stores profile details for pre-filling the checkout form.
func (s *Session) SaveProfile(ctx context.Context, p domain.CustomerProfile) error {
	p = p.Trimmed()
	if err := ValidateProfile(p); err != nil {
		return err
	}
	return s.drafts.Save(ctx, ProfileKey, p)
}

// PlaceOrder validates the drafts merged with edits, submits them and, only
// once the API has acknowledged the order, clears the cart and profile drafts.
func (s *Session) PlaceOrder(ctx context.Context, edits domain.CustomerProfile, method domain.PaymentMethod) (Receipt, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return Receipt{}, err
	}

	order, totals, err := Assemble(summary.Profile, edits, summary.Items, method)
	if err != nil {
		return Receipt{}, err
	}

	orderID, err := s.submitter.Submit(ctx, order)
	if err != nil {
		s.logger.Error("order submission failed", "error", err)
		return Receipt{}, err
	}

	if err := s.drafts.Remove(ctx, CartKey, ProfileKey); err != nil {
		// The order exists server-side; report the ID along with the cleanup failure.
		return Receipt{OrderID: orderID, Profile: order.Customer, Totals: totals},
			fmt.Errorf("order %s placed but local drafts not cleared: %w", orderID, err)
	}

	s.logger.Info("order placed", "order_id", orderID, "total", totals.Total.StringFixed(2))
	return Receipt{OrderID: orderID, Profile: order.Customer, Totals: totals}, nil
}
