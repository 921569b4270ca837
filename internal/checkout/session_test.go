package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, order domain.OrderRequest) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

func newTestSession(t *testing.T, sub Submitter) (*Session, *MemoryDrafts) {
	t.Helper()
	drafts := NewMemoryDrafts()
	ctx := context.Background()

	require.NoError(t, drafts.Save(ctx, ProfileKey, validProfile()))
	require.NoError(t, NewCart(drafts).AddItem(ctx, domain.LineItem{
		Name:     "Taco",
		Price:    decimal.NewFromInt(150),
		Quantity: 2,
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSession(drafts, sub, logger), drafts
}

func TestSession_PlaceOrder_ClearsDraftsOnSuccess(t *testing.T) {
	sub := new(mockSubmitter)
	sub.On("Submit", mock.Anything, mock.MatchedBy(func(req domain.OrderRequest) bool {
		return req.Amount.Equal(decimal.NewFromInt(330)) && req.PaymentMethod == domain.PaymentMethodOnline
	})).Return("ORDER_1_deadbeef", nil)

	s, drafts := newTestSession(t, sub)

	receipt, err := s.PlaceOrder(context.Background(), domain.CustomerProfile{Landmark: "opposite bakery"}, domain.PaymentMethodOnline)
	require.NoError(t, err)

	assert.Equal(t, "ORDER_1_deadbeef", receipt.OrderID)
	assert.Equal(t, "opposite bakery", receipt.Profile.Landmark)
	assert.True(t, receipt.Totals.DeliveryFee.Equal(FlatDeliveryFee))

	_, ok := drafts.Raw(CartKey)
	assert.False(t, ok)
	_, ok = drafts.Raw(ProfileKey)
	assert.False(t, ok)
	sub.AssertExpectations(t)
}

func TestSession_PlaceOrder_KeepsDraftsOnFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "store unavailable", err: ErrStoreUnavailable},
		{name: "rejected", err: &RejectedError{StatusCode: 400, Message: "Validation failed"}},
		{name: "malformed", err: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := new(mockSubmitter)
			sub.On("Submit", mock.Anything, mock.Anything).Return("", tt.err)

			s, drafts := newTestSession(t, sub)
			cartBefore, _ := drafts.Raw(CartKey)
			profileBefore, _ := drafts.Raw(ProfileKey)

			_, err := s.PlaceOrder(context.Background(), domain.CustomerProfile{Address: "new address"}, domain.PaymentMethodCOD)
			assert.True(t, errors.Is(err, tt.err))

			cartAfter, ok := drafts.Raw(CartKey)
			require.True(t, ok)
			assert.Equal(t, cartBefore, cartAfter)
			profileAfter, ok := drafts.Raw(ProfileKey)
			require.True(t, ok)
			assert.Equal(t, profileBefore, profileAfter)
		})
	}
}

func TestSession_PlaceOrder_ValidationNeverSubmits(t *testing.T) {
	sub := new(mockSubmitter)
	s, _ := newTestSession(t, sub)

	_, err := s.PlaceOrder(context.Background(), domain.CustomerProfile{Phone: "98765"}, domain.PaymentMethodOnline)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "phone must be 10 digits starting with 6-9")
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestSession_SummaryAndSaveProfile(t *testing.T) {
	sub := new(mockSubmitter)
	s, _ := newTestSession(t, sub)
	ctx := context.Background()

	summary, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, summary.CanSubmit())
	assert.Equal(t, 2, summary.Totals.ItemCount)
	assert.Equal(t, "Ravi", summary.Profile.Name)

	err = s.SaveProfile(ctx, domain.CustomerProfile{Name: "X"})
	assert.Error(t, err)

	p := validProfile()
	p.Name = "  Meera "
	require.NoError(t, s.SaveProfile(ctx, p))
	summary, err = s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Meera", summary.Profile.Name)
}
