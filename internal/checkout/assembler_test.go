package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

func line(name string, price int64, qty int) domain.LineItem {
	return domain.LineItem{Name: name, Price: decimal.NewFromInt(price), Quantity: qty}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name     string
		items    []domain.LineItem
		subtotal string
		fee      string
		total    string
	}{
		{
			name:     "subtotal at threshold pays delivery",
			items:    []domain.LineItem{line("Taco", 150, 2)},
			subtotal: "300",
			fee:      "30",
			total:    "330",
		},
		{
			name:     "subtotal above threshold ships free",
			items:    []domain.LineItem{line("Pizza", 200, 2)},
			subtotal: "400",
			fee:      "0",
			total:    "400",
		},
		{
			name:     "small order",
			items:    []domain.LineItem{line("Shake", 90, 1), line("Fries", 60, 1)},
			subtotal: "150",
			fee:      "30",
			total:    "180",
		},
		{
			name:     "fractional prices just over threshold",
			items:    []domain.LineItem{{Name: "Nachos", Price: decimal.RequireFromString("100.01"), Quantity: 3}},
			subtotal: "300.03",
			fee:      "0",
			total:    "300.03",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quote(tt.items)
			assert.True(t, got.Subtotal.Equal(decimal.RequireFromString(tt.subtotal)), "subtotal %s", got.Subtotal)
			assert.True(t, got.DeliveryFee.Equal(decimal.RequireFromString(tt.fee)), "fee %s", got.DeliveryFee)
			assert.True(t, got.Total.Equal(decimal.RequireFromString(tt.total)), "total %s", got.Total)
			assert.True(t, got.Total.Equal(got.Subtotal.Add(got.DeliveryFee)))
		})
	}
}

func TestQuote_EmptyCart(t *testing.T) {
	got := Quote(nil)

	assert.True(t, got.Empty())
	assert.False(t, got.FreeDelivery())
	assert.True(t, got.Total.IsZero())
}

func TestDeliveryFee_Boundary(t *testing.T) {
	for sub := int64(0); sub <= 600; sub += 25 {
		fee := DeliveryFee(decimal.NewFromInt(sub))
		if sub > 300 {
			assert.True(t, fee.IsZero(), "subtotal %d", sub)
		} else {
			assert.True(t, fee.Equal(FlatDeliveryFee), "subtotal %d", sub)
		}
	}
}

func TestTotals_Display(t *testing.T) {
	free := Quote([]domain.LineItem{line("Pizza", 200, 2)}).Display()
	assert.Equal(t, DisplayTotals{Subtotal: "400.00", DeliveryFee: "FREE", Total: "400.00"}, free)

	paid := Quote([]domain.LineItem{{Name: "Taco", Price: decimal.RequireFromString("49.5"), Quantity: 1}}).Display()
	assert.Equal(t, DisplayTotals{Subtotal: "49.50", DeliveryFee: "30.00", Total: "79.50"}, paid)
}

func TestAssemble(t *testing.T) {
	saved := domain.CustomerProfile{
		Name:    "Asha",
		Phone:   "9876543210",
		Address: "12 Market Road",
		Pincode: "560001",
	}
	edits := domain.CustomerProfile{Address: "  14 Market Road ", Landmark: "near the temple"}

	req, totals, err := Assemble(saved, edits, []domain.LineItem{line("Taco", 150, 2)}, domain.PaymentMethodCOD)
	require.NoError(t, err)

	assert.Equal(t, "14 Market Road", req.Customer.Address)
	assert.Equal(t, "near the temple", req.Customer.Landmark)
	assert.Equal(t, "Asha", req.Customer.Name)
	assert.Equal(t, domain.DefaultCurrency, req.Currency)
	assert.Equal(t, domain.PaymentMethodCOD, req.PaymentMethod)
	assert.True(t, req.Amount.Equal(decimal.NewFromInt(330)))
	assert.True(t, totals.Total.Equal(req.Amount))
	require.Len(t, req.Items, 1)
	assert.Equal(t, domain.OrderItem{Name: "Taco", Quantity: 2, Price: decimal.NewFromInt(150)}, req.Items[0])
}

func TestAssemble_Invalid(t *testing.T) {
	_, _, err := Assemble(domain.CustomerProfile{}, domain.CustomerProfile{}, nil, "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "cart is empty")
	assert.Contains(t, verr.Problems, "payment method must be selected")
}

func TestQuote_EmptinessIgnoresQuantityOverflow(t *testing.T) {
	items := make([]domain.LineItem, 4)
	for i := range items {
		items[i] = line("Taco", 150, 1<<62)
	}

	got := Quote(items)
	assert.False(t, got.Empty())
	assert.False(t, got.Total.IsZero())
}
