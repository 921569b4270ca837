// Package checkout holds the client-side order workflow: pricing a cart,
// validating the customer's details, keeping drafts locally and submitting
// the finished order to the ordering API.
package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

var (
	// FreeDeliveryThreshold is exclusive: a subtotal must exceed it to ship free.
	FreeDeliveryThreshold = decimal.NewFromInt(300)
	FlatDeliveryFee       = decimal.NewFromInt(30)
)

type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"itemCount"`
	Lines       int             `json:"lines"`
}

func (t Totals) Empty() bool {
	return t.Lines == 0
}

func (t Totals) FreeDelivery() bool {
	return !t.Empty() && t.DeliveryFee.IsZero()
}

// DisplayTotals is Totals rendered to two decimal places.
type DisplayTotals struct {
	Subtotal    string `json:"subtotal"`
	DeliveryFee string `json:"deliveryFee"`
	Total       string `json:"total"`
}

func (t Totals) Display() DisplayTotals {
	fee := t.DeliveryFee.StringFixed(2)
	if t.FreeDelivery() {
		fee = "FREE"
	}
	return DisplayTotals{
		Subtotal:    t.Subtotal.StringFixed(2),
		DeliveryFee: fee,
		Total:       t.Total.StringFixed(2),
	}
}

// DeliveryFee returns the fee charged for a given subtotal.
func DeliveryFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return FlatDeliveryFee
}

// Quote prices a cart.
func Quote(items []domain.LineItem) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		count += item.Quantity
	}
	return totals(subtotal, count, len(items))
}

// QuoteOrder prices the reduced item list carried by an order.
func QuoteOrder(items []domain.OrderItem) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		count += item.Quantity
	}
	return totals(subtotal, count, len(items))
}

func totals(subtotal decimal.Decimal, count, lines int) Totals {
	if lines == 0 {
		return Totals{Subtotal: decimal.Zero, DeliveryFee: decimal.Zero, Total: decimal.Zero}
	}
	fee := DeliveryFee(subtotal)
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal.Add(fee),
		ItemCount:   count,
		Lines:       lines,
	}
}

// Assemble merges form edits into the saved profile, validates the result
// and builds the payload to submit.
func Assemble(saved, edits domain.CustomerProfile, items []domain.LineItem, method domain.PaymentMethod) (domain.OrderRequest, Totals, error) {
	profile := saved.Merge(edits)
	if err := Validate(profile, items, method); err != nil {
		return domain.OrderRequest{}, Totals{}, err
	}

	t := Quote(items)
	orderItems := make([]domain.OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = item.OrderItem()
	}

	return domain.OrderRequest{
		Amount:        t.Total,
		Currency:      domain.DefaultCurrency,
		Customer:      profile,
		Items:         orderItems,
		PaymentMethod: method,
	}, t, nil
}
