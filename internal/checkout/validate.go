package checkout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

// Line and order bounds. Prices and totals must fit NUMERIC(12,2).
const (
	MaxQuantity = 999
	priceScale  = 2
)

var (
	MaxPrice      = decimal.NewFromInt(100000)
	MaxOrderTotal = decimal.RequireFromString("9999999999.99")
)

var (
	phonePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidationError lists every problem found in a submission. It is produced
// locally and never involves the ordering API.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid order: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// ValidateProfile checks required fields and the phone, email and pincode formats.
func ValidateProfile(p domain.CustomerProfile) error {
	verr := &ValidationError{}
	validateProfile(verr, p.Trimmed())
	return verr.orNil()
}

func validateProfile(verr *ValidationError, p domain.CustomerProfile) {
	if p.Name == "" {
		verr.add("name is required")
	}
	switch {
	case p.Phone == "":
		verr.add("phone is required")
	case !phonePattern.MatchString(p.Phone):
		verr.add("phone must be 10 digits starting with 6-9")
	}
	if p.Email != "" && !emailPattern.MatchString(p.Email) {
		verr.add("email is not a valid address")
	}
	if p.Address == "" {
		verr.add("address is required")
	}
	switch {
	case p.Pincode == "":
		verr.add("pincode is required")
	case !pincodePattern.MatchString(p.Pincode):
		verr.add("pincode must be exactly 6 digits")
	}
}

// Validate runs every pre-submission check against a cart and profile.
func Validate(p domain.CustomerProfile, items []domain.LineItem, method domain.PaymentMethod) error {
	verr := &ValidationError{}
	validateProfile(verr, p.Trimmed())

	if len(items) == 0 {
		verr.add("cart is empty")
	}
	for i, item := range items {
		validateLine(verr, i, item.Name, item.Quantity, item.Price)
	}
	validateMethod(verr, method)

	return verr.orNil()
}

// ValidateRequest re-checks a submitted payload, including that its amount
// matches the recomputed total.
func ValidateRequest(req domain.OrderRequest) error {
	verr := &ValidationError{}
	validateProfile(verr, req.Customer.Trimmed())

	if len(req.Items) == 0 {
		verr.add("orderItems must not be empty")
	}
	for i, item := range req.Items {
		validateLine(verr, i, item.Name, item.Quantity, item.Price)
	}
	validateMethod(verr, req.PaymentMethod)

	if len(verr.Problems) == 0 {
		t := QuoteOrder(req.Items)
		switch {
		case t.Total.GreaterThan(MaxOrderTotal):
			verr.add("order total %s exceeds %s", t.Total.StringFixed(2), MaxOrderTotal.StringFixed(2))
		case !t.Total.Equal(req.Amount):
			verr.add("amount %s does not match order total %s", req.Amount.StringFixed(2), t.Total.StringFixed(2))
		}
	}

	return verr.orNil()
}

func validateLine(verr *ValidationError, i int, name string, quantity int, price decimal.Decimal) {
	if strings.TrimSpace(name) == "" {
		verr.add("item %d has no name", i)
	}
	if quantity < 1 || quantity > MaxQuantity {
		verr.add("item %d has invalid quantity", i)
	}
	if price.IsNegative() || price.GreaterThan(MaxPrice) || !price.Equal(price.Truncate(priceScale)) {
		verr.add("item %d has invalid price", i)
	}
}

// checkLine reports the first problem with a single cart line, if any.
func checkLine(quantity int, price decimal.Decimal) string {
	switch {
	case quantity < 1:
		return "quantity must be at least 1"
	case quantity > MaxQuantity:
		return fmt.Sprintf("quantity must be at most %d", MaxQuantity)
	case price.IsNegative():
		return "price must not be negative"
	case price.GreaterThan(MaxPrice):
		return "price must not exceed " + MaxPrice.StringFixed(2)
	case !price.Equal(price.Truncate(priceScale)):
		return "price must have at most 2 decimal places"
	}
	return ""
}

func validateMethod(verr *ValidationError, method domain.PaymentMethod) {
	switch {
	case method == "":
		verr.add("payment method must be selected")
	case !method.Valid():
		verr.add("unknown payment method %q", method)
	}
}
