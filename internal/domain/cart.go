package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is a single entry in the customer's cart.
type LineItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l LineItem) OrderItem() OrderItem {
	return OrderItem{Name: l.Name, Quantity: l.Quantity, Price: l.Price}
}

type CustomerProfile struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address"`
	Landmark string `json:"landmark,omitempty"`
	Pincode  string `json:"pincode"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (p CustomerProfile) Trimmed() CustomerProfile {
	return CustomerProfile{
		Name:     strings.TrimSpace(p.Name),
		Phone:    strings.TrimSpace(p.Phone),
		Email:    strings.TrimSpace(p.Email),
		Address:  strings.TrimSpace(p.Address),
		Landmark: strings.TrimSpace(p.Landmark),
		Pincode:  strings.TrimSpace(p.Pincode),
	}
}

// Merge overlays the non-empty fields of edits onto p.
func (p CustomerProfile) Merge(edits CustomerProfile) CustomerProfile {
	out := p.Trimmed()
	e := edits.Trimmed()
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&out.Name, e.Name},
		{&out.Phone, e.Phone},
		{&out.Email, e.Email},
		{&out.Address, e.Address},
		{&out.Landmark, e.Landmark},
		{&out.Pincode, e.Pincode},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	return out
}
