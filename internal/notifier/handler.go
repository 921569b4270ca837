// Package notifier turns order events into customer emails sent through an
// HTTP mail relay.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

// ErrRelayRejected is returned when the mail relay answers with a non-2xx status.
var ErrRelayRejected = errors.New("mail relay rejected message")

type Email struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Handler struct {
	relayURL   string
	from       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHandler returns a handler posting to relayURL+"/send". An empty relayURL
// turns sending into logging only.
func NewHandler(relayURL, from string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		relayURL:   strings.TrimRight(relayURL, "/"),
		from:       from,
		httpClient: client,
		logger:     logger,
	}
}

// Handle processes one encoded domain.OrderEvent.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order event: %w", err)
	}

	h.logger.Info("processing order event", "type", event.Type, "order_id", event.OrderID)

	var email *Email
	switch event.Type {
	case domain.OrderEventPlaced:
		email = confirmationEmail(event.Order)
	case domain.OrderEventDelivered:
		email = deliveryEmail(event.Order)
	default:
		return nil
	}

	if email == nil {
		h.logger.Info("no customer email on order, skipping notification", "order_id", event.OrderID)
		return nil
	}

	if err := h.send(ctx, email); err != nil {
		h.logger.Error("failed to send notification", "error", err, "order_id", event.OrderID, "type", event.Type)
		return fmt.Errorf("notify %s: %w", event.OrderID, err)
	}

	h.logger.Info("notification sent", "order_id", event.OrderID, "type", event.Type)
	return nil
}

func confirmationEmail(order *domain.Order) *Email {
	if order == nil || order.Customer.Email == "" {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for ordering from Taco Town! Your order %s is confirmed.\n\n", order.Customer.Name, order.ID)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %d x %s  %s %s\n", item.Quantity, item.Name, order.Currency, item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s %s (%s)\n", order.Currency, order.Amount.StringFixed(2), paymentLabel(order.PaymentMethod))
	fmt.Fprintf(&b, "Delivering to: %s", order.Customer.Address)
	if order.Customer.Landmark != "" {
		fmt.Fprintf(&b, " (near %s)", order.Customer.Landmark)
	}
	fmt.Fprintf(&b, ", %s\n", order.Customer.Pincode)

	return &Email{
		To:      order.Customer.Email,
		Subject: "Order confirmed: " + order.ID,
		Body:    b.String(),
	}
}

func deliveryEmail(order *domain.Order) *Email {
	if order == nil || order.Customer.Email == "" {
		return nil
	}
	return &Email{
		To:      order.Customer.Email,
		Subject: "Order delivered: " + order.ID,
		Body:    fmt.Sprintf("Hi %s,\n\nYour order %s has been delivered. Enjoy your meal!\n", order.Customer.Name, order.ID),
	}
}

func paymentLabel(m domain.PaymentMethod) string {
	if m == domain.PaymentMethodCOD {
		return "cash on delivery"
	}
	return "paid online"
}

func (h *Handler) send(ctx context.Context, email *Email) error {
	if h.relayURL == "" {
		h.logger.Info("mail relay not configured, logging email", "to", email.To, "subject", email.Subject)
		return nil
	}

	if email.From == "" {
		email.From = h.from
	}
	data, err := json.Marshal(email)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.relayURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrRelayRejected, resp.StatusCode)
	}

	return nil
}
