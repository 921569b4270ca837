package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/tacotown/internal/checkout"
	"github.com/joao-fontenele/tacotown/internal/domain"
)

type Handler struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger

	placed    metric.Int64Counter
	rejected  metric.Int64Counter
	delivered metric.Int64Counter
	revenue   metric.Float64Counter
}

// NewHandler wires the HTTP surface to store. publisher may be nil.
func NewHandler(store Store, publisher Publisher, logger *slog.Logger) (*Handler, error) {
	meter := otel.Meter("tacotown/orders")

	placed, err := meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders accepted into the store"))
	if err != nil {
		return nil, err
	}
	rejected, err := meter.Int64Counter("orders.rejected",
		metric.WithDescription("Order submissions rejected by validation"))
	if err != nil {
		return nil, err
	}
	delivered, err := meter.Int64Counter("orders.delivered",
		metric.WithDescription("Orders marked delivered"))
	if err != nil {
		return nil, err
	}
	revenue, err := meter.Float64Counter("orders.revenue",
		metric.WithDescription("Sum of accepted order amounts"),
		metric.WithUnit("{INR}"))
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:     store,
		publisher: publisher,
		logger:    logger,
		placed:    placed,
		rejected:  rejected,
		delivered: delivered,
		revenue:   revenue,
	}, nil
}

type submitResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

type validationResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentMethodOnline
	}
	if req.Currency == "" {
		req.Currency = domain.DefaultCurrency
	}
	req.Customer = req.Customer.Trimmed()

	var problems []string
	if req.Currency != domain.DefaultCurrency {
		problems = append(problems, "currency must be "+domain.DefaultCurrency)
	}
	var verr *checkout.ValidationError
	if err := checkout.ValidateRequest(req); errors.As(err, &verr) {
		problems = append(problems, verr.Problems...)
	}
	if len(problems) > 0 {
		h.rejected.Add(r.Context(), 1)
		h.logger.Info("order rejected", "problems", problems)
		h.writeJSON(w, http.StatusBadRequest, validationResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  problems,
		})
		return
	}

	order := &domain.Order{
		Amount:        req.Amount,
		Currency:      req.Currency,
		Customer:      req.Customer,
		Items:         req.Items,
		PaymentMethod: req.PaymentMethod,
	}

	id, err := h.store.Submit(r.Context(), order)
	if err != nil {
		h.writeStoreError(w, "failed to submit order", err, "")
		return
	}

	attrs := metric.WithAttributes(attribute.String("payment_method", string(order.PaymentMethod)))
	h.placed.Add(r.Context(), 1, attrs)
	h.revenue.Add(r.Context(), order.Amount.InexactFloat64(), attrs)

	h.publish(r, domain.OrderEvent{Type: domain.OrderEventPlaced, OrderID: id, Order: order})

	h.logger.Info("order created", "order_id", id, "amount", order.Amount.StringFixed(2), "payment_method", order.PaymentMethod)
	h.writeJSON(w, http.StatusCreated, submitResponse{
		Success: true,
		OrderID: id,
		Message: "Order received successfully",
	})
}

type listResponse struct {
	Success bool           `json:"success"`
	Orders  []domain.Order `json:"orders"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.List(r.Context())
	if err != nil {
		h.writeStoreError(w, "failed to list orders", err, "")
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, listResponse{Success: true, Orders: orders})
}

type orderResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order,omitempty"`
}

func (h *Handler) HandleMarkDelivered(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.store.MarkDelivered(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "failed to mark order delivered", err, id)
		return
	}

	h.delivered.Add(r.Context(), 1)
	h.publish(r, domain.OrderEvent{Type: domain.OrderEventDelivered, OrderID: id, Order: order})

	h.logger.Info("order delivered", "order_id", id)
	h.writeJSON(w, http.StatusOK, orderResponse{
		Success: true,
		Message: "Order marked as delivered",
		Order:   order,
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, "failed to delete order", err, id)
		return
	}

	h.publish(r, domain.OrderEvent{Type: domain.OrderEventDeleted, OrderID: id})

	h.logger.Info("order deleted", "order_id", id)
	h.writeJSON(w, http.StatusOK, orderResponse{Success: true, Message: "Order deleted successfully"})
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(r.Context()); err != nil {
		h.writeStoreError(w, "failed to reset orders", err, "")
		return
	}

	h.publish(r, domain.OrderEvent{Type: domain.OrderEventReset})

	h.logger.Warn("all orders reset")
	h.writeJSON(w, http.StatusOK, orderResponse{Success: true, Message: "All data has been reset successfully"})
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.List(r.Context())
	if err != nil {
		h.writeStoreError(w, "failed to list orders for export", err, "")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=orders.xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := WriteWorkbook(w, orders); err != nil {
		h.logger.Error("failed to write orders workbook", "error", err)
		return
	}

	h.logger.Info("orders exported", "count", len(orders))
}

func (h *Handler) publish(r *http.Request, event domain.OrderEvent) {
	if h.publisher == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := h.publisher.Publish(r.Context(), event); err != nil {
		h.logger.Error("failed to publish order event", "error", err, "type", event.Type, "order_id", event.OrderID)
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, msg string, err error, id string) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, ErrInvalidOrder):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		h.logger.Error(msg, "error", err, "id", id)
		h.writeError(w, http.StatusServiceUnavailable, "order store unavailable, please try again")
	default:
		h.logger.Error(msg, "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"success": false, "message": message})
}
