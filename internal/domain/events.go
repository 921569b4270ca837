package domain

import "time"

type OrderEventType string

const (
	OrderEventPlaced    OrderEventType = "order.placed"
	OrderEventDelivered OrderEventType = "order.delivered"
	OrderEventDeleted   OrderEventType = "order.deleted"
	OrderEventReset     OrderEventType = "orders.reset"
)

type OrderEvent struct {
	Type      OrderEventType `json:"type"`
	OrderID   string         `json:"orderId,omitempty"`
	Order     *Order         `json:"order,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
