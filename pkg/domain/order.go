package domain

import "time"

// OrderStatus is the lifecycle state of an order.
//
// CREATED is the only state the client may transition out of (to
// CANCELLED). CONFIRMED and FAILED are set by the gateway's fulfilment
// workflow and observed via refetch; all three non-CREATED states are
// terminal from the client's standpoint.
type OrderStatus string

const (
	OrderCreated   OrderStatus = "CREATED"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderFailed    OrderStatus = "FAILED"
)

// Terminal returns true if no client-initiated transition out of s is permitted.
func (s OrderStatus) Terminal() bool {
	return s != OrderCreated
}

// Order is a purchase record owned by the gateway.
type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	ProductID     string      `json:"productId"`
	Quantity      int         `json:"quantity"`
	UnitPrice     float64     `json:"unitPrice"`
	TotalAmount   float64     `json:"totalAmount"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	CancelledAt   *time.Time  `json:"cancelledAt,omitempty"`
	FailureReason string      `json:"failureReason,omitempty"`
}
