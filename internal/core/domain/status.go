package domain

import (
	"fmt"
	"slices"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// InitialOrderStatus is assigned at checkout. Orders start in processing;
// pending is kept for orders that need pre-authorization.
const InitialOrderStatus = OrderStatusProcessing

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition reports whether target is reachable in one step.
// Requesting the current state is not a step.
func (s OrderStatus) CanTransition(target OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	return slices.Contains(orderTransitions[s], target)
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// InitialPaymentStatus is assigned at checkout; payment is recorded, not processed.
const InitialPaymentStatus = PaymentStatusPending

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:    {PaymentStatusRefunded},
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransition(target PaymentStatus) bool {
	return slices.Contains(paymentTransitions[s], target)
}

// StatusUpdate is an admin request; nil fields are left untouched.
type StatusUpdate struct {
	OrderStatus   *OrderStatus
	PaymentStatus *PaymentStatus
}

func (u StatusUpdate) Validate() error {
	verr := &ValidationError{}
	if u.OrderStatus == nil && u.PaymentStatus == nil {
		verr.Add("orderStatus", "orderStatus or paymentStatus is required")
	}
	if u.OrderStatus != nil && !u.OrderStatus.Valid() {
		verr.Add("orderStatus", "invalid order status value")
	}
	if u.PaymentStatus != nil && !u.PaymentStatus.Valid() {
		verr.Add("paymentStatus", "invalid payment status value")
	}
	return verr.OrNil()
}

// ApplyStatusUpdate checks both edges first and only then mutates the order.
func (o *Order) ApplyStatusUpdate(u StatusUpdate) error {
	if u.OrderStatus != nil && !o.Status.CanTransition(*u.OrderStatus) {
		return fmt.Errorf("%w: order %s → %s", ErrInvalidTransition, o.Status, *u.OrderStatus)
	}
	if u.PaymentStatus != nil && !o.PaymentStatus.CanTransition(*u.PaymentStatus) {
		return fmt.Errorf("%w: payment %s → %s", ErrInvalidTransition, o.PaymentStatus, *u.PaymentStatus)
	}
	if u.OrderStatus != nil {
		o.Status = *u.OrderStatus
	}
	if u.PaymentStatus != nil {
		o.PaymentStatus = *u.PaymentStatus
	}
	return nil
}
