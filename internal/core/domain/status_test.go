package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	all := []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled}
	allowed := map[[2]OrderStatus]bool{
		{OrderStatusPending, OrderStatusProcessing}:   true,
		{OrderStatusPending, OrderStatusCancelled}:    true,
		{OrderStatusProcessing, OrderStatusShipped}:   true,
		{OrderStatusProcessing, OrderStatusCancelled}: true,
		{OrderStatusShipped, OrderStatusDelivered}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]OrderStatus{from, to}]
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusShipped.Terminal())
	assert.False(t, OrderStatus("lost").Valid())
}

func TestPaymentStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentStatusPending, PaymentStatusPaid, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPaid, PaymentStatusRefunded, true},
		{PaymentStatusPaid, PaymentStatusPaid, false},
		{PaymentStatusPending, PaymentStatusPending, false},
		{PaymentStatusPending, PaymentStatusRefunded, false},
		{PaymentStatusFailed, PaymentStatusPaid, false},
		{PaymentStatusRefunded, PaymentStatusPaid, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOrder_ApplyStatusUpdate(t *testing.T) {
	shipped := OrderStatusShipped
	refunded := PaymentStatusRefunded
	paid := PaymentStatusPaid

	t.Run("Both edges checked first", func(t *testing.T) {
		o := &Order{Status: OrderStatusProcessing, PaymentStatus: PaymentStatusPending}
		err := o.ApplyStatusUpdate(StatusUpdate{OrderStatus: &shipped, PaymentStatus: &refunded})
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, OrderStatusProcessing, o.Status)
		assert.Equal(t, PaymentStatusPending, o.PaymentStatus)
	})

	t.Run("Current status is rejected", func(t *testing.T) {
		o := &Order{Status: OrderStatusShipped, PaymentStatus: PaymentStatusPending}
		err := o.ApplyStatusUpdate(StatusUpdate{OrderStatus: &shipped, PaymentStatus: &paid})
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, PaymentStatusPending, o.PaymentStatus)
	})

	t.Run("Both applied", func(t *testing.T) {
		o := &Order{Status: OrderStatusProcessing, PaymentStatus: PaymentStatusPending}
		require.NoError(t, o.ApplyStatusUpdate(StatusUpdate{OrderStatus: &shipped, PaymentStatus: &paid}))
		assert.Equal(t, OrderStatusShipped, o.Status)
		assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
	})
}

func TestStatusUpdate_Validate(t *testing.T) {
	lost := OrderStatus("lost")
	bogus := PaymentStatus("bogus")

	err := StatusUpdate{}.Validate()
	assert.ErrorIs(t, err, ErrInvalidRequest)

	err = StatusUpdate{OrderStatus: &lost, PaymentStatus: &bogus}.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "orderStatus", verr.Fields[0].Field)
	assert.Equal(t, "paymentStatus", verr.Fields[1].Field)
}
