package notify

import (
	"time"

	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/govalues/decimal"
)

type Kind string

const (
	KindOrderConfirmation Kind = "order_confirmation"
	KindAdminNewOrder     Kind = "admin_new_order"
)

type Line struct {
	ProductID uint64          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Message is what a Sender delivers. Customer and admin copies differ only
// in Kind and To.
type Message struct {
	Kind          Kind            `json:"kind"`
	To            string          `json:"to"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	OrderNumber   string          `json:"orderNumber"`
	OrderDate     time.Time       `json:"orderDate"`
	Lines         []Line          `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	Shipping      string          `json:"shippingAddress"`
	PaymentMethod string          `json:"paymentMethod"`
}

func newMessage(kind Kind, to string, order *domain.Order, recipient domain.Recipient) Message {
	lines := make([]Line, 0, len(order.Items))
	for _, it := range order.Items {
		sub, err := it.Subtotal()
		if err != nil {
			sub = decimal.Zero
		}
		lines = append(lines, Line{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  sub,
		})
	}

	return Message{
		Kind:          kind,
		To:            to,
		CustomerName:  recipient.Name,
		CustomerEmail: recipient.Email,
		OrderNumber:   string(order.Number),
		OrderDate:     order.OrderDate,
		Lines:         lines,
		Total:         order.TotalAmount,
		Shipping:      order.ShippingAddress.String(),
		PaymentMethod: string(order.PaymentMethod),
	}
}
