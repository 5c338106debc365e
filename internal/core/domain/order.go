package domain

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

type OrderNumber string

// NewOrderNumber builds ORD-<epoch millis>-<zero padded 4 digit random>.
func NewOrderNumber(now time.Time) OrderNumber {
	return OrderNumber(fmt.Sprintf("ORD-%d-%04d", now.UnixMilli(), rand.IntN(10000)))
}

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "Credit Card"
	PaymentMethodPayPal PaymentMethod = "PayPal"
	PaymentMethodCOD    PaymentMethod = "Cash on Delivery"
)

var paymentMethods = []PaymentMethod{PaymentMethodCard, PaymentMethodPayPal, PaymentMethodCOD}

func (m PaymentMethod) Valid() bool {
	return slices.Contains(paymentMethods, m)
}

type Address struct {
	Address string
	City    string
	State   string
	Zip     string
}

func (a Address) String() string {
	return fmt.Sprintf("%s, %s, %s %s", a.Address, a.City, a.State, a.Zip)
}

// OrderItem is the purchase-time snapshot of one line.
type OrderItem struct {
	ProductID uint64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int64
}

func (i OrderItem) Subtotal() (decimal.Decimal, error) {
	qty, err := decimal.New(i.Quantity, 0)
	if err != nil {
		return decimal.Zero, err
	}
	return i.UnitPrice.Mul(qty)
}

type Order struct {
	ID              uuid.UUID
	Number          OrderNumber
	UserID          uint64
	Items           []OrderItem
	TotalAmount     decimal.Decimal
	ShippingAddress Address
	PaymentMethod   PaymentMethod
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	OrderDate       time.Time
	User            *User
}

// SumItems recomputes the total from the line snapshots.
func SumItems(items []OrderItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, it := range items {
		sub, err := it.Subtotal()
		if err != nil {
			return decimal.Zero, fmt.Errorf("subtotal of product %d: %w", it.ProductID, err)
		}
		total, err = total.Add(sub)
		if err != nil {
			return decimal.Zero, fmt.Errorf("total: %w", err)
		}
	}
	return total, nil
}

// NewOrder assembles an order from reserved lines in its initial states.
func NewOrder(userID uint64, items []OrderItem, addr Address, method PaymentMethod, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Fields: []FieldError{{Field: "items", Message: "at least one item is required"}}}
	}
	total, err := SumItems(items)
	if err != nil {
		return nil, err
	}
	return &Order{
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: addr,
		PaymentMethod:   method,
		Status:          InitialOrderStatus,
		PaymentStatus:   InitialPaymentStatus,
		OrderDate:       now,
	}, nil
}

type OrderLine struct {
	ProductID uint64
	Quantity  int64
}

// OrderRequest is a checkout submitted by a client.
type OrderRequest struct {
	Items           []OrderLine
	ShippingAddress *Address
	PaymentMethod   PaymentMethod
}

func (r OrderRequest) Validate() error {
	verr := &ValidationError{}
	if len(r.Items) == 0 {
		verr.Add("items", "at least one item is required")
	}
	for i, it := range r.Items {
		if it.ProductID == 0 {
			verr.Add(fmt.Sprintf("items[%d].productId", i), "product id is required")
		}
		if it.Quantity <= 0 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "quantity must be positive")
		}
	}

	if r.ShippingAddress == nil {
		verr.Add("shippingAddress", "shipping address is required")
	} else {
		fields := map[string]string{
			"address": r.ShippingAddress.Address,
			"city":    r.ShippingAddress.City,
			"state":   r.ShippingAddress.State,
			"zip":     r.ShippingAddress.Zip,
		}
		for _, name := range []string{"address", "city", "state", "zip"} {
			if strings.TrimSpace(fields[name]) == "" {
				verr.Add("shippingAddress."+name, name+" is required")
			}
		}
	}

	switch {
	case strings.TrimSpace(string(r.PaymentMethod)) == "":
		verr.Add("paymentMethod", "payment method is required")
	case !r.PaymentMethod.Valid():
		verr.Add("paymentMethod", "unsupported payment method")
	}

	return verr.OrNil()
}
