package domain

import (
	"strings"
	"time"

	"github.com/govalues/decimal"
)

// Product is the catalog record the order engine reads and reserves against.
type Product struct {
	ID            uint64
	Name          string
	Description   string
	Category      string
	Price         decimal.Decimal
	StockQuantity int64
	InStock       bool
	UpdatedAt     time.Time
}

// ApplyDelta shifts the stock level, refusing to go below zero.
func (p *Product) ApplyDelta(delta int64) error {
	if p.StockQuantity+delta < 0 {
		return ErrInsufficientStock
	}
	p.StockQuantity += delta
	p.InStock = p.StockQuantity > 0
	return nil
}

func (p *Product) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(p.Name) == "" {
		verr.Add("name", "name is required")
	}
	if p.Price.IsNeg() {
		verr.Add("price", "price must not be negative")
	}
	if p.StockQuantity < 0 {
		verr.Add("stockQuantity", "stock quantity must not be negative")
	}
	return verr.OrNil()
}
