package port

import (
	"context"

	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/google/uuid"
)

// InventoryLedger is the catalog side of checkout.
type InventoryLedger interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	ReadProduct(ctx context.Context, productID uint64) (*domain.Product, error)
	// ApplyStockDelta changes stock atomically. A delta that would drive the
	// stock below zero fails with domain.ErrInsufficientStock and changes nothing.
	ApplyStockDelta(ctx context.Context, productID uint64, delta int64) (*domain.Product, error)
}

type OrderRepository interface {
	// CreateOrder assigns the id. A taken number fails with domain.ErrDuplicateOrderNumber.
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReadOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID uint64) ([]*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	// UpdateOrder runs updateFn against the locked current row and stores the result.
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updateFn UpdateOrderFn) (*domain.Order, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID uint64) (*domain.User, error)
}

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type Repository interface {
	InventoryLedger
	OrderRepository
	UserRepository
}

type UpdateOrderFn func(*domain.Order) error

// Transactor runs fn in one storage transaction. Nested calls join the outer one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
