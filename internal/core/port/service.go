package port

import (
	"context"

	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/google/uuid"
)

type Service interface {
	RegisterUser(ctx context.Context, who *domain.Identity, user *domain.User) (*domain.User, error)
	LoginUser(ctx context.Context, email string, password string) (string, error)
	EnsureAdmin(ctx context.Context, name, email, password string) error

	CreateProduct(ctx context.Context, who *domain.Identity, product *domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, productID uint64) (*domain.Product, error)
	AdjustStock(ctx context.Context, who *domain.Identity, productID uint64, delta int64) (*domain.Product, error)

	PlaceOrder(ctx context.Context, who *domain.Identity, req domain.OrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, who *domain.Identity, orderID uuid.UUID) (*domain.Order, error)
	GetOrdersByUser(ctx context.Context, who *domain.Identity) ([]*domain.Order, error)
	GetAllOrders(ctx context.Context, who *domain.Identity) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, who *domain.Identity, orderID uuid.UUID,
		update domain.StatusUpdate) (*domain.Order, error)
}
