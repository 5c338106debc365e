package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikeRez0/novacart/internal/core/domain"
	"go.uber.org/zap"
)

func (s *Service) CreateProduct(ctx context.Context, who *domain.Identity, product *domain.Product) (*domain.Product, error) {
	if err := domain.Authorize(who, domain.AnyOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	product.InStock = product.StockQuantity > 0

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, s.clientError("Create product", err)
	}
	return created, nil
}

func (s *Service) GetProduct(ctx context.Context, productID uint64) (*domain.Product, error) {
	product, err := s.repo.ReadProduct(ctx, productID)
	if err != nil {
		return nil, s.clientError("Read product", err)
	}
	return product, nil
}

func (s *Service) AdjustStock(ctx context.Context, who *domain.Identity, productID uint64, delta int64) (*domain.Product, error) {
	if err := domain.Authorize(who, domain.AnyOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "delta", Message: "delta must not be zero"}}}
	}

	product, err := s.repo.ApplyStockDelta(ctx, productID, delta)
	if err != nil {
		return nil, s.clientError("Adjust stock", s.stockError(productID, err))
	}
	s.logger.Info("Stock adjusted",
		zap.Uint64("product", productID), zap.Int64("delta", delta), zap.Int64("stock", product.StockQuantity))
	return product, nil
}

func (s *Service) stockError(productID uint64, err error) error {
	if errors.Is(err, domain.ErrDataNotFound) || errors.Is(err, domain.ErrInsufficientStock) {
		return &domain.StockError{ProductID: productID, Err: err}
	}
	s.logger.Error("Stock update", zap.Uint64("product", productID), zap.Error(err))
	return fmt.Errorf("%w: stock update for product %d: %w", domain.ErrInternal, productID, err)
}
