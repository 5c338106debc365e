package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlaceOrder reserves stock for every line and stores the order. Either all
// lines are reserved and the order exists, or no stock has moved.
func (s *Service) PlaceOrder(ctx context.Context, who *domain.Identity, req domain.OrderRequest) (*domain.Order, error) {
	if err := domain.Authorize(who, domain.AnyOwner, domain.RoleUser); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var placed *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		items, err := s.reserveItems(ctx, req.Items)
		if err != nil {
			return err
		}

		order, err := domain.NewOrder(who.UserID, items, *req.ShippingAddress, req.PaymentMethod, s.now())
		if err != nil {
			s.logger.Error("Build order", zap.Error(err))
			err = domain.ErrInternal
		} else {
			placed, err = s.persistOrder(ctx, order)
		}
		if err != nil {
			if rerr := s.releaseItems(ctx, items); rerr != nil {
				return errors.Join(err, rerr)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.clientError("Place order", err)
	}

	s.logger.Info("Order placed",
		zap.String("order", string(placed.Number)),
		zap.Uint64("user", placed.UserID),
		zap.Stringer("total", placed.TotalAmount))

	s.notifyPlaced(ctx, placed)

	return placed, nil
}

// reserveItems decrements stock line by line in submitted order. On the first
// failure every earlier decrement is restored before returning.
func (s *Service) reserveItems(ctx context.Context, lines []domain.OrderLine) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.repo.ApplyStockDelta(ctx, line.ProductID, -line.Quantity)
		if err != nil {
			err = s.stockError(line.ProductID, err)
			if rerr := s.releaseItems(ctx, items); rerr != nil {
				return nil, errors.Join(err, rerr)
			}
			return nil, err
		}
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
		})
	}
	return items, nil
}

// releaseItems is the compensating restock. It keeps going past failures so
// that as much stock as possible is returned.
func (s *Service) releaseItems(ctx context.Context, items []domain.OrderItem) error {
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if _, err := s.repo.ApplyStockDelta(ctx, it.ProductID, it.Quantity); err != nil {
			s.logger.Error("Compensating restock",
				zap.Uint64("product", it.ProductID), zap.Int64("quantity", it.Quantity), zap.Error(err))
			errs = append(errs, fmt.Errorf("%w: restock product %d: %w", domain.ErrInternal, it.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) persistOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	for attempt := 1; attempt <= s.policy.NumberAttempts; attempt++ {
		order.Number = s.newNumber(s.now())

		created, err := s.repo.CreateOrder(ctx, order)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrDuplicateOrderNumber) {
			s.logger.Error("Create order", zap.Error(err))
			return nil, fmt.Errorf("%w: create order: %w", domain.ErrInternal, err)
		}
		s.logger.Warn("Order number collision",
			zap.String("order", string(order.Number)), zap.Int("attempt", attempt))
	}

	s.logger.Error("Order number attempts exhausted", zap.Int("attempts", s.policy.NumberAttempts))
	return nil, domain.ErrInternal
}

func (s *Service) notifyPlaced(ctx context.Context, order *domain.Order) {
	user, err := s.repo.GetUserByID(ctx, order.UserID)
	if err != nil {
		s.logger.Warn("Notification recipient lookup",
			zap.String("order", string(order.Number)), zap.Error(err))
		return
	}
	s.notifier.OrderPlaced(order, domain.Recipient{Name: user.Name, Email: user.Email})
}

func (s *Service) GetOrder(ctx context.Context, who *domain.Identity, orderID uuid.UUID) (*domain.Order, error) {
	if err := domain.Authorize(who, domain.AnyOwner, domain.RoleUser); err != nil {
		return nil, err
	}

	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		return nil, s.clientError("Read order", err)
	}

	if err := domain.Authorize(who, order.UserID, domain.RoleUser); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) GetOrdersByUser(ctx context.Context, who *domain.Identity) ([]*domain.Order, error) {
	if err := domain.Authorize(who, domain.AnyOwner, domain.RoleUser); err != nil {
		return nil, err
	}

	list, err := s.repo.ListOrdersByUser(ctx, who.UserID)
	if err != nil {
		return nil, s.clientError("Get orders for user", err)
	}
	return list, nil
}

func (s *Service) GetAllOrders(ctx context.Context, who *domain.Identity) ([]*domain.Order, error) {
	if err := domain.Authorize(who, domain.AnyOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}

	list, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, s.clientError("Get all orders", err)
	}
	return list, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, who *domain.Identity, orderID uuid.UUID,
	update domain.StatusUpdate) (*domain.Order, error) {
	if err := domain.Authorize(who, domain.AnyOwner, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var (
		updated  *domain.Order
		previous domain.OrderStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.UpdateOrder(ctx, orderID, func(o *domain.Order) error {
			previous = o.Status
			return o.ApplyStatusUpdate(update)
		})
		if err != nil {
			return err
		}

		if s.policy.RestockOnCancel &&
			previous != domain.OrderStatusCancelled && updated.Status == domain.OrderStatusCancelled {
			return s.restock(ctx, updated)
		}
		return nil
	})
	if err != nil {
		return nil, s.clientError("Update order status", err)
	}

	s.logger.Info("Order status updated",
		zap.String("order", string(updated.Number)),
		zap.String("from", string(previous)),
		zap.String("status", string(updated.Status)),
		zap.String("payment", string(updated.PaymentStatus)))

	return updated, nil
}

// restock returns the quantities of a cancelled order to the catalog.
// Products that no longer exist are skipped.
func (s *Service) restock(ctx context.Context, order *domain.Order) error {
	for _, it := range order.Items {
		_, err := s.repo.ApplyStockDelta(ctx, it.ProductID, it.Quantity)
		if errors.Is(err, domain.ErrDataNotFound) {
			s.logger.Warn("Restock skipped, product gone",
				zap.String("order", string(order.Number)), zap.Uint64("product", it.ProductID))
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
