package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MikeRez0/novacart/internal/adapter/auth"
	"github.com/MikeRez0/novacart/internal/adapter/config"
	"github.com/MikeRez0/novacart/internal/adapter/storage/memory"
	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/MikeRez0/novacart/internal/core/service"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) OrderPlaced(*domain.Order, domain.Recipient) {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

type memoryEnv struct {
	store    *memory.Store
	svc      *service.Service
	notifier *countingNotifier
	buyer    *domain.Identity
}

func newMemoryEnv(t *testing.T, policy service.Policy) *memoryEnv {
	t.Helper()

	store := memory.New()
	ts, err := auth.New(&config.Auth{})
	require.NoError(t, err)
	notifier := &countingNotifier{}
	svc, err := service.NewService(store, store, ts, notifier, policy, zap.NewNop())
	require.NoError(t, err)

	u, err := store.CreateUser(context.Background(),
		&domain.User{Name: "Ann", Email: "ann@example.com", Role: domain.RoleUser})
	require.NoError(t, err)

	return &memoryEnv{
		store:    store,
		svc:      svc,
		notifier: notifier,
		buyer:    &domain.Identity{UserID: u.ID, Role: u.Role},
	}
}

func (e *memoryEnv) product(t *testing.T, name string, price int64, stock int64) uint64 {
	t.Helper()
	p, err := e.store.CreateProduct(context.Background(),
		&domain.Product{Name: name, Price: decimal.MustNew(price, 2), StockQuantity: stock})
	require.NoError(t, err)
	return p.ID
}

func (e *memoryEnv) stock(t *testing.T, id uint64) int64 {
	t.Helper()
	p, err := e.store.ReadProduct(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func request(lines ...domain.OrderLine) domain.OrderRequest {
	return domain.OrderRequest{
		Items:           lines,
		ShippingAddress: &domain.Address{Address: "1 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		PaymentMethod:   domain.PaymentMethodCOD,
	}
}

func TestPlaceOrder_LastUnit(t *testing.T) {
	env := newMemoryEnv(t, service.Policy{})
	p1 := env.product(t, "Lamp", 1000, 1)

	var placed, short atomic.Int64
	g := errgroup.Group{}
	for range 2 {
		g.Go(func() error {
			_, err := env.svc.PlaceOrder(context.Background(), env.buyer, request(domain.OrderLine{ProductID: p1, Quantity: 1}))
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				short.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), placed.Load())
	assert.Equal(t, int64(1), short.Load())
	assert.Equal(t, int64(0), env.stock(t, p1))

	p, err := env.store.ReadProduct(context.Background(), p1)
	require.NoError(t, err)
	assert.False(t, p.InStock)
}

func TestPlaceOrder_AllOrNothing(t *testing.T) {
	env := newMemoryEnv(t, service.Policy{})
	p1 := env.product(t, "Lamp", 1000, 5)
	p2 := env.product(t, "Mug", 550, 1)

	_, err := env.svc.PlaceOrder(context.Background(), env.buyer, request(
		domain.OrderLine{ProductID: p1, Quantity: 2},
		domain.OrderLine{ProductID: p2, Quantity: 2},
	))

	var serr *domain.StockError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, p2, serr.ProductID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(5), env.stock(t, p1))
	assert.Equal(t, int64(1), env.stock(t, p2))

	orders, err := env.svc.GetOrdersByUser(context.Background(), env.buyer)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_NoOverselling(t *testing.T) {
	env := newMemoryEnv(t, service.Policy{})
	p1 := env.product(t, "Lamp", 1000, 10)
	p2 := env.product(t, "Mug", 550, 7)

	g := errgroup.Group{}
	for i := range 60 {
		g.Go(func() error {
			lines := []domain.OrderLine{{ProductID: p1, Quantity: 1}}
			if i%2 == 0 {
				lines = append(lines, domain.OrderLine{ProductID: p2, Quantity: 1})
			}
			_, err := env.svc.PlaceOrder(context.Background(), env.buyer, request(lines...))
			if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	orders, err := env.svc.GetOrdersByUser(context.Background(), env.buyer)
	require.NoError(t, err)

	sold := map[uint64]int64{}
	numbers := map[domain.OrderNumber]bool{}
	for _, o := range orders {
		assert.False(t, numbers[o.Number], "duplicate order number %s", o.Number)
		numbers[o.Number] = true
		assert.Regexp(t, `^ORD-\d+-\d{4}$`, string(o.Number))

		total, err := domain.SumItems(o.Items)
		require.NoError(t, err)
		assert.Equal(t, total, o.TotalAmount)

		for _, it := range o.Items {
			sold[it.ProductID] += it.Quantity
		}
	}

	assert.Equal(t, int64(10), sold[p1]+env.stock(t, p1))
	assert.Equal(t, int64(7), sold[p2]+env.stock(t, p2))
	assert.GreaterOrEqual(t, env.stock(t, p1), int64(0))
	assert.GreaterOrEqual(t, env.stock(t, p2), int64(0))
	assert.Equal(t, len(orders), env.notifier.count)
}

func TestUpdateOrderStatus_CancelRestocks(t *testing.T) {
	ctx := context.Background()
	env := newMemoryEnv(t, service.Policy{RestockOnCancel: true})
	p1 := env.product(t, "Lamp", 1000, 3)
	boss := &domain.Identity{UserID: 500, Role: domain.RoleAdmin}

	order, err := env.svc.PlaceOrder(ctx, env.buyer, request(domain.OrderLine{ProductID: p1, Quantity: 3}))
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.stock(t, p1))

	cancelled := domain.OrderStatusCancelled
	_, err = env.svc.UpdateOrderStatus(ctx, boss, order.ID, domain.StatusUpdate{OrderStatus: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(3), env.stock(t, p1))

	_, err = env.svc.UpdateOrderStatus(ctx, boss, order.ID, domain.StatusUpdate{OrderStatus: &cancelled})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(3), env.stock(t, p1))

	shipped := domain.OrderStatusShipped
	_, err = env.svc.UpdateOrderStatus(ctx, boss, order.ID, domain.StatusUpdate{OrderStatus: &shipped})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUpdateOrderStatus_ConcurrentTransitions(t *testing.T) {
	ctx := context.Background()
	env := newMemoryEnv(t, service.Policy{RestockOnCancel: true})
	const rounds = 200
	p1 := env.product(t, "Lamp", 1000, rounds)
	boss := &domain.Identity{UserID: 500, Role: domain.RoleAdmin}

	var cancels int64
	for range rounds {
		order, err := env.svc.PlaceOrder(ctx, env.buyer, request(domain.OrderLine{ProductID: p1, Quantity: 1}))
		require.NoError(t, err)

		var won, lost atomic.Int64
		g := errgroup.Group{}
		for _, target := range []domain.OrderStatus{domain.OrderStatusShipped, domain.OrderStatusCancelled,
			domain.OrderStatusCancelled} {
			g.Go(func() error {
				_, err := env.svc.UpdateOrderStatus(ctx, boss, order.ID, domain.StatusUpdate{OrderStatus: &target})
				switch {
				case err == nil:
					won.Add(1)
				case errors.Is(err, domain.ErrInvalidTransition):
					lost.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		require.Equal(t, int64(1), won.Load())
		require.Equal(t, int64(2), lost.Load())

		stored, err := env.store.ReadOrder(ctx, order.ID)
		require.NoError(t, err)
		if stored.Status == domain.OrderStatusCancelled {
			cancels++
		}
	}

	// each cancelled order gives its single unit back exactly once
	assert.Equal(t, cancels, env.stock(t, p1))
}
