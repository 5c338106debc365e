package service_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MikeRez0/novacart/internal/adapter/auth"
	"github.com/MikeRez0/novacart/internal/adapter/config"
	"github.com/MikeRez0/novacart/internal/adapter/storage"
	"github.com/MikeRez0/novacart/internal/adapter/storage/repository"
	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/MikeRez0/novacart/internal/core/service"
	"github.com/MikeRez0/novacart/internal/e2etest/testdb"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dbtest *testdb.TestDBInstance

func setup() {
	var err error
	dbtest, err = testdb.NewTestDBInstance()
	if err != nil {
		log.Printf("postgres tests disabled: %v", err)
		dbtest = nil
	}
}

func shutdown() {
	if dbtest != nil {
		dbtest.Down()
	}
}

func TestMain(m *testing.M) {
	setup()
	code := m.Run()
	shutdown()
	os.Exit(code)
}

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(*domain.Order, domain.Recipient) {}

type env struct {
	repo *repository.Repository
	svc  *service.Service
}

func getDeps(t *testing.T, policy service.Policy) *env {
	t.Helper()
	if dbtest == nil {
		t.Skip("no container runtime")
	}

	db, err := storage.NewDBStorage(context.Background(), &config.Database{DSN: dbtest.DSN})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.RunMigrations())

	repo, err := repository.NewRepository(db)
	require.NoError(t, err)
	ts, err := auth.New(&config.Auth{})
	require.NoError(t, err)

	svc, err := service.NewService(repo, db, ts, nopNotifier{}, policy, zap.NewNop())
	require.NoError(t, err)
	return &env{repo: repo, svc: svc}
}

var emailSeq atomic.Int64

func uniqueEmail(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("u%d-%d@example.com", time.Now().UnixNano(), emailSeq.Add(1))
}

func (e *env) buyer(t *testing.T) *domain.Identity {
	t.Helper()
	u, err := e.svc.RegisterUser(context.Background(), nil,
		&domain.User{Name: "Buyer", Email: uniqueEmail(t), Password: "secret1"})
	require.NoError(t, err)
	return &domain.Identity{UserID: u.ID, Role: u.Role}
}

func (e *env) product(t *testing.T, stock int64) uint64 {
	t.Helper()
	p, err := e.repo.CreateProduct(context.Background(),
		&domain.Product{Name: "Lamp", Price: decimal.MustNew(1250, 2), StockQuantity: stock, InStock: stock > 0})
	require.NoError(t, err)
	return p.ID
}

func (e *env) stock(t *testing.T, id uint64) int64 {
	t.Helper()
	p, err := e.repo.ReadProduct(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func request(lines ...domain.OrderLine) domain.OrderRequest {
	return domain.OrderRequest{
		Items:           lines,
		ShippingAddress: &domain.Address{Address: "1 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		PaymentMethod:   domain.PaymentMethodPayPal,
	}
}

func TestServiceDB_UserRegister(t *testing.T) {
	e := getDeps(t, service.Policy{})
	ctx := context.Background()
	email := uniqueEmail(t)

	u, err := e.svc.RegisterUser(ctx, nil, &domain.User{Name: "Ann", Email: email, Password: "secret1"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, domain.RoleUser, u.Role)

	_, err = e.svc.RegisterUser(ctx, nil, &domain.User{Name: "Ann", Email: email, Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrConflictingData)

	token, err := e.svc.LoginUser(ctx, email, "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestServiceDB_LastUnit(t *testing.T) {
	e := getDeps(t, service.Policy{})
	p1 := e.product(t, 1)
	first, second := e.buyer(t), e.buyer(t)

	var placed, short atomic.Int64
	g := errgroup.Group{}
	for _, who := range []*domain.Identity{first, second} {
		g.Go(func() error {
			_, err := e.svc.PlaceOrder(context.Background(), who, request(domain.OrderLine{ProductID: p1, Quantity: 1}))
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
	assert.Equal(t, int64(0), e.stock(t, p1))
}

func TestServiceDB_AllOrNothing(t *testing.T) {
	e := getDeps(t, service.Policy{})
	p1, p2 := e.product(t, 5), e.product(t, 1)
	who := e.buyer(t)

	_, err := e.svc.PlaceOrder(context.Background(), who, request(
		domain.OrderLine{ProductID: p1, Quantity: 2},
		domain.OrderLine{ProductID: p2, Quantity: 2},
	))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(5), e.stock(t, p1))
	assert.Equal(t, int64(1), e.stock(t, p2))

	orders, err := e.svc.GetOrdersByUser(context.Background(), who)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestServiceDB_NoOverselling(t *testing.T) {
	e := getDeps(t, service.Policy{})
	p1, p2 := e.product(t, 8), e.product(t, 5)
	who := e.buyer(t)

	g := errgroup.Group{}
	for i := range 30 {
		g.Go(func() error {
			lines := []domain.OrderLine{{ProductID: p1, Quantity: 1}}
			if i%3 == 0 {
				lines = []domain.OrderLine{{ProductID: p2, Quantity: 1}, {ProductID: p1, Quantity: 1}}
			}
			_, err := e.svc.PlaceOrder(context.Background(), who, request(lines...))
			if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	orders, err := e.svc.GetOrdersByUser(context.Background(), who)
	require.NoError(t, err)

	sold := map[uint64]int64{}
	for _, o := range orders {
		total, err := domain.SumItems(o.Items)
		require.NoError(t, err)
		assert.Zero(t, total.Cmp(o.TotalAmount))
		for _, it := range o.Items {
			sold[it.ProductID] += it.Quantity
		}
	}
	assert.Equal(t, int64(8), sold[p1]+e.stock(t, p1))
	assert.Equal(t, int64(5), sold[p2]+e.stock(t, p2))
}

func TestServiceDB_DuplicateNumber(t *testing.T) {
	e := getDeps(t, service.Policy{})
	p1 := e.product(t, 2)
	who := e.buyer(t)

	ms := time.Now().UnixMilli()
	taken := domain.OrderNumber(fmt.Sprintf("ORD-%d-0001", ms))
	fresh := domain.OrderNumber(fmt.Sprintf("ORD-%d-0002", ms))
	calls := 0
	e.svc.WithOrderNumbers(func(time.Time) domain.OrderNumber {
		calls++
		if calls <= 2 {
			return taken
		}
		return fresh
	})

	first, err := e.svc.PlaceOrder(context.Background(), who, request(domain.OrderLine{ProductID: p1, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, taken, first.Number)

	second, err := e.svc.PlaceOrder(context.Background(), who, request(domain.OrderLine{ProductID: p1, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, fresh, second.Number)
	assert.Equal(t, int64(0), e.stock(t, p1))
}

func TestServiceDB_StatusFlow(t *testing.T) {
	e := getDeps(t, service.Policy{RestockOnCancel: true})
	ctx := context.Background()
	p1 := e.product(t, 4)
	who, stranger := e.buyer(t), e.buyer(t)
	admin := &domain.Identity{UserID: 1_000_000, Role: domain.RoleAdmin}

	order, err := e.svc.PlaceOrder(ctx, who, request(domain.OrderLine{ProductID: p1, Quantity: 3}))
	require.NoError(t, err)
	assert.Equal(t, "37.50", order.TotalAmount.String())

	got, err := e.svc.GetOrder(ctx, who, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Number, got.Number)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Lamp", got.Items[0].Name)

	_, err = e.svc.GetOrder(ctx, stranger, order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	all, err := e.svc.GetAllOrders(ctx, admin)
	require.NoError(t, err)
	var found bool
	for _, o := range all {
		if o.ID == order.ID {
			found = true
			require.NotNil(t, o.User)
			assert.Equal(t, "Buyer", o.User.Name)
		}
	}
	assert.True(t, found)

	paid := domain.PaymentStatusPaid
	updated, err := e.svc.UpdateOrderStatus(ctx, admin, order.ID, domain.StatusUpdate{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)

	cancelled := domain.OrderStatusCancelled
	_, err = e.svc.UpdateOrderStatus(ctx, admin, order.ID, domain.StatusUpdate{OrderStatus: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(4), e.stock(t, p1))

	processing := domain.OrderStatusProcessing
	_, err = e.svc.UpdateOrderStatus(ctx, admin, order.ID, domain.StatusUpdate{OrderStatus: &processing})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := e.repo.ReadOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, stored.Status)
	assert.Equal(t, domain.PaymentStatusPaid, stored.PaymentStatus)
}

func TestServiceDB_ConcurrentTransitions(t *testing.T) {
	e := getDeps(t, service.Policy{RestockOnCancel: true})
	ctx := context.Background()
	const rounds = 20
	p1 := e.product(t, rounds)
	who := e.buyer(t)
	admin := &domain.Identity{UserID: 1_000_000, Role: domain.RoleAdmin}

	var cancels int64
	for range rounds {
		order, err := e.svc.PlaceOrder(ctx, who, request(domain.OrderLine{ProductID: p1, Quantity: 1}))
		require.NoError(t, err)

		var won, lost atomic.Int64
		g := errgroup.Group{}
		for _, target := range []domain.OrderStatus{domain.OrderStatusShipped, domain.OrderStatusCancelled,
			domain.OrderStatusCancelled} {
			g.Go(func() error {
				_, err := e.svc.UpdateOrderStatus(ctx, admin, order.ID, domain.StatusUpdate{OrderStatus: &target})
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

		stored, err := e.repo.ReadOrder(ctx, order.ID)
		require.NoError(t, err)
		if stored.Status == domain.OrderStatusCancelled {
			cancels++
		}
	}

	assert.Equal(t, cancels, e.stock(t, p1))
}
