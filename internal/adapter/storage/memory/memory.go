package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/MikeRez0/novacart/internal/core/port"
	"github.com/google/uuid"
)

// Store keeps the catalog, orders and users in process memory. Every
// operation is atomic under one mutex; there is no rollback, so multi-step
// work relies on the caller's compensation.
type Store struct {
	mu       sync.RWMutex
	products map[uint64]domain.Product
	orders   map[uuid.UUID]*domain.Order
	numbers  map[domain.OrderNumber]uuid.UUID
	users    map[uint64]domain.User
	emails   map[string]uint64
	seqProd  uint64
	seqUser  uint64
	now      func() time.Time
}

func New() *Store {
	return &Store{
		products: make(map[uint64]domain.Product),
		orders:   make(map[uuid.UUID]*domain.Order),
		numbers:  make(map[domain.OrderNumber]uuid.UUID),
		users:    make(map[uint64]domain.User),
		emails:   make(map[string]uint64),
		now:      time.Now,
	}
}

var (
	_ port.Repository = (*Store)(nil)
	_ port.Transactor = (*Store)(nil)
)

// WithinTx runs fn directly. Single operations are already atomic here.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) CreateProduct(_ context.Context, product *domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seqProd++
	p := *product
	p.ID = s.seqProd
	p.InStock = p.StockQuantity > 0
	p.UpdatedAt = s.now()
	s.products[p.ID] = p
	return &p, nil
}

func (s *Store) ReadProduct(_ context.Context, productID uint64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	return &p, nil
}

// ApplyStockDelta checks and writes under the same lock, so concurrent
// decrements can never drive stock negative.
func (s *Store) ApplyStockDelta(_ context.Context, productID uint64, delta int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	if err := p.ApplyDelta(delta); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()
	s.products[productID] = p
	return &p, nil
}

func (s *Store) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.numbers[order.Number]; taken {
		return nil, domain.ErrDuplicateOrderNumber
	}

	o := cloneOrder(order)
	o.ID = uuid.New()
	o.User = nil
	s.orders[o.ID] = o
	s.numbers[o.Number] = o.ID

	order.ID = o.ID
	return cloneOrder(o), nil
}

func (s *Store) ReadOrder(_ context.Context, orderID uuid.UUID) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID uint64) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*domain.Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			list = append(list, cloneOrder(o))
		}
	}
	sortNewestFirst(list)
	return list, nil
}

func (s *Store) ListOrders(_ context.Context) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		c := cloneOrder(o)
		if u, ok := s.users[o.UserID]; ok {
			c.User = &domain.User{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		list = append(list, c)
	}
	sortNewestFirst(list)
	return list, nil
}

// UpdateOrder holds the write lock while updateFn runs; updateFn must not
// call back into the store.
func (s *Store) UpdateOrder(_ context.Context, orderID uuid.UUID, updateFn port.UpdateOrderFn) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}

	c := cloneOrder(o)
	if err := updateFn(c); err != nil {
		return nil, err
	}
	o.Status = c.Status
	o.PaymentStatus = c.PaymentStatus
	return cloneOrder(o), nil
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[user.Email]; taken {
		return nil, domain.ErrConflictingData
	}

	s.seqUser++
	u := *user
	u.ID = s.seqUser
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, userID uint64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	return &u, nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	if o.User != nil {
		u := *o.User
		c.User = &u
	}
	return &c
}

func sortNewestFirst(list []*domain.Order) {
	slices.SortFunc(list, func(a, b *domain.Order) int {
		if c := b.OrderDate.Compare(a.OrderDate); c != 0 {
			return c
		}
		return strings.Compare(string(b.Number), string(a.Number))
	})
}
