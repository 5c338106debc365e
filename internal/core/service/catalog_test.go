package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/MikeRez0/novacart/internal/core/port/mock"
	"github.com/MikeRez0/novacart/internal/core/service"
	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CreateProduct(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	tests := []struct {
		name     string
		who      *domain.Identity
		product  domain.Product
		mock     prepareMocks
		expError error
	}{
		{
			name:    "Created",
			who:     admin,
			product: domain.Product{Name: "Lamp", Price: decimal.MustNew(1999, 2), StockQuantity: 4},
			mock: func(repo *mock.MockRepository, _ *mock.MockNotifier) {
				repo.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p *domain.Product) (*domain.Product, error) {
						assert.True(t, p.InStock)
						c := *p
						c.ID = 7
						return &c, nil
					})
			},
		},
		{
			name:     "Not admin",
			who:      customer,
			product:  domain.Product{Name: "Lamp"},
			expError: domain.ErrForbidden,
		},
		{
			name:     "Negative stock",
			who:      admin,
			product:  domain.Product{Name: "Lamp", StockQuantity: -1},
			expError: domain.ErrInvalidRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newTestService(t, mockCtrl, service.Policy{}, test.mock)

			p, err := s.CreateProduct(context.Background(), test.who, &test.product)
			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(7), p.ID)
		})
	}
}

func TestService_AdjustStock(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	tests := []struct {
		name       string
		who        *domain.Identity
		delta      int64
		mock       prepareMocks
		expError   error
		expProduct bool
	}{
		{
			name:  "Restock",
			who:   admin,
			delta: 5,
			mock: func(repo *mock.MockRepository, _ *mock.MockNotifier) {
				repo.EXPECT().ApplyStockDelta(gomock.Any(), uint64(1), int64(5)).Return(lamp, nil)
			},
		},
		{
			name:  "Below zero",
			who:   admin,
			delta: -10,
			mock: func(repo *mock.MockRepository, _ *mock.MockNotifier) {
				repo.EXPECT().ApplyStockDelta(gomock.Any(), uint64(1), int64(-10)).Return(nil, domain.ErrInsufficientStock)
			},
			expError:   domain.ErrInsufficientStock,
			expProduct: true,
		},
		{
			name:  "Unknown product",
			who:   admin,
			delta: 1,
			mock: func(repo *mock.MockRepository, _ *mock.MockNotifier) {
				repo.EXPECT().ApplyStockDelta(gomock.Any(), uint64(1), int64(1)).Return(nil, domain.ErrDataNotFound)
			},
			expError:   domain.ErrDataNotFound,
			expProduct: true,
		},
		{
			name:  "Storage fault",
			who:   admin,
			delta: 1,
			mock: func(repo *mock.MockRepository, _ *mock.MockNotifier) {
				repo.EXPECT().ApplyStockDelta(gomock.Any(), uint64(1), int64(1)).Return(nil, errors.New("timeout"))
			},
			expError: domain.ErrInternal,
		},
		{
			name:     "Zero delta",
			who:      admin,
			expError: domain.ErrInvalidRequest,
		},
		{
			name:     "Not admin",
			who:      customer,
			delta:    1,
			expError: domain.ErrForbidden,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newTestService(t, mockCtrl, service.Policy{}, test.mock)

			p, err := s.AdjustStock(context.Background(), test.who, 1, test.delta)
			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
				var serr *domain.StockError
				assert.Equal(t, test.expProduct, errors.As(err, &serr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, lamp, p)
		})
	}
}

func TestService_GetProduct(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	s := newTestService(t, mockCtrl, service.Policy{}, func(repo *mock.MockRepository, _ *mock.MockNotifier) {
		repo.EXPECT().ReadProduct(gomock.Any(), uint64(1)).Return(lamp, nil)
		repo.EXPECT().ReadProduct(gomock.Any(), uint64(5)).Return(nil, domain.ErrDataNotFound)
	})

	p, err := s.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, lamp, p)

	_, err = s.GetProduct(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrDataNotFound)
}
