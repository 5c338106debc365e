package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/MikeRez0/novacart/internal/core/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var orderColumns = []string{
	"o.id", "o.order_number", "o.user_id", "o.total_amount",
	"o.ship_address", "o.ship_city", "o.ship_state", "o.ship_zip",
	"o.payment_method", "o.order_status", "o.payment_status", "o.order_date",
}

func orderDest(o *domain.Order) []any {
	return []any{
		&o.ID, &o.Number, &o.UserID, &o.TotalAmount,
		&o.ShippingAddress.Address, &o.ShippingAddress.City,
		&o.ShippingAddress.State, &o.ShippingAddress.Zip,
		&o.PaymentMethod, &o.Status, &o.PaymentStatus, &o.OrderDate,
	}
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	order.ID = uuid.New()

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		statement := r.db.QueryBuilder.
			Insert("orders").
			Columns("id", "order_number", "user_id", "total_amount",
				"ship_address", "ship_city", "ship_state", "ship_zip",
				"payment_method", "order_status", "payment_status", "order_date").
			Values(order.ID, order.Number, order.UserID, order.TotalAmount,
				order.ShippingAddress.Address, order.ShippingAddress.City,
				order.ShippingAddress.State, order.ShippingAddress.Zip,
				order.PaymentMethod, order.Status, order.PaymentStatus, order.OrderDate).
			Suffix("ON CONFLICT (order_number) DO NOTHING RETURNING order_date")

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}

		q := r.db.Querier(ctx)
		err = q.QueryRow(ctx, sql, args...).Scan(&order.OrderDate)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrDuplicateOrderNumber
			}
			return err
		}

		items := r.db.QueryBuilder.
			Insert("order_items").
			Columns("order_id", "position", "product_id", "name", "unit_price", "quantity")
		for i, it := range order.Items {
			items = items.Values(order.ID, i, it.ProductID, it.Name, it.UnitPrice, it.Quantity)
		}

		sql, args, err = items.ToSql()
		if err != nil {
			return err
		}
		_, err = q.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *Repository) ReadOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders o").
		Where(sq.Eq{"o.id": orderID})

	return r.readOrder(ctx, statement)
}

func (r *Repository) readOrder(ctx context.Context, statement sq.SelectBuilder) (*domain.Order, error) {
	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order := domain.Order{}
	err = r.db.Querier(ctx).QueryRow(ctx, sql, args...).Scan(orderDest(&order)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	if err := r.loadItems(ctx, []*domain.Order{&order}); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID uint64) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders o").
		Where(sq.Eq{"o.user_id": userID}).
		OrderBy("o.order_date DESC", "o.order_number DESC")

	return r.listOrders(ctx, statement, false)
}

func (r *Repository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(append(orderColumns, "u.name", "u.email")...).
		From("orders o").
		LeftJoin("users u ON u.id = o.user_id").
		OrderBy("o.order_date DESC", "o.order_number DESC")

	return r.listOrders(ctx, statement, true)
}

func (r *Repository) listOrders(ctx context.Context, statement sq.SelectBuilder, withUser bool) ([]*domain.Order, error) {
	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Order, 0)
	for rows.Next() {
		order := domain.Order{}
		dest := orderDest(&order)

		var name, email *string
		if withUser {
			dest = append(dest, &name, &email)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if name != nil && email != nil {
			order.User = &domain.User{ID: order.UserID, Name: *name, Email: *email}
		}
		list = append(list, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// loadItems fills the line snapshots of the given orders with one query.
func (r *Repository) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	statement := r.db.QueryBuilder.
		Select("order_id", "product_id", "name", "unit_price", "quantity").
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		OrderBy("order_id", "position")

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.Querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		it := domain.OrderItem{}
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

// UpdateOrder locks the order row, lets updateFn mutate it and writes the
// statuses back. Concurrent updates of one order run one after another.
func (r *Repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updateFn port.UpdateOrderFn) (*domain.Order, error) {
	var order *domain.Order

	err := r.db.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = r.readOrder(ctx, r.db.QueryBuilder.
			Select(orderColumns...).
			From("orders o").
			Where(sq.Eq{"o.id": orderID}).
			Suffix("FOR UPDATE"))
		if err != nil {
			return err
		}

		if err := updateFn(order); err != nil {
			return err
		}

		statement := r.db.QueryBuilder.
			Update("orders").
			Set("order_status", order.Status).
			Set("payment_status", order.PaymentStatus).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.Eq{"id": orderID})

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}
		_, err = r.db.Querier(ctx).Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
