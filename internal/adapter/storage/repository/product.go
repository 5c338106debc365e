package repository

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

var productColumns = []string{"id", "name", "description", "category", "price", "stock_quantity", "in_stock", "updated_at"}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	p := domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.StockQuantity,
		&p.InStock,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	statement := r.db.QueryBuilder.
		Insert("products").
		Columns("name", "description", "category", "price", "stock_quantity", "in_stock").
		Values(product.Name, product.Description, product.Category, product.Price,
			product.StockQuantity, product.StockQuantity > 0).
		Suffix("RETURNING " + strings.Join(productColumns, ", "))

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	return scanProduct(r.db.Querier(ctx).QueryRow(ctx, sql, args...))
}

func (r *Repository) ReadProduct(ctx context.Context, productID uint64) (*domain.Product, error) {
	statement := r.db.QueryBuilder.
		Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": productID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanProduct(r.db.Querier(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}
	return p, nil
}

// ApplyStockDelta is a single conditional update: the row only changes when
// the resulting stock stays non-negative, so concurrent reservations serialize
// on the row lock and the loser sees no affected row.
func (r *Repository) ApplyStockDelta(ctx context.Context, productID uint64, delta int64) (*domain.Product, error) {
	statement := r.db.QueryBuilder.
		Update("products").
		Set("stock_quantity", sq.Expr("stock_quantity + ?", delta)).
		Set("in_stock", sq.Expr("stock_quantity + ? > 0", delta)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": productID}).
		Where(sq.Expr("stock_quantity + ? >= 0", delta)).
		Suffix("RETURNING " + strings.Join(productColumns, ", "))

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanProduct(r.db.Querier(ctx).QueryRow(ctx, sql, args...))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// No row changed: either the product is missing or the stock is short.
	if _, err := r.ReadProduct(ctx, productID); err != nil {
		return nil, err
	}
	return nil, domain.ErrInsufficientStock
}
