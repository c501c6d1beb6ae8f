package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	pkgdto "github.com/alimikegami/e-commerce/storefront-service/pkg/dto"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	orderColumns     = "id, order_number, user_id, email, first_name, last_name, phone, address, city, state, zip_code, subtotal, shipping, tax, total, status, idempotency_key, created_at, updated_at"
	orderItemColumns = "id, order_id, product_id, product_name, product_image, price, quantity, created_at"
)

type OrderRepositoryImpl struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

func CreateOrderRepository(db *sqlx.DB) OrderRepository {
	return &OrderRepositoryImpl{
		db: db,
	}
}

func (r *OrderRepositoryImpl) conn() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *OrderRepositoryImpl) HandleTrx(ctx context.Context, fn func(ctx context.Context, repo OrderRepository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	return handleTrx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &OrderRepositoryImpl{db: r.db, tx: tx})
	})
}

// AddOrder reports errs.ErrConflict when the (user, idempotency key) pair is
// already taken.
func (r *OrderRepositoryImpl) AddOrder(ctx context.Context, data domain.Order) (res domain.Order, err error) {
	timestamp := time.Now().UnixMilli()
	data.CreatedAt = timestamp
	data.UpdatedAt = timestamp

	_, err = r.conn().NamedExecContext(ctx, `INSERT INTO orders(`+orderColumns+`) VALUES (:id, :order_number, :user_id, :email,
		:first_name, :last_name, :phone, :address, :city, :state, :zip_code, :subtotal, :shipping, :tax, :total, :status,
		:idempotency_key, :created_at, :updated_at)`, data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddOrder").Msg("")
		if pqErrorCode(err) == pqUniqueViolation {
			return res, errs.ErrConflict
		}
		return res, fmt.Errorf("add order: %w", err)
	}

	return data, nil
}

func (r *OrderRepositoryImpl) AddOrderItems(ctx context.Context, data []domain.OrderItem) (err error) {
	if len(data) == 0 {
		return nil
	}

	timestamp := time.Now().UnixMilli()
	for idx := range data {
		data[idx].CreatedAt = timestamp
	}

	_, err = r.conn().NamedExecContext(ctx, "INSERT INTO order_items("+orderItemColumns+") VALUES (:id, :order_id, :product_id, :product_name, :product_image, :price, :quantity, :created_at)", data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddOrderItems").Msg("")
		return fmt.Errorf("add order items: %w", err)
	}

	return nil
}

// DecreaseProductStock takes quantity units only when that many are in stock
// and returns the product's current price. The conditional UPDATE holds the
// row lock until the surrounding transaction ends.
func (r *OrderRepositoryImpl) DecreaseProductStock(ctx context.Context, productID string, quantity int64) (price decimal.Decimal, err error) {
	err = r.conn().GetContext(ctx, &price,
		"UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND stock >= $1 RETURNING price",
		quantity, time.Now().UnixMilli(), productID)
	if err == nil {
		return price, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		log.Ctx(ctx).Error().Err(err).Str("component", "DecreaseProductStock").Msg("")
		if pqErrorCode(err) == pqDeadlockDetected {
			return price, fmt.Errorf("product %s: %w", productID, errs.ErrConflict)
		}
		return price, fmt.Errorf("decrease product stock: %w", err)
	}

	var exists bool
	err = r.conn().GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", productID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "DecreaseProductStock").Msg("")
		return price, fmt.Errorf("decrease product stock: %w", err)
	}

	if !exists {
		return price, fmt.Errorf("product %s: %w", productID, errs.ErrNotFound)
	}

	return price, fmt.Errorf("product %s: %w", productID, errs.ErrInsufficientStock)
}

// IncreaseProductStock is a no-op for products deleted since the order.
func (r *OrderRepositoryImpl) IncreaseProductStock(ctx context.Context, productID string, quantity int64) (err error) {
	res, err := r.conn().ExecContext(ctx, "UPDATE products SET stock = stock + $1, updated_at = $2 WHERE id = $3",
		quantity, time.Now().UnixMilli(), productID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "IncreaseProductStock").Msg("")
		return fmt.Errorf("increase product stock: %w", err)
	}

	if rowsAffected(res) == 0 {
		log.Ctx(ctx).Warn().Str("component", "IncreaseProductStock").Str("product_id", productID).Msg("product no longer exists")
	}

	return nil
}

func (r *OrderRepositoryImpl) GetOrderByID(ctx context.Context, id string) (data domain.Order, err error) {
	err = r.conn().GetContext(ctx, &data, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return data, errs.ErrNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrderByID").Msg("")
		return data, fmt.Errorf("get order: %w", err)
	}

	return
}

func (r *OrderRepositoryImpl) GetOrderByIdempotencyKey(ctx context.Context, userID string, key string, since int64) (data domain.Order, err error) {
	err = r.conn().GetContext(ctx, &data,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 AND idempotency_key = $2 AND created_at >= $3",
		userID, key, since)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return data, errs.ErrNotFound
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrderByIdempotencyKey").Msg("")
		return data, fmt.Errorf("get order by idempotency key: %w", err)
	}

	return
}

func (r *OrderRepositoryImpl) GetOrders(ctx context.Context, filter pkgdto.Filter) (data []domain.Order, err error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE 1=1"

	var args []interface{}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	data = []domain.Order{}
	err = r.conn().SelectContext(ctx, &data, query, args...)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrders").Msg("")
		return nil, fmt.Errorf("get orders: %w", err)
	}

	return data, nil
}

func (r *OrderRepositoryImpl) GetOrderItems(ctx context.Context, orderID string) (data []domain.OrderItem, err error) {
	data = []domain.OrderItem{}
	err = r.conn().SelectContext(ctx, &data, "SELECT "+orderItemColumns+" FROM order_items WHERE order_id = $1 ORDER BY created_at, id", orderID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrderItems").Msg("")
		return nil, fmt.Errorf("get order items: %w", err)
	}

	return data, nil
}

// UpdateOrderStatus only applies when the order is still in status from;
// otherwise errs.ErrConflict.
func (r *OrderRepositoryImpl) UpdateOrderStatus(ctx context.Context, id string, from domain.OrderStatus, to domain.OrderStatus) (data domain.Order, err error) {
	err = r.conn().GetContext(ctx, &data,
		"UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4 RETURNING "+orderColumns,
		to, time.Now().UnixMilli(), id, from)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return data, errs.ErrConflict
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "UpdateOrderStatus").Msg("")
		return data, fmt.Errorf("update order status: %w", err)
	}

	return
}

func (r *OrderRepositoryImpl) SumDeliveredRevenue(ctx context.Context) (total decimal.Decimal, err error) {
	err = r.conn().GetContext(ctx, &total, "SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = $1", domain.OrderStatusDelivered)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "SumDeliveredRevenue").Msg("")
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}

	return
}

func (r *OrderRepositoryImpl) CountOrders(ctx context.Context) (count int64, err error) {
	err = r.conn().GetContext(ctx, &count, "SELECT COUNT(id) FROM orders")
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "CountOrders").Msg("")
		return 0, fmt.Errorf("count orders: %w", err)
	}

	return
}

// ClearIdempotencyKeys releases keys of orders created before the cutoff so
// the partial unique index stays small.
func (r *OrderRepositoryImpl) ClearIdempotencyKeys(ctx context.Context, before int64) (cleared int64, err error) {
	res, err := r.conn().ExecContext(ctx, "UPDATE orders SET idempotency_key = NULL WHERE idempotency_key IS NOT NULL AND created_at < $1", before)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "ClearIdempotencyKeys").Msg("")
		return 0, fmt.Errorf("clear idempotency keys: %w", err)
	}

	return rowsAffected(res), nil
}
