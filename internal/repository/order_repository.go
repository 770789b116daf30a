package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kart-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, gateway_order_id, buyer_id, line_items, items_total, currency,
	payment_state, payment_ref, shipping_address, stock_applied,
	created_at, updated_at, paid_at, failed_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Create inserts a new order.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	lineItems, err := json.Marshal(order.LineItems)
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	shipping, err := encodeShipping(order.ShippingAddress)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (id, gateway_order_id, buyer_id, line_items, items_total, currency,
			payment_state, shipping_address, stock_applied, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8::jsonb, $9, $10, $11)
	`

	_, err = r.pool.Exec(ctx, query,
		order.ID,
		order.GatewayOrderID,
		order.BuyerID,
		string(lineItems),
		order.ItemsTotal,
		order.Currency,
		string(order.PaymentState),
		shipping,
		order.StockApplied,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("gateway_order_id", order.GatewayOrderID).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("gateway_order_id", order.GatewayOrderID).
		Msg("order created successfully")

	return nil
}

// GetByID retrieves an order by its ID.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// GetByGatewayOrderID retrieves an order by the gateway's order id.
func (r *orderRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE gateway_order_id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, gatewayOrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("gateway_order_id", gatewayOrderID).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("gateway_order_id", gatewayOrderID).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// ListByBuyer returns a buyer's orders, newest first.
func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, buyerID)
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to query buyer orders")
		return nil, fmt.Errorf("failed to query buyer orders: %w", err)
	}

	return r.collect(rows)
}

// List returns all orders, newest first.
func (r *orderRepository) List(ctx context.Context, limit, offset int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Int("limit", limit).Int("offset", offset).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	return r.collect(rows)
}

// MarkPaid is the at-most-once settlement guard: only a row still in the created
// state is updated, so concurrent callers cannot both observe a transition.
func (r *orderRepository) MarkPaid(ctx context.Context, tx pgx.Tx, gatewayOrderID, paymentRef string, paidAt time.Time, shipping *model.ShippingAddress) (*model.Order, error) {
	encoded, err := encodeShipping(shipping)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE orders
		SET payment_state = 'paid',
			payment_ref = $2,
			paid_at = $3,
			updated_at = $3,
			shipping_address = COALESCE($4::jsonb, shipping_address)
		WHERE gateway_order_id = $1 AND payment_state = 'created'
		RETURNING ` + orderColumns

	order, err := scanOrder(tx.QueryRow(ctx, query, gatewayOrderID, paymentRef, paidAt, encoded))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("gateway_order_id", gatewayOrderID).Msg("failed to mark order paid")
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}

	return order, nil
}

// MarkStockApplied records that the stock decrement ran for a paid order.
func (r *orderRepository) MarkStockApplied(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `
		UPDATE orders
		SET stock_applied = TRUE, updated_at = NOW()
		WHERE id = $1 AND payment_state = 'paid'
	`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark stock applied")
		return fmt.Errorf("failed to mark stock applied: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("failed to mark stock applied: order %s is not paid", id)
	}

	return nil
}

// MarkFailed moves an order from created to failed.
func (r *orderRepository) MarkFailed(ctx context.Context, gatewayOrderID string, failedAt time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET payment_state = 'failed', failed_at = $2, updated_at = $2
		WHERE gateway_order_id = $1 AND payment_state = 'created'
	`

	tag, err := r.pool.Exec(ctx, query, gatewayOrderID, failedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("gateway_order_id", gatewayOrderID).Msg("failed to mark order failed")
		return false, fmt.Errorf("failed to mark order failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) collect(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o         model.Order
		state     string
		lineItems []byte
		shipping  []byte
	)

	err := row.Scan(
		&o.ID,
		&o.GatewayOrderID,
		&o.BuyerID,
		&lineItems,
		&o.ItemsTotal,
		&o.Currency,
		&state,
		&o.PaymentRef,
		&shipping,
		&o.StockApplied,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.PaidAt,
		&o.FailedAt,
	)
	if err != nil {
		return nil, err
	}

	o.PaymentState = model.PaymentState(state)

	if err := json.Unmarshal(lineItems, &o.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}

	if len(shipping) > 0 {
		var addr model.ShippingAddress
		if err := json.Unmarshal(shipping, &addr); err != nil {
			return nil, fmt.Errorf("failed to decode shipping address: %w", err)
		}
		o.ShippingAddress = &addr
	}

	return &o, nil
}

// encodeShipping returns nil for a missing address so the column stays NULL.
func encodeShipping(addr *model.ShippingAddress) (*string, error) {
	if addr == nil {
		return nil, nil
	}
	b, err := json.Marshal(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shipping address: %w", err)
	}
	s := string(b)
	return &s, nil
}
