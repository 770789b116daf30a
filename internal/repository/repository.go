package repository

import (
	"context"
	"time"

	"kart-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	// Unknown IDs are omitted from the result.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// DecrementStock lowers a product's stock by qty, clamped at zero, inside a savepoint of tx.
	// A non-positive qty is rejected with ErrInvalidDecrement.
	// Returns false when no product row matched.
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, qty int) (bool, error)

	// Upsert inserts or replaces catalog rows.
	Upsert(ctx context.Context, products []model.Product) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new order in the created state.
	Create(ctx context.Context, order *model.Order) error

	// GetByID retrieves an order by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByGatewayOrderID retrieves an order by the gateway's order id. Returns nil when absent.
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error)

	// ListByBuyer returns a buyer's orders, newest first.
	ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error)

	// List returns all orders, newest first.
	List(ctx context.Context, limit, offset int) ([]model.Order, error)

	// MarkPaid moves an order from created to paid within tx.
	// Returns nil when the order was not in the created state.
	MarkPaid(ctx context.Context, tx pgx.Tx, gatewayOrderID, paymentRef string, paidAt time.Time, shipping *model.ShippingAddress) (*model.Order, error)

	// MarkStockApplied records that the stock decrement ran for a paid order within tx.
	MarkStockApplied(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// MarkFailed moves an order from created to failed.
	// Returns false when the order was not in the created state.
	MarkFailed(ctx context.Context, gatewayOrderID string, failedAt time.Time) (bool, error)
}
