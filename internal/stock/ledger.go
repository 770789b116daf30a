// Package stock applies inventory decrements for settled orders.
package stock

import (
	"context"
	"errors"
	"fmt"

	"kart-checkout/internal/model"
	"kart-checkout/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Result reports which line items were applied and which were skipped.
type Result struct {
	Applied []string
	Skipped []string
}

// Ledger decrements product stock for the line items of a paid order.
type Ledger interface {
	// Decrement applies every line item within tx. Per-item failures are logged and
	// skipped; an error is returned only when tx itself is no longer usable.
	Decrement(ctx context.Context, tx pgx.Tx, items []model.LineItem) (Result, error)
}

type ledger struct {
	products repository.ProductRepository
	logger   zerolog.Logger
}

// NewLedger creates a stock ledger backed by the product repository.
func NewLedger(products repository.ProductRepository, logger zerolog.Logger) Ledger {
	return &ledger{
		products: products,
		logger:   logger.With().Str("component", "stock").Logger(),
	}
}

func (l *ledger) Decrement(ctx context.Context, tx pgx.Tx, items []model.LineItem) (Result, error) {
	var result Result

	for _, item := range items {
		ok, err := l.products.DecrementStock(ctx, tx, item.ProductRef, item.Quantity)
		if err != nil {
			if errors.Is(err, pgx.ErrTxClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, fmt.Errorf("failed to decrement stock for %s: %w", item.ProductRef, err)
			}
			l.logger.Warn().
				Err(err).
				Str("product_ref", item.ProductRef).
				Int("quantity", item.Quantity).
				Msg("stock decrement failed, skipping item")
			result.Skipped = append(result.Skipped, item.ProductRef)
			continue
		}

		if !ok {
			l.logger.Warn().
				Str("product_ref", item.ProductRef).
				Int("quantity", item.Quantity).
				Msg("product no longer exists, skipping stock decrement")
			result.Skipped = append(result.Skipped, item.ProductRef)
			continue
		}

		result.Applied = append(result.Applied, item.ProductRef)
	}

	l.logger.Debug().
		Int("applied", len(result.Applied)).
		Int("skipped", len(result.Skipped)).
		Msg("stock decrement pass complete")

	return result, nil
}
