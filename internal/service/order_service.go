package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"kart-checkout/internal/gateway"
	"kart-checkout/internal/model"
	"kart-checkout/internal/notify"
	"kart-checkout/internal/repository"
	"kart-checkout/internal/stock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// maxQuantity bounds a merged cart quantity to the range of the stock column.
const maxQuantity = math.MaxInt32

// OrderOptions holds the gateway settings the order service needs.
type OrderOptions struct {
	Currency  string
	KeySecret string
}

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	gateway     gateway.Client
	ledger      stock.Ledger
	notifier    notify.Notifier
	opts        OrderOptions
	now         func() time.Time
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	gw gateway.Client,
	ledger stock.Ledger,
	notifier notify.Notifier,
	opts OrderOptions,
	logger zerolog.Logger,
) OrderService {
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		gateway:     gw,
		ledger:      ledger,
		notifier:    notifier,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// InitiateOrder prices the cart, creates the gateway order and records it.
func (s *orderService) InitiateOrder(ctx context.Context, buyer model.Buyer, req *model.OrderRequest) (*model.OrderResponse, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	refs, quantities, err := aggregateCart(req.OrderItems)
	if err != nil {
		s.logger.Warn().Err(err).Str("buyer_id", buyer.ID).Msg("cart quantity out of range")
		return nil, err
	}

	products, err := s.productRepo.GetByIDs(ctx, refs)
	if err != nil {
		s.logger.Error().Err(err).Int("product_count", len(refs)).Msg("failed to load products")
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lineItems := make([]model.LineItem, 0, len(refs))
	var total int64
	for _, ref := range refs {
		product, ok := byID[ref]
		if !ok {
			s.logger.Warn().Str("product_ref", ref).Msg("product not found")
			return nil, model.ErrProductNotFound
		}

		qty := quantities[ref]
		if qty > product.CountInStock {
			s.logger.Warn().
				Str("product_ref", ref).
				Int("requested", qty).
				Int("available", product.CountInStock).
				Msg("insufficient stock")
			return nil, model.ErrInsufficientStock
		}

		unit := product.PriceMinor()
		lineItems = append(lineItems, model.LineItem{
			ProductRef:     ref,
			Name:           product.Name,
			Quantity:       qty,
			UnitPriceMinor: unit,
		})
		lineTotal, ok := mulMinor(unit, qty)
		if ok {
			total, ok = addMinor(total, lineTotal)
		}
		if !ok {
			s.logger.Warn().
				Str("product_ref", ref).
				Int("quantity", qty).
				Int64("unit_price", unit).
				Msg("order total out of range")
			return nil, model.ErrInvalidAmount
		}
	}

	if total <= 0 {
		return nil, model.ErrInvalidAmount
	}

	if req.ItemsPrice != nil {
		if claimed := model.ToMinorUnits(*req.ItemsPrice); claimed != total {
			s.logger.Warn().
				Str("buyer_id", buyer.ID).
				Int64("claimed", claimed).
				Int64("computed", total).
				Msg("client items price differs from catalogue total")
		}
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, total, s.opts.Currency, gateway.NewReceiptID())
	if err != nil {
		s.logger.Error().Err(err).Str("buyer_id", buyer.ID).Int64("amount", total).Msg("gateway order creation failed")
		return nil, err
	}

	if gwOrder.Amount != total || !strings.EqualFold(gwOrder.Currency, s.opts.Currency) {
		s.logger.Error().
			Str("gateway_order_id", gwOrder.ID).
			Int64("expected_amount", total).
			Int64("gateway_amount", gwOrder.Amount).
			Str("gateway_currency", gwOrder.Currency).
			Msg("gateway order does not match requested amount")
		return nil, &gateway.Error{Code: "AMOUNT_MISMATCH", Description: "gateway order amount does not match cart total"}
	}

	now := s.now()
	order := &model.Order{
		ID:             uuid.New(),
		GatewayOrderID: gwOrder.ID,
		BuyerID:        buyer.ID,
		LineItems:      lineItems,
		ItemsTotal:     total,
		Currency:       s.opts.Currency,
		PaymentState:   model.PaymentStateCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The gateway order already exists, so recording it must not depend on the caller staying connected.
	if err := s.orderRepo.Create(context.WithoutCancel(ctx), order); err != nil {
		s.logger.Error().
			Err(err).
			Str("gateway_order_id", gwOrder.ID).
			Str("buyer_id", buyer.ID).
			Int64("amount", total).
			Msg("gateway order created but not recorded")
		return nil, fmt.Errorf("%w: %w", model.ErrOrderNotRecorded, err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("gateway_order_id", order.GatewayOrderID).
		Str("buyer_id", buyer.ID).
		Int64("amount", total).
		Int("item_count", len(lineItems)).
		Msg("order initiated")

	return &model.OrderResponse{
		ID:       gwOrder.ID,
		Amount:   total,
		Currency: order.Currency,
		KeyID:    s.gateway.KeyID(),
		OrderID:  order.ID,
	}, nil
}

// VerifyAndSettle verifies a payment callback and settles the order at most once.
func (s *orderService) VerifyAndSettle(ctx context.Context, buyer model.Buyer, req *model.VerifyRequest) (*model.Settlement, error) {
	if req == nil || req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, model.ErrMissingField
	}

	order, err := s.orderRepo.GetByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		s.logger.Error().Err(err).Str("gateway_order_id", req.GatewayOrderID).Msg("failed to load order")
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if order == nil || order.BuyerID != buyer.ID {
		s.logger.Warn().
			Str("gateway_order_id", req.GatewayOrderID).
			Str("buyer_id", buyer.ID).
			Msg("verify for unknown order")
		return nil, model.ErrOrderNotFound
	}

	switch order.PaymentState {
	case model.PaymentStatePaid:
		return s.replay(order), nil
	case model.PaymentStateFailed:
		return nil, model.ErrOrderFailed
	}

	if !gateway.VerifySignature(order.GatewayOrderID, req.GatewayPaymentID, req.Signature, s.opts.KeySecret) {
		s.logger.Warn().
			Str("gateway_order_id", order.GatewayOrderID).
			Str("payment_ref", req.GatewayPaymentID).
			Str("buyer_id", buyer.ID).
			Msg("payment signature mismatch")

		changed, err := s.orderRepo.MarkFailed(context.WithoutCancel(ctx), order.GatewayOrderID, s.now())
		if err != nil {
			// The order stays created; an operator has to fail it by hand.
			s.logger.Error().
				Err(err).
				Str("alert", "order_not_failed").
				Str("gateway_order_id", order.GatewayOrderID).
				Str("order_id", order.ID.String()).
				Msg("failed to mark order failed after signature mismatch")
		} else if changed {
			s.logger.Info().Str("gateway_order_id", order.GatewayOrderID).Msg("order marked failed")
		}

		return nil, model.ErrInvalidSignature
	}

	// Settlement runs to completion once started so a retry never finds a half-applied order.
	settleCtx := context.WithoutCancel(ctx)

	paid, err := s.settle(settleCtx, order, req)
	if err != nil {
		return nil, err
	}

	if paid == nil {
		return s.resolveLostRace(settleCtx, order.GatewayOrderID)
	}

	s.logger.Info().
		Str("order_id", paid.ID.String()).
		Str("gateway_order_id", paid.GatewayOrderID).
		Str("payment_ref", req.GatewayPaymentID).
		Str("buyer_id", buyer.ID).
		Int64("amount", paid.ItemsTotal).
		Msg("order paid")

	if err := s.notifier.PaymentSettled(settleCtx, buyer, paid); err != nil {
		s.logger.Warn().Err(err).Str("gateway_order_id", paid.GatewayOrderID).Msg("failed to send payment notification")
	}

	return &model.Settlement{Order: paid}, nil
}

// settle moves the order to paid and applies stock in one transaction.
// It returns nil without error when another caller changed the order first.
func (s *orderService) settle(ctx context.Context, order *model.Order, req *model.VerifyRequest) (paid *model.Order, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to settle order: %w", err)
	}

	defer func() {
		if err != nil || paid == nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	paid, err = s.orderRepo.MarkPaid(ctx, tx, order.GatewayOrderID, req.GatewayPaymentID, s.now(), req.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to settle order: %w", err)
	}
	if paid == nil {
		return nil, nil
	}

	result, err := s.ledger.Decrement(ctx, tx, paid.LineItems)
	if err != nil {
		s.logger.Error().Err(err).Str("gateway_order_id", paid.GatewayOrderID).Msg("stock decrement aborted")
		return nil, fmt.Errorf("failed to settle order: %w", err)
	}

	if err = s.orderRepo.MarkStockApplied(ctx, tx, paid.ID); err != nil {
		return nil, fmt.Errorf("failed to settle order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("gateway_order_id", paid.GatewayOrderID).Msg("failed to commit settlement")
		return nil, fmt.Errorf("failed to settle order: %w", err)
	}

	paid.StockApplied = true

	if len(result.Skipped) > 0 {
		s.logger.Warn().
			Str("gateway_order_id", paid.GatewayOrderID).
			Strs("skipped", result.Skipped).
			Msg("stock not decremented for some items")
	}

	return paid, nil
}

// resolveLostRace reports the outcome recorded by the caller that won the transition.
func (s *orderService) resolveLostRace(ctx context.Context, gatewayOrderID string) (*model.Settlement, error) {
	current, err := s.orderRepo.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if current == nil {
		return nil, model.ErrOrderNotFound
	}

	switch current.PaymentState {
	case model.PaymentStatePaid:
		return s.replay(current), nil
	case model.PaymentStateFailed:
		return nil, model.ErrOrderFailed
	default:
		return nil, fmt.Errorf("failed to settle order %s: state %s after conditional update", gatewayOrderID, current.PaymentState)
	}
}

func (s *orderService) replay(order *model.Order) *model.Settlement {
	s.logger.Info().
		Str("gateway_order_id", order.GatewayOrderID).
		Str("buyer_id", order.BuyerID).
		Msg("order already paid, replaying settlement")
	return &model.Settlement{Order: order, Replayed: true}
}

// GetByID retrieves one of the buyer's orders.
func (s *orderService) GetByID(ctx context.Context, buyer model.Buyer, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil || order.BuyerID != buyer.ID {
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// ListMine returns the buyer's orders, newest first.
func (s *orderService) ListMine(ctx context.Context, buyer model.Buyer) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByBuyer(ctx, buyer.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("buyer_id", buyer.ID).Msg("failed to list buyer orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// List returns all orders, newest first.
func (s *orderService) List(ctx context.Context, limit, offset int) ([]model.Order, error) {
	limit, offset = clampPage(limit, offset)

	orders, err := s.orderRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Int("limit", limit).Int("offset", offset).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil || len(req.OrderItems) == 0 {
		return model.ErrEmptyCart
	}

	for i, item := range req.OrderItems {
		if item.ProductRef == "" {
			s.logger.Warn().Int("item_index", i).Msg("cart item without product reference")
			return model.ErrMissingField
		}

		if item.Quantity <= 0 || item.Quantity > maxQuantity {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_ref", item.ProductRef).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	return nil
}

// aggregateCart sums quantities per product, keeping first-seen order. A merged
// quantity above maxQuantity is rejected.
func aggregateCart(items []model.CartLineItem) ([]string, map[string]int, error) {
	refs := make([]string, 0, len(items))
	quantities := make(map[string]int, len(items))
	for _, item := range items {
		current, seen := quantities[item.ProductRef]
		if !seen {
			refs = append(refs, item.ProductRef)
		}
		if item.Quantity <= 0 || item.Quantity > maxQuantity-current {
			return nil, nil, model.ErrInvalidQuantity
		}
		quantities[item.ProductRef] = current + item.Quantity
	}
	return refs, quantities, nil
}

// mulMinor returns unit*qty, reporting false if the product is negative or overflows.
func mulMinor(unit int64, qty int) (int64, bool) {
	if unit < 0 || qty < 0 {
		return 0, false
	}
	if unit != 0 && int64(qty) > math.MaxInt64/unit {
		return 0, false
	}
	return unit * int64(qty), true
}

// addMinor returns a+b for non-negative amounts, reporting false on overflow.
func addMinor(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
