package handler

import (
	"net/http"
	"strconv"

	"kart-checkout/internal/middleware"
	"kart-checkout/internal/model"
	"kart-checkout/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReplayHeader is set on verify responses that return an already settled order.
const ReplayHeader = "X-Idempotent-Replay"

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.buyer(w, r)
	if !ok {
		return
	}

	var req model.OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.InitiateOrder(r.Context(), buyer, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Verify handles POST /api/orders/verify requests.
func (h *OrderHandler) Verify(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.buyer(w, r)
	if !ok {
		return
	}

	var req model.VerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	settlement, err := h.service.VerifyAndSettle(r.Context(), buyer, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if settlement.Replayed {
		w.Header().Set(ReplayHeader, "true")
	}

	writeJSON(w, http.StatusOK, settlement.Order)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.buyer(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "Invalid order ID format")
		return
	}

	order, err := h.service.GetByID(r.Context(), buyer, orderID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// ListMine handles GET /api/orders/mine requests.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	buyer, ok := h.buyer(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListMine(r.Context(), buyer)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// List handles GET /api/admin/orders requests with pagination.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(w, r)
	if !ok {
		return
	}

	orders, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) buyer(w http.ResponseWriter, r *http.Request) (model.Buyer, bool) {
	buyer, ok := middleware.BuyerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "Authentication required")
		return model.Buyer{}, false
	}
	return buyer, true
}

// pagination parses limit and offset query parameters, defaulting to 10 and 0.
func pagination(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	limit, offset := 10, 0

	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "Invalid limit parameter")
			return 0, 0, false
		}
		limit = v
	}

	if s := r.URL.Query().Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "Invalid offset parameter")
			return 0, 0, false
		}
		offset = v
	}

	return limit, offset, true
}
