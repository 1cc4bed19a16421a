package services

import (
	"context"

	"go.uber.org/zap"

	"orderflow/internal/domain"
	"orderflow/internal/infra/delhivery"
	"orderflow/internal/repository"
)

// OrderService covers reads and the state machine edges outside payment:
// owner cancellation and operator status transitions.
type OrderService struct {
	orders  repository.OrderRepository
	carrier delhivery.API
	log     *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, carrier delhivery.API, log *zap.Logger) *OrderService {
	return &OrderService{orders: orders, carrier: carrier, log: log}
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uint64) (*domain.Order, error) {
	order, err := s.orders.FindForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

type Pagination struct {
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int64 `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

func (s *OrderService) list(ctx context.Context, userID uint64, status string, page, limit int) ([]domain.Order, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	filter := repository.OrderListFilter{
		UserID: userID,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	// An unrecognized filter value is ignored rather than erroring; it only
	// narrows, never rejects.
	if st := domain.OrderStatus(status); st.Valid() {
		filter.Status = st
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, Pagination{}, err
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return orders, Pagination{
		TotalItems:   total,
		TotalPages:   pages,
		CurrentPage:  page,
		ItemsPerPage: limit,
	}, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uint64, status string, page, limit int) ([]domain.Order, Pagination, error) {
	return s.list(ctx, userID, status, page, limit)
}

// ListAllOrders is the operator view across users.
func (s *OrderService) ListAllOrders(ctx context.Context, status string, page, limit int) ([]domain.Order, Pagination, error) {
	return s.list(ctx, 0, status, page, limit)
}

// CancelOrder applies pending→cancelled for the owner. Any other current
// state is a conflict, reported with both states named.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID uint64) error {
	order, err := s.orders.FindForUser(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}
	if !order.CanCancel() {
		return &domain.StateConflictError{Current: order.Status, Attempted: domain.StatusCancelled}
	}

	applied, err := s.orders.UpdateStatusIf(ctx, orderID, domain.StatusPending, domain.StatusCancelled)
	if err != nil {
		return err
	}
	if !applied {
		// Raced a payment callback; report against the fresh state.
		current, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		status := domain.StatusPending
		if current != nil {
			status = current.Status
		}
		return &domain.StateConflictError{Current: status, Attempted: domain.StatusCancelled}
	}

	s.log.Info("order cancelled", zap.Uint64("orderId", orderID))
	return nil
}

// UpdateStatus applies an operator transition. Operator moves reflect
// external fulfillment reality, so only the enum is enforced.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint64, status string) error {
	st := domain.OrderStatus(status)
	if !st.Valid() {
		return &domain.InvalidStatusError{Value: status}
	}
	if err := s.orders.UpdateStatus(ctx, orderID, st); err != nil {
		return err
	}
	s.log.Info("order status updated",
		zap.Uint64("orderId", orderID), zap.String("status", status))
	return nil
}

// TrackView is what tracking endpoints return whether or not a shipment
// exists yet.
type TrackView struct {
	OrderID  uint64              `json:"orderId"`
	Status   domain.OrderStatus  `json:"status"`
	Awb      string              `json:"awb,omitempty"`
	LabelURL string              `json:"labelUrl,omitempty"`
	Message  string              `json:"message,omitempty"`
	Tracking *delhivery.Tracking `json:"tracking"`
}

// TrackOrder proxies the owner's tracking lookup to the carrier, degrading
// to a friendly message when no shipment or tracking exists yet.
func (s *OrderService) TrackOrder(ctx context.Context, userID, orderID uint64) (TrackView, error) {
	order, err := s.orders.FindForUser(ctx, orderID, userID)
	if err != nil {
		return TrackView{}, err
	}
	if order == nil {
		return TrackView{}, domain.ErrOrderNotFound
	}

	view := TrackView{
		OrderID:  order.ID,
		Status:   order.Status,
		Awb:      order.AwbCode,
		LabelURL: order.ShippingLabelURL,
	}
	if order.AwbCode == "" {
		view.Message = "Shipment not yet created for this order."
		return view, nil
	}
	if !s.carrier.Configured() {
		view.Message = "Tracking not available yet. Please check back later."
		return view, nil
	}

	t, err := s.carrier.Track(ctx, order.AwbCode)
	if err != nil {
		s.log.Warn("tracking lookup failed",
			zap.Uint64("orderId", orderID), zap.String("awb", order.AwbCode), zap.Error(err))
		view.Message = "Tracking not available yet. Please check back later."
		return view, nil
	}
	view.Tracking = &t
	return view, nil
}
