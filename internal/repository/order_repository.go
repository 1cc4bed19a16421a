package repository

import (
	"context"

	"orderflow/internal/domain"
)

// OrderListFilter narrows user/admin order listings.
type OrderListFilter struct {
	UserID uint64 // 0 for admin listings across users
	Status domain.OrderStatus
	Limit  int
	Offset int
}

type OrderRepository interface {
	// CreateWithItems persists the order and its item snapshots in one
	// transaction. Order.ID is populated on return.
	CreateWithItems(ctx context.Context, order *domain.Order, items []domain.OrderItem) error

	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindForUser(ctx context.Context, id, userID uint64) (*domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, int64, error)

	// SetTxnID stores the gateway transaction id before the outbound payment
	// request is built, so any callback can be correlated.
	SetTxnID(ctx context.Context, orderID uint64, txnID string) error

	// MarkPaid applies the pending→paid transition together with the gateway
	// metadata. It is conditional on the order still being pending and
	// reports whether the update was applied, so a racing duplicate callback
	// cannot double-apply.
	MarkPaid(ctx context.Context, orderID uint64, meta domain.PaymentMeta) (bool, error)

	// RecordPaymentFailure persists failure metadata without touching status.
	RecordPaymentFailure(ctx context.Context, orderID uint64, meta domain.PaymentMeta) error

	UpdateStatus(ctx context.Context, orderID uint64, status domain.OrderStatus) error

	// UpdateStatusIf transitions only when the current status matches from,
	// reporting whether it applied.
	UpdateStatusIf(ctx context.Context, orderID uint64, from, to domain.OrderStatus) (bool, error)

	UpdateShipment(ctx context.Context, orderID uint64, meta domain.ShipmentMeta) error
}

type CartRepository interface {
	// FindByUserID loads the cart with its items; nil when the user has none.
	FindByUserID(ctx context.Context, userID uint64) (*domain.Cart, error)
	ClearItems(ctx context.Context, cartID uint64) error
}

type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error)
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
}
