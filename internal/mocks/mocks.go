package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"orderflow/internal/domain"
	"orderflow/internal/infra/delhivery"
	"orderflow/internal/repository"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateWithItems(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	args := m.Called(ctx, order, items)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindForUser(ctx context.Context, id, userID uint64) (*domain.Order, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter repository.OrderListFilter) ([]domain.Order, int64, error) {
	args := m.Called(ctx, filter)
	var orders []domain.Order
	if args.Get(0) != nil {
		orders = args.Get(0).([]domain.Order)
	}
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) SetTxnID(ctx context.Context, orderID uint64, txnID string) error {
	args := m.Called(ctx, orderID, txnID)
	return args.Error(0)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, orderID uint64, meta domain.PaymentMeta) (bool, error) {
	args := m.Called(ctx, orderID, meta)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) RecordPaymentFailure(ctx context.Context, orderID uint64, meta domain.PaymentMeta) error {
	args := m.Called(ctx, orderID, meta)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID uint64, status domain.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatusIf(ctx context.Context, orderID uint64, from, to domain.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) UpdateShipment(ctx context.Context, orderID uint64, meta domain.ShipmentMeta) error {
	args := m.Called(ctx, orderID, meta)
	return args.Error(0)
}

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByUserID(ctx context.Context, userID uint64) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockCartRepository) ClearItems(ctx context.Context, cartID uint64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

type MockCarrier struct {
	mock.Mock
}

func (m *MockCarrier) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockCarrier) OriginPin() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCarrier) PincodeServiceability(ctx context.Context, pincode string) (delhivery.Serviceability, error) {
	args := m.Called(ctx, pincode)
	return args.Get(0).(delhivery.Serviceability), args.Error(1)
}

func (m *MockCarrier) TAT(ctx context.Context, originPin, destPin string) (int, error) {
	args := m.Called(ctx, originPin, destPin)
	return args.Int(0), args.Error(1)
}

func (m *MockCarrier) BulkWaybill(ctx context.Context, count int) ([]string, error) {
	args := m.Called(ctx, count)
	var wbs []string
	if args.Get(0) != nil {
		wbs = args.Get(0).([]string)
	}
	return wbs, args.Error(1)
}

func (m *MockCarrier) CreateShipment(ctx context.Context, req delhivery.ShipmentRequest) (delhivery.ShipmentResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(delhivery.ShipmentResponse), args.Error(1)
}

func (m *MockCarrier) CancelShipment(ctx context.Context, waybill string) error {
	args := m.Called(ctx, waybill)
	return args.Error(0)
}

func (m *MockCarrier) Track(ctx context.Context, waybill string) (delhivery.Tracking, error) {
	args := m.Called(ctx, waybill)
	return args.Get(0).(delhivery.Tracking), args.Error(1)
}

func (m *MockCarrier) LabelURL(waybill string) string {
	args := m.Called(waybill)
	return args.String(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockMailer) SendOperatorNotification(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockMailer) SendShipmentNotification(ctx context.Context, order *domain.Order, awb, trackURL string) error {
	args := m.Called(ctx, order, awb, trackURL)
	return args.Error(0)
}
