package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"orderflow/internal/domain"
	"orderflow/internal/infra/delhivery"
	"orderflow/internal/mocks"
	"orderflow/internal/repository"
)

func TestCancelOrder(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.OrderStatus
		applied    bool
		wantErr    bool
		isConflict bool
	}{
		{"pending cancels", domain.StatusPending, true, false, false},
		{"paid conflicts", domain.StatusPaid, false, true, true},
		{"shipped conflicts", domain.StatusShipped, false, true, true},
		{"delivered conflicts", domain.StatusDelivered, false, true, true},
		{"cancelled conflicts", domain.StatusCancelled, false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockOrderRepository)
			svc := NewOrderService(repo, new(mocks.MockCarrier), zap.NewNop())

			order := &domain.Order{ID: 42, UserID: 7, Status: tt.status}
			repo.On("FindForUser", mock.Anything, uint64(42), uint64(7)).Return(order, nil)
			if tt.status == domain.StatusPending {
				repo.On("UpdateStatusIf", mock.Anything, uint64(42), domain.StatusPending, domain.StatusCancelled).
					Return(tt.applied, nil)
			}

			err := svc.CancelOrder(context.Background(), 7, 42)

			if tt.wantErr {
				var conflict *domain.StateConflictError
				assert.ErrorAs(t, err, &conflict)
				assert.Equal(t, tt.status, conflict.Current)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCancelOrder_RacedByPaymentCallback(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	svc := NewOrderService(repo, new(mocks.MockCarrier), zap.NewNop())

	pending := &domain.Order{ID: 42, UserID: 7, Status: domain.StatusPending}
	paid := &domain.Order{ID: 42, UserID: 7, Status: domain.StatusPaid}
	repo.On("FindForUser", mock.Anything, uint64(42), uint64(7)).Return(pending, nil)
	repo.On("UpdateStatusIf", mock.Anything, uint64(42), domain.StatusPending, domain.StatusCancelled).
		Return(false, nil)
	repo.On("FindByID", mock.Anything, uint64(42)).Return(paid, nil)

	err := svc.CancelOrder(context.Background(), 7, 42)

	var conflict *domain.StateConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, domain.StatusPaid, conflict.Current)
}

func TestUpdateStatus(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	svc := NewOrderService(repo, new(mocks.MockCarrier), zap.NewNop())

	repo.On("UpdateStatus", mock.Anything, uint64(42), domain.StatusShipped).Return(nil)
	assert.NoError(t, svc.UpdateStatus(context.Background(), 42, "shipped"))

	err := svc.UpdateStatus(context.Background(), 42, "teleported")
	var invalid *domain.InvalidStatusError
	assert.ErrorAs(t, err, &invalid)
	repo.AssertNumberOfCalls(t, "UpdateStatus", 1)
}

func TestListOrders_FilterAndClamps(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	svc := NewOrderService(repo, new(mocks.MockCarrier), zap.NewNop())

	repo.On("List", mock.Anything, repository.OrderListFilter{
		UserID: 7, Status: domain.StatusPaid, Limit: 10, Offset: 10,
	}).Return([]domain.Order{{ID: 42}}, int64(11), nil)

	orders, pagination, err := svc.ListOrders(context.Background(), 7, "paid", 2, 10)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, int64(11), pagination.TotalItems)
	assert.Equal(t, int64(2), pagination.TotalPages)

	// An unrecognized status filter is ignored, and garbage paging resets.
	repo.On("List", mock.Anything, repository.OrderListFilter{
		UserID: 7, Limit: 10, Offset: 0,
	}).Return([]domain.Order{}, int64(0), nil)

	_, pagination, err = svc.ListOrders(context.Background(), 7, "teleported", -3, 5000)
	assert.NoError(t, err)
	assert.Equal(t, 1, pagination.CurrentPage)
	repo.AssertExpectations(t)
}

func TestTrackOrder(t *testing.T) {
	t.Run("no shipment yet", func(t *testing.T) {
		repo := new(mocks.MockOrderRepository)
		carrier := new(mocks.MockCarrier)
		svc := NewOrderService(repo, carrier, zap.NewNop())

		repo.On("FindForUser", mock.Anything, uint64(42), uint64(7)).
			Return(&domain.Order{ID: 42, Status: domain.StatusPaid}, nil)

		view, err := svc.TrackOrder(context.Background(), 7, 42)
		assert.NoError(t, err)
		assert.Equal(t, "Shipment not yet created for this order.", view.Message)
		assert.Nil(t, view.Tracking)
		carrier.AssertNotCalled(t, "Track", mock.Anything, mock.Anything)
	})

	t.Run("carrier lookup failure degrades", func(t *testing.T) {
		repo := new(mocks.MockOrderRepository)
		carrier := new(mocks.MockCarrier)
		svc := NewOrderService(repo, carrier, zap.NewNop())

		repo.On("FindForUser", mock.Anything, uint64(42), uint64(7)).
			Return(&domain.Order{ID: 42, Status: domain.StatusShipped, AwbCode: "AWB001"}, nil)
		carrier.On("Configured").Return(true)
		carrier.On("Track", mock.Anything, "AWB001").
			Return(delhivery.Tracking{}, errors.New("carrier timeout"))

		view, err := svc.TrackOrder(context.Background(), 7, 42)
		assert.NoError(t, err)
		assert.Equal(t, "Tracking not available yet. Please check back later.", view.Message)
	})

	t.Run("live tracking", func(t *testing.T) {
		repo := new(mocks.MockOrderRepository)
		carrier := new(mocks.MockCarrier)
		svc := NewOrderService(repo, carrier, zap.NewNop())

		repo.On("FindForUser", mock.Anything, uint64(42), uint64(7)).
			Return(&domain.Order{ID: 42, Status: domain.StatusShipped, AwbCode: "AWB001"}, nil)
		carrier.On("Configured").Return(true)
		carrier.On("Track", mock.Anything, "AWB001").
			Return(delhivery.Tracking{Status: "In Transit"}, nil)

		view, err := svc.TrackOrder(context.Background(), 7, 42)
		assert.NoError(t, err)
		assert.Empty(t, view.Message)
		assert.Equal(t, "In Transit", view.Tracking.Status)
	})

	t.Run("unknown order", func(t *testing.T) {
		repo := new(mocks.MockOrderRepository)
		svc := NewOrderService(repo, new(mocks.MockCarrier), zap.NewNop())

		repo.On("FindForUser", mock.Anything, uint64(42), uint64(7)).Return(nil, nil)

		_, err := svc.TrackOrder(context.Background(), 7, 42)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}
