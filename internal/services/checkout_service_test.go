package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"orderflow/internal/domain"
	"orderflow/internal/mocks"
)

func validAddress() CheckoutAddress {
	return CheckoutAddress{
		FirstName:    "Asha",
		LastName:     "Rao",
		MobileNumber: "9876543210",
		EmailAddress: "asha@example.com",
		FullAddress:  "12 MG Road",
		TownOrCity:   "Bengaluru",
		Country:      "India",
		State:        "Karnataka",
		PinCode:      "560001",
	}
}

func TestCreateOrder_SnapshotsCartWithDiscounts(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	carts := new(mocks.MockCartRepository)
	products := new(mocks.MockProductRepository)
	pub := new(mocks.MockPublisher)
	svc := NewCheckoutService(repo, carts, products, pub, zap.NewNop())

	discount := decimal.NewFromFloat(399.50)
	carts.On("FindByUserID", mock.Anything, uint64(7)).Return(&domain.Cart{
		ID:     3,
		UserID: 7,
		Items: []domain.CartItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	}, nil)
	products.On("FindByID", mock.Anything, uint64(1)).Return(&domain.Product{
		ID: 1, Title: "Mug", Price: decimal.NewFromFloat(500), DiscountPrice: &discount,
	}, nil)
	products.On("FindByID", mock.Anything, uint64(2)).Return(&domain.Product{
		ID: 2, Title: "Poster", Price: decimal.NewFromFloat(250),
	}, nil)
	repo.On("CreateWithItems", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
		// 2*399.50 + 250, discounted price wins over list price.
		return o.TotalAmount.Equal(decimal.NewFromFloat(1049.00)) &&
			o.Status == domain.StatusPending &&
			o.ShipmentStatus == domain.ShipmentNotCreated
	}), mock.MatchedBy(func(items []domain.OrderItem) bool {
		return len(items) == 2 &&
			items[0].PriceAtPurchase.Equal(discount) &&
			items[0].ProductTitle == "Mug"
	})).Return(nil)
	carts.On("ClearItems", mock.Anything, uint64(3)).Return(nil)
	pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(nil).Maybe()

	order, err := svc.CreateOrder(context.Background(), 7, validAddress())
	assert.NoError(t, err)
	assert.NotNil(t, order)
	repo.AssertExpectations(t)
	carts.AssertExpectations(t)
}

func TestCreateOrder_UnavailableProducts(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	carts := new(mocks.MockCartRepository)
	products := new(mocks.MockProductRepository)
	svc := NewCheckoutService(repo, carts, products, new(mocks.MockPublisher), zap.NewNop())

	carts.On("FindByUserID", mock.Anything, uint64(7)).Return(&domain.Cart{
		ID:     3,
		UserID: 7,
		Items: []domain.CartItem{
			{ProductID: 1, Quantity: 1},
			{ProductID: 99, Quantity: 1},
		},
	}, nil)
	products.On("FindByID", mock.Anything, uint64(1)).Return(&domain.Product{
		ID: 1, Title: "Mug", Price: decimal.NewFromFloat(500),
	}, nil)
	products.On("FindByID", mock.Anything, uint64(99)).Return(nil, nil)

	_, err := svc.CreateOrder(context.Background(), 7, validAddress())

	var uErr *domain.UnavailableProductsError
	assert.ErrorAs(t, err, &uErr)
	assert.Equal(t, []uint64{99}, uErr.ProductIDs)
	repo.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything, mock.Anything)
	carts.AssertNotCalled(t, "ClearItems", mock.Anything, mock.Anything)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	carts := new(mocks.MockCartRepository)
	svc := NewCheckoutService(new(mocks.MockOrderRepository), carts, new(mocks.MockProductRepository), new(mocks.MockPublisher), zap.NewNop())

	carts.On("FindByUserID", mock.Anything, uint64(7)).Return(nil, nil)

	_, err := svc.CreateOrder(context.Background(), 7, validAddress())
	assert.ErrorIs(t, err, domain.ErrCartEmpty)
}

func TestCreateOrder_AddressValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CheckoutAddress)
		want   string
	}{
		{"short mobile", func(a *CheckoutAddress) { a.MobileNumber = "12345" }, "Mobile Number is required and must be exactly 10 digits."},
		{"bad email", func(a *CheckoutAddress) { a.EmailAddress = "not-an-email" }, "Valid Email Address is required."},
		{"bad pincode", func(a *CheckoutAddress) { a.PinCode = "5600" }, "Pin Code is required and must be exactly 6 digits."},
		{"blank name", func(a *CheckoutAddress) { a.FirstName = "  " }, "First Name is required and must be a non-empty string."},
	}

	svc := NewCheckoutService(new(mocks.MockOrderRepository), new(mocks.MockCartRepository), new(mocks.MockProductRepository), new(mocks.MockPublisher), zap.NewNop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := validAddress()
			tt.mutate(&addr)

			_, err := svc.CreateOrder(context.Background(), 7, addr)

			var vErr *domain.ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Violations, tt.want)
		})
	}
}

func TestCreateOrder_ProductCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := new(mocks.MockOrderRepository)
	carts := new(mocks.MockCartRepository)
	products := new(mocks.MockProductRepository)
	pub := new(mocks.MockPublisher)
	svc := NewCheckoutService(repo, carts, products, pub, zap.NewNop())
	svc.SetRedisClient(client)

	cart := &domain.Cart{ID: 3, UserID: 7, Items: []domain.CartItem{{ProductID: 1, Quantity: 1}}}
	carts.On("FindByUserID", mock.Anything, uint64(7)).Return(cart, nil)
	products.On("FindByID", mock.Anything, uint64(1)).Return(&domain.Product{
		ID: 1, Title: "Mug", Price: decimal.NewFromFloat(500),
	}, nil).Once()
	repo.On("CreateWithItems", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	carts.On("ClearItems", mock.Anything, uint64(3)).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	_, err := svc.CreateOrder(context.Background(), 7, validAddress())
	assert.NoError(t, err)

	cached, err := mr.Get("product:1")
	assert.NoError(t, err)
	var p domain.Product
	assert.NoError(t, json.Unmarshal([]byte(cached), &p))
	assert.Equal(t, "Mug", p.Title)

	// Second checkout hits the cache; the repo stub only allows one call.
	_, err = svc.CreateOrder(context.Background(), 7, validAddress())
	assert.NoError(t, err)
	products.AssertExpectations(t)
}
