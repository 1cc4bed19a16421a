package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"orderflow/internal/domain"
	"orderflow/internal/infra/rabbitmq"
	"orderflow/internal/repository"
)

var (
	mobileRe  = regexp.MustCompile(`^\d{10}$`)
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	pinCodeRe = regexp.MustCompile(`^\d{6}$`)
)

// CheckoutAddress is the shipping address frozen onto the order.
type CheckoutAddress struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	MobileNumber string `json:"mobileNumber"`
	EmailAddress string `json:"emailAddress"`
	FullAddress  string `json:"fullAddress"`
	TownOrCity   string `json:"townOrCity"`
	Country      string `json:"country"`
	State        string `json:"state"`
	PinCode      string `json:"pinCode"`
}

func (a *CheckoutAddress) validate() *domain.ValidationError {
	var violations []string
	require := func(field, label string) {
		if strings.TrimSpace(field) == "" {
			violations = append(violations, label+" is required and must be a non-empty string.")
		}
	}
	require(a.FirstName, "First Name")
	require(a.LastName, "Last Name")
	if !mobileRe.MatchString(a.MobileNumber) {
		violations = append(violations, "Mobile Number is required and must be exactly 10 digits.")
	}
	if !emailRe.MatchString(a.EmailAddress) {
		violations = append(violations, "Valid Email Address is required.")
	}
	require(a.FullAddress, "Full Address")
	require(a.TownOrCity, "Town or City")
	require(a.Country, "Country")
	require(a.State, "State")
	if !pinCodeRe.MatchString(a.PinCode) {
		violations = append(violations, "Pin Code is required and must be exactly 6 digits.")
	}
	if len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}
	return nil
}

// CheckoutService converts a user's cart into an immutable order snapshot.
type CheckoutService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	products  repository.ProductRepository
	publisher rabbitmq.PublisherInterface
	redis     *redis.Client
	log       *zap.Logger
}

func NewCheckoutService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	products repository.ProductRepository,
	publisher rabbitmq.PublisherInterface,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		carts:     carts,
		products:  products,
		publisher: publisher,
		log:       log,
	}
}

func (s *CheckoutService) SetRedisClient(client *redis.Client) {
	s.redis = client
}

// CreateOrder snapshots the cart into an order: validates the address,
// prices every line from prices captured now, writes order+items in one
// transaction, and clears the cart only after that commit.
func (s *CheckoutService) CreateOrder(ctx context.Context, userID uint64, addr CheckoutAddress) (*domain.Order, error) {
	if v := addr.validate(); v != nil {
		return nil, v
	}

	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, domain.ErrCartEmpty
	}

	byID := make(map[uint64]*domain.Product, len(cart.Items))
	var missing []uint64
	for _, item := range cart.Items {
		p, err := s.productWithCache(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %d: %w", item.ProductID, err)
		}
		if p == nil {
			missing = append(missing, item.ProductID)
			continue
		}
		byID[item.ProductID] = p
	}
	if len(missing) > 0 {
		return nil, &domain.UnavailableProductsError{ProductIDs: missing}
	}

	total := decimal.Zero
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		p := byID[line.ProductID]
		price := p.EffectivePrice()
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, domain.OrderItem{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceAtPurchase: price,
			ProductTitle:    p.Title,
		})
	}

	order := &domain.Order{
		UserID:         userID,
		TotalAmount:    total.Round(2),
		FirstName:      strings.TrimSpace(addr.FirstName),
		LastName:       strings.TrimSpace(addr.LastName),
		MobileNumber:   addr.MobileNumber,
		EmailAddress:   strings.TrimSpace(addr.EmailAddress),
		FullAddress:    strings.TrimSpace(addr.FullAddress),
		TownOrCity:     strings.TrimSpace(addr.TownOrCity),
		Country:        strings.TrimSpace(addr.Country),
		State:          strings.TrimSpace(addr.State),
		PinCode:        addr.PinCode,
		Status:         domain.StatusPending,
		ShipmentStatus: domain.ShipmentNotCreated,
	}

	if err := s.orders.CreateWithItems(ctx, order, items); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// Only now that order+items are durable may the cart empty out.
	if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
		s.log.Error("cart clear failed after order creation",
			zap.Uint64("orderId", order.ID), zap.Error(err))
	}

	go s.publishOrderCreated(order)

	return order, nil
}

func (s *CheckoutService) productWithCache(ctx context.Context, id uint64) (*domain.Product, error) {
	cacheKey := fmt.Sprintf("product:%d", id)

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var p domain.Product
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.redis != nil && p != nil {
		if data, err := json.Marshal(p); err == nil {
			s.redis.Set(ctx, cacheKey, data, time.Minute)
		}
	}

	return p, nil
}

func (s *CheckoutService) publishOrderCreated(order *domain.Order) {
	evt := domain.OrderCreatedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount.StringFixed(2),
		ItemCount:   len(order.Items),
		CreatedAt:   order.CreatedAt,
	}
	if err := s.publisher.Publish(context.Background(), domain.EventOrderCreated, evt); err != nil {
		s.log.Error("publish order.created failed",
			zap.Uint64("orderId", order.ID), zap.Error(err))
	}
}
