package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"orderflow/internal/config"
	"orderflow/internal/domain"
	"orderflow/internal/middleware"
	"orderflow/internal/mocks"
	"orderflow/internal/services"
)

var jwtCfg = config.JWTConfig{Secret: "test-secret"}

func userRouter(repo *mocks.MockOrderRepository, carts *mocks.MockCartRepository, products *mocks.MockProductRepository, carrier *mocks.MockCarrier) *gin.Engine {
	gin.SetMode(gin.TestMode)

	pub := new(mocks.MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	checkout := services.NewCheckoutService(repo, carts, products, pub, zap.NewNop())
	orders := services.NewOrderService(repo, carrier, zap.NewNop())

	r := gin.New()
	group := r.Group("/", middleware.RequireUser(jwtCfg))
	NewOrderHandler(checkout, orders).Register(group)
	return r
}

func authedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	token, err := middleware.GenerateToken(jwtCfg, 7, middleware.RoleUser)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestCreateOrderEndpoint_ValidationFailure(t *testing.T) {
	r := userRouter(new(mocks.MockOrderRepository), new(mocks.MockCartRepository), new(mocks.MockProductRepository), new(mocks.MockCarrier))

	body := `{"firstName":"Asha","lastName":"Rao","mobileNumber":"12345","emailAddress":"asha@example.com","fullAddress":"12 MG Road","townOrCity":"Bengaluru","country":"India","state":"Karnataka","pinCode":"560001"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, http.MethodPost, "/order", body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Validation failed.", resp.Message)
	assert.Contains(t, resp.Errors, "Mobile Number is required and must be exactly 10 digits.")
}

func TestCreateOrderEndpoint_RequiresAuth(t *testing.T) {
	r := userRouter(new(mocks.MockOrderRepository), new(mocks.MockCartRepository), new(mocks.MockProductRepository), new(mocks.MockCarrier))

	req := httptest.NewRequest(http.MethodPost, "/order", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCancelOrderEndpoint_Conflict(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	repo.On("FindForUser", mock.Anything, uint64(42), uint64(7)).
		Return(&domain.Order{ID: 42, UserID: 7, Status: domain.StatusShipped}, nil)

	r := userRouter(repo, new(mocks.MockCartRepository), new(mocks.MockProductRepository), new(mocks.MockCarrier))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, http.MethodPost, "/order/42/cancel", ""))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Cannot cancel order with status: shipped")
}

func TestGetOrderEndpoint_NotFoundForOtherUser(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	repo.On("FindForUser", mock.Anything, uint64(42), uint64(7)).Return(nil, nil)

	r := userRouter(repo, new(mocks.MockCartRepository), new(mocks.MockProductRepository), new(mocks.MockCarrier))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, http.MethodGet, "/order/42", ""))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrackOrderEndpoint_NoShipmentYet(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	repo.On("FindForUser", mock.Anything, uint64(42), uint64(7)).
		Return(&domain.Order{ID: 42, UserID: 7, Status: domain.StatusPaid}, nil)

	r := userRouter(repo, new(mocks.MockCartRepository), new(mocks.MockProductRepository), new(mocks.MockCarrier))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, http.MethodGet, "/order/42/track", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Shipment not yet created for this order.")
}

func TestOrderEndpoints_BadOrderID(t *testing.T) {
	r := userRouter(new(mocks.MockOrderRepository), new(mocks.MockCartRepository), new(mocks.MockProductRepository), new(mocks.MockCarrier))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, http.MethodGet, "/order/banana", ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
