package http

import "orderflow/internal/services"

// CreateOrderRequest is the checkout body; the cart itself is server-side.
type CreateOrderRequest struct {
	FirstName    string `json:"firstName" binding:"required"`
	LastName     string `json:"lastName" binding:"required"`
	MobileNumber string `json:"mobileNumber" binding:"required"`
	EmailAddress string `json:"emailAddress" binding:"required,email"`
	FullAddress  string `json:"fullAddress" binding:"required"`
	TownOrCity   string `json:"townOrCity" binding:"required"`
	Country      string `json:"country" binding:"required"`
	State        string `json:"state" binding:"required"`
	PinCode      string `json:"pinCode" binding:"required"`
}

func (r CreateOrderRequest) Address() services.CheckoutAddress {
	return services.CheckoutAddress{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		MobileNumber: r.MobileNumber,
		EmailAddress: r.EmailAddress,
		FullAddress:  r.FullAddress,
		TownOrCity:   r.TownOrCity,
		Country:      r.Country,
		State:        r.State,
		PinCode:      r.PinCode,
	}
}

type CreatePaymentRequest struct {
	OrderID uint64 `json:"orderId" binding:"required"`
}

type VerifyPaymentRequest struct {
	OrderID uint64 `json:"orderId" binding:"required"`
	TxnID   string `json:"txnId"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreateShipmentRequest struct {
	OrderID      uint64 `json:"orderId" binding:"required"`
	FetchWaybill bool   `json:"fetchWaybill"`
	WeightGrams  int    `json:"weightGm"`
}
