package domain

import "time"

// Routing keys for the orders exchange.
const (
	EventOrderCreated    = "order.created"
	EventOrderPaid       = "order.paid"
	EventShipmentCreated = "shipment.created"
)

type OrderCreatedEvent struct {
	OrderID     uint64    `json:"orderId"`
	UserID      uint64    `json:"userId"`
	TotalAmount string    `json:"totalAmount"`
	ItemCount   int       `json:"itemCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type OrderPaidEvent struct {
	OrderID   uint64    `json:"orderId"`
	TxnID     string    `json:"txnId"`
	PaymentID string    `json:"paymentId"`
	Amount    string    `json:"amount"`
	PaidAt    time.Time `json:"paidAt"`
}

type ShipmentCreatedEvent struct {
	OrderID    uint64    `json:"orderId"`
	AwbCode    string    `json:"awbCode"`
	ShipmentID string    `json:"shipmentId"`
	CreatedAt  time.Time `json:"createdAt"`
}
