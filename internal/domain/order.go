package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusPaid       OrderStatus = "paid"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every recognized status, in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending, StatusPaid, StatusProcessing,
	StatusShipped, StatusDelivered, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Shipment status values written by this service. Anything else comes
// verbatim from the carrier.
const (
	ShipmentNotCreated = "not created"
	ShipmentCreated    = "created"
)

// Order is one checkout attempt. Address and amount fields are frozen at
// creation; lifecycle fields mutate as payment and shipment progress.
type Order struct {
	ID          uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      uint64          `json:"userId" gorm:"not null;index"`
	TotalAmount decimal.Decimal `json:"totalAmount" gorm:"type:decimal(10,2);not null"`

	FirstName    string `json:"firstName" gorm:"size:255"`
	LastName     string `json:"lastName" gorm:"size:255;not null"`
	MobileNumber string `json:"mobileNumber" gorm:"size:20;not null"`
	EmailAddress string `json:"emailAddress" gorm:"size:255;not null"`
	FullAddress  string `json:"fullAddress" gorm:"type:text;not null"`
	TownOrCity   string `json:"townOrCity" gorm:"size:255;not null"`
	Country      string `json:"country" gorm:"size:255;not null"`
	State        string `json:"state" gorm:"size:255;not null"`
	PinCode      string `json:"pinCode" gorm:"size:10;not null"`

	Status OrderStatus `json:"status" gorm:"type:enum('pending','paid','processing','shipped','delivered','cancelled');default:'pending';not null;index"`

	PayuTxnID     string `json:"payuTxnId" gorm:"size:255;index"`
	PayuPaymentID string `json:"payuPaymentId" gorm:"size:255"`
	PaymentMode   string `json:"paymentMode" gorm:"size:64"`
	BankRefNo     string `json:"bankRefNo" gorm:"size:255"`
	PayuStatus    string `json:"payuStatus" gorm:"size:64"`
	PayuError     string `json:"payuError" gorm:"type:text"`
	PayuResponse  string `json:"-" gorm:"type:json"`

	ShipmentID       string `json:"shipmentId" gorm:"size:255"`
	AwbCode          string `json:"awbCode" gorm:"size:255"`
	CourierName      string `json:"courierName" gorm:"size:255"`
	ShipmentStatus   string `json:"shipmentStatus" gorm:"size:64;default:'not created'"`
	ShippingLabelURL string `json:"shippingLabelUrl" gorm:"size:500"`

	Items []OrderItem `json:"orderItems,omitempty" gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// CanCancel reports whether the owner may still cancel: only before payment.
func (o *Order) CanCancel() bool {
	return o.Status == StatusPending
}

// IsCOD reports whether the order is cash-on-delivery. The carrier's COD
// amount is only populated for these.
func (o *Order) IsCOD() bool {
	switch o.PaymentMode {
	case "COD", "cod", "Cod":
		return true
	}
	return false
}

// BuyerName joins the frozen name fields for carrier and email payloads.
func (o *Order) BuyerName() string {
	if o.FirstName == "" {
		return o.LastName
	}
	return o.FirstName + " " + o.LastName
}

// OrderItem is an immutable snapshot of one cart line at purchase time.
// PriceAtPurchase is the price captured at checkout, never a live lookup.
type OrderItem struct {
	ID              uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID         uint64          `json:"orderId" gorm:"not null;index"`
	ProductID       uint64          `json:"productId" gorm:"not null"`
	Quantity        int             `json:"quantity" gorm:"not null"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase" gorm:"type:decimal(10,2);not null"`
	ProductTitle    string          `json:"productTitle" gorm:"size:255"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }

// PaymentMeta carries verified gateway callback fields persisted onto the order.
type PaymentMeta struct {
	PaymentID   string
	Mode        string
	BankRefNo   string
	Status      string
	Error       string
	RawResponse string
}

// ShipmentMeta carries carrier identifiers persisted after shipment creation.
type ShipmentMeta struct {
	ShipmentID string
	AwbCode    string
	Courier    string
	LabelURL   string
	Status     string
}
