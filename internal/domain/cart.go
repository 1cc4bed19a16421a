package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        uint64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint64     `json:"userId" gorm:"uniqueIndex;not null"`
	Items     []CartItem `json:"items,omitempty" gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Cart) TableName() string { return "carts" }

type CartItem struct {
	ID        uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	CartID    uint64 `json:"cartId" gorm:"not null;index"`
	ProductID uint64 `json:"productId" gorm:"not null"`
	Quantity  int    `json:"quantity" gorm:"not null;default:1"`
}

func (CartItem) TableName() string { return "cart_items" }

type Product struct {
	ID            uint64           `json:"id" gorm:"primaryKey;autoIncrement"`
	Title         string           `json:"title" gorm:"size:255;not null"`
	Price         decimal.Decimal  `json:"price" gorm:"type:decimal(10,2);not null"`
	DiscountPrice *decimal.Decimal `json:"discountPrice" gorm:"type:decimal(10,2)"`
	CreatedAt     time.Time        `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// EffectivePrice is the price a checkout snapshot captures: the discount
// price when one is set, the list price otherwise.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}
