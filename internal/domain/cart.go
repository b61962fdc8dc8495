package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the persisted form of a session cart. Items carry only product ids,
// prices and stock are resolved against the catalog on read.
type Cart struct {
	SessionID string     `bson:"session_id" json:"session_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID string    `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// CartLine is a cart item joined with its product.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l CartLine) LineItem() LineItem {
	return LineItem{
		ProductID: l.Product.ID,
		Name:      l.Product.Name,
		UnitPrice: l.Product.Price,
		Quantity:  l.Quantity,
	}
}
