package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Image         string           `json:"image"`
	Category      string           `json:"category"`
	Stock         int              `json:"stock"`
	Featured      bool             `json:"featured"`
	Tags          []string         `json:"tags"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}
