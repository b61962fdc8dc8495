package catalog

import (
	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/shopspring/decimal"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pricePtr(s string) *decimal.Decimal {
	d := price(s)
	return &d
}

// DefaultProducts is the holiday catalog the memory repository starts with.
// The sqlite seed migration carries the same rows.
func DefaultProducts() []domain.Product {
	return []domain.Product{
		{
			ID:            "1",
			Name:          "Cozy Winter Sweater",
			Description:   "Perfect for chilly holiday evenings. Made with premium wool blend for ultimate comfort.",
			Price:         price("89.99"),
			OriginalPrice: pricePtr("129.99"),
			Image:         "https://images.unsplash.com/photo-1551028719-00167b16eac5?w=400&h=400&fit=crop&crop=center",
			Category:      "clothing",
			Stock:         25,
			Featured:      true,
			Tags:          []string{"winter", "sweater", "cozy", "sale"},
		},
		{
			ID:          "2",
			Name:        "Holiday Ornament Set",
			Description: "Beautiful handcrafted ornaments to make your tree shine. Set of 12 assorted designs.",
			Price:       price("34.99"),
			Image:       "https://images.unsplash.com/photo-1512389098783-66b81f86e199?w=400&h=400&fit=crop&crop=center",
			Category:    "decorations",
			Stock:       50,
			Featured:    true,
			Tags:        []string{"ornaments", "christmas", "decorations", "handcrafted"},
		},
		{
			ID:          "3",
			Name:        "Festive Candle Collection",
			Description: "Set of 3 scented candles with pine, cinnamon, and vanilla fragrances.",
			Price:       price("24.99"),
			Image:       "https://images.unsplash.com/photo-1602487429187-8ff8d7d7a250?w=400&h=400&fit=crop&crop=center",
			Category:    "home",
			Stock:       30,
			Tags:        []string{"candles", "scented", "ambiance", "gift"},
		},
		{
			ID:            "4",
			Name:          "Warm Winter Gloves",
			Description:   "Touchscreen-compatible gloves to keep your hands warm while staying connected.",
			Price:         price("19.99"),
			OriginalPrice: pricePtr("29.99"),
			Image:         "https://images.unsplash.com/photo-1544966503-7cc5ac882d5d?w=400&h=400&fit=crop&crop=center",
			Category:      "accessories",
			Stock:         40,
			Tags:          []string{"gloves", "winter", "touchscreen", "warm"},
		},
		{
			ID:          "5",
			Name:        "Hot Chocolate Gift Set",
			Description: "Premium hot chocolate mix with marshmallows and peppermint stirrers.",
			Price:       price("29.99"),
			Image:       "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=400&h=400&fit=crop&crop=center",
			Category:    "food",
			Stock:       60,
			Featured:    true,
			Tags:        []string{"hot chocolate", "gift", "winter", "warm drink"},
		},
		{
			ID:          "6",
			Name:        "Holiday Wreath",
			Description: "Fresh evergreen wreath with red berries and gold ribbon. 24-inch diameter.",
			Price:       price("45.99"),
			Image:       "https://images.unsplash.com/photo-1544947950-fa07a98d237f?w=400&h=400&fit=crop&crop=center",
			Category:    "decorations",
			Stock:       20,
			Tags:        []string{"wreath", "evergreen", "door", "traditional"},
		},
		{
			ID:            "7",
			Name:          "Cozy Throw Blanket",
			Description:   "Ultra-soft fleece throw blanket perfect for snuggling by the fireplace.",
			Price:         price("39.99"),
			OriginalPrice: pricePtr("59.99"),
			Image:         "https://images.unsplash.com/photo-1586075010923-2dd4570fb338?w=400&h=400&fit=crop&crop=center",
			Category:      "home",
			Stock:         35,
			Tags:          []string{"blanket", "cozy", "fleece", "comfort"},
		},
		{
			ID:          "8",
			Name:        "Winter Boot Collection",
			Description: "Waterproof winter boots with premium insulation. Available in multiple sizes.",
			Price:       price("119.99"),
			Image:       "https://images.unsplash.com/photo-1544966503-7cc5ac882d5d?w=400&h=400&fit=crop&crop=center",
			Category:    "footwear",
			Stock:       15,
			Tags:        []string{"boots", "winter", "waterproof", "insulated"},
		},
		{
			ID:          "9",
			Name:        "Holiday Cookie Kit",
			Description: "Everything you need to bake perfect holiday cookies. Includes cookie cutters and decorating supplies.",
			Price:       price("22.99"),
			Image:       "https://images.unsplash.com/photo-1449824913935-59a10b8d2000?w=400&h=400&fit=crop&crop=center",
			Category:    "food",
			Stock:       45,
			Tags:        []string{"baking", "cookies", "kit", "family fun"},
		},
		{
			ID:          "10",
			Name:        "Festive String Lights",
			Description: "LED string lights with warm white glow. Perfect for indoor and outdoor decoration.",
			Price:       price("16.99"),
			Image:       "https://images.unsplash.com/photo-1482517967863-00e15c9b44be?w=400&h=400&fit=crop&crop=center",
			Category:    "decorations",
			Stock:       100,
			Tags:        []string{"lights", "LED", "decoration", "warm white"},
		},
		{
			ID:          "11",
			Name:        "Premium Coffee Blend",
			Description: "Special holiday blend with notes of cinnamon and nutmeg. Perfect for cold mornings.",
			Price:       price("18.99"),
			Image:       "https://images.unsplash.com/photo-1559056199-641a0ac8b55e?w=400&h=400&fit=crop&crop=center",
			Category:    "food",
			Stock:       55,
			Tags:        []string{"coffee", "premium", "blend", "morning"},
		},
		{
			ID:          "12",
			Name:        "Holiday Puzzle Set",
			Description: "1000-piece holiday-themed jigsaw puzzles. Perfect for family game nights.",
			Price:       price("14.99"),
			Image:       "https://images.unsplash.com/photo-1513475382585-d06e58bcb0e0?w=400&h=400&fit=crop&crop=center",
			Category:    "entertainment",
			Stock:       75,
			Tags:        []string{"puzzle", "family", "game", "holiday theme"},
		},
	}
}
