package domain

import "github.com/shopspring/decimal"

// MenuCategoryAll disables the category filter.
const MenuCategoryAll = "All"

// FallbackMenu is what a kiosk shows when neither the database nor any cache
// can answer. Each call returns a fresh copy.
func FallbackMenu() []MenuItem {
	return []MenuItem{
		{
			ID:          1,
			Name:        "Assorted House-made Cheese (S)",
			Description: "Fresh mozzarella, burrata, ricotta, aged provolone, house-made focaccia",
			Price:       decimal.RequireFromString("14.95"),
			ImageURL:    "https://pizza4ps.com/wp-content/uploads/2023/07/BYO_Assorted-Cheese_S-2-scaled.jpg",
			Category:    "Appetizers & Salads",
			IsPopular:   true,
			IsAvailable: true,
		},
	}
}
