package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"

	"mise/internal/models"
)

// seedLatest is the newest entry of the sample meal history. Seeded logs are
// shifted by whole weeks so they keep their weekdays but end just before now.
var seedLatest = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

func seedDate(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(fmt.Sprintf("invalid seed date %q: %v", value, err))
	}
	return t
}

func seedDay(value string) *time.Time {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(fmt.Sprintf("invalid seed day %q: %v", value, err))
	}
	return &t
}

func defaultInventory(kitchenID string) []models.InventoryItem {
	checked := seedDate("2025-03-15T10:30:00Z")
	items := []models.InventoryItem{
		{ID: "1", Name: "Tomatoes", Quantity: 5, Unit: "kg", AlertLevel: 2, ExpiryDate: seedDay("2025-04-10")},
		{ID: "2", Name: "Onions", Quantity: 3, Unit: "kg", AlertLevel: 1, ExpiryDate: seedDay("2025-05-20")},
		{ID: "3", Name: "Chicken Breasts", Quantity: 1.5, Unit: "kg", AlertLevel: 2, ExpiryDate: seedDay("2025-03-20")},
		{ID: "4", Name: "Flour", Quantity: 10, Unit: "kg", AlertLevel: 3, ExpiryDate: seedDay("2025-09-15")},
		{ID: "5", Name: "Olive Oil", Quantity: 0.8, Unit: "l", AlertLevel: 1, ExpiryDate: seedDay("2025-12-30")},
		{ID: "6", Name: "Salt", Quantity: 1.2, Unit: "kg", AlertLevel: 0.5},
		{ID: "7", Name: "Black Pepper", Quantity: 0.3, Unit: "kg", AlertLevel: 0.1},
		{ID: "8", Name: "Rice", Quantity: 8, Unit: "kg", AlertLevel: 3, ExpiryDate: seedDay("2025-08-15")},
		{ID: "9", Name: "Carrots", Quantity: 2, Unit: "kg", AlertLevel: 1, ExpiryDate: seedDay("2025-03-25")},
		{ID: "10", Name: "Peas", Quantity: 1.5, Unit: "kg", AlertLevel: 0.5, ExpiryDate: seedDay("2025-04-05")},
	}
	for i := range items {
		items[i].KitchenID = kitchenID
		items[i].LastChecked = checked
	}
	return items
}

func defaultRecipes() []models.Recipe {
	return []models.Recipe{
		{
			ID:          "1",
			Name:        "Tomato Sauce",
			Description: "Classic Italian tomato sauce for pasta",
			Category:    "Sauces",
			Ingredients: models.IngredientList{
				{ID: "1", Name: "Tomatoes", Quantity: 2, Unit: "kg"},
				{ID: "2", Name: "Onions", Quantity: 0.5, Unit: "kg"},
				{ID: "3", Name: "Olive Oil", Quantity: 0.05, Unit: "l"},
				{ID: "4", Name: "Salt", Quantity: 0.02, Unit: "kg"},
				{ID: "5", Name: "Black Pepper", Quantity: 0.005, Unit: "kg"},
			},
			CreatedAt: seedDate("2025-02-20T14:30:00Z"),
		},
		{
			ID:          "2",
			Name:        "Grilled Chicken",
			Description: "Simple grilled chicken breast with herbs",
			Category:    "Main Course",
			Ingredients: models.IngredientList{
				{ID: "1", Name: "Chicken Breasts", Quantity: 0.5, Unit: "kg"},
				{ID: "2", Name: "Olive Oil", Quantity: 0.03, Unit: "l"},
				{ID: "3", Name: "Salt", Quantity: 0.01, Unit: "kg"},
				{ID: "4", Name: "Black Pepper", Quantity: 0.002, Unit: "kg"},
			},
			CreatedAt: seedDate("2025-02-25T10:15:00Z"),
		},
		{
			ID:          "3",
			Name:        "Fried Rice",
			Description: "Quick and easy fried rice with vegetables",
			Category:    "Side Dish",
			Ingredients: models.IngredientList{
				{ID: "1", Name: "Rice", Quantity: 0.4, Unit: "kg"},
				{ID: "2", Name: "Onions", Quantity: 0.1, Unit: "kg"},
				{ID: "3", Name: "Carrots", Quantity: 0.1, Unit: "kg"},
				{ID: "4", Name: "Peas", Quantity: 0.1, Unit: "kg"},
				{ID: "5", Name: "Salt", Quantity: 0.005, Unit: "kg"},
			},
			CreatedAt: seedDate("2025-03-01T16:45:00Z"),
		},
	}
}

func note(s string) *string {
	return &s
}

func defaultMealLogs(kitchenID string, now time.Time) []models.MealLog {
	weeks := int(now.Sub(seedLatest).Hours() / (24 * 7))
	if weeks < 0 {
		weeks = 0
	}
	shift := time.Duration(weeks) * 7 * 24 * time.Hour

	logs := []models.MealLog{
		{ID: "1", RecipeID: "1", RecipeName: "Tomato Sauce", Date: seedDate("2025-03-14T18:30:00Z"), Quantity: 2, Notes: note("Made for dinner service, used with pasta")},
		{ID: "2", RecipeID: "2", RecipeName: "Grilled Chicken", Date: seedDate("2025-03-14T12:15:00Z"), Quantity: 4, Notes: note("Lunch special")},
		{ID: "3", RecipeID: "3", RecipeName: "Fried Rice", Date: seedDate("2025-03-13T19:00:00Z"), Quantity: 3, Notes: note("Evening side dish")},
		{ID: "4", RecipeID: "1", RecipeName: "Tomato Sauce", Date: seedDate("2025-03-12T17:45:00Z"), Quantity: 1},
		{ID: "5", RecipeID: "2", RecipeName: "Grilled Chicken", Date: seedDate("2025-03-11T12:30:00Z"), Quantity: 3, Notes: note("Staff meal")},
		{ID: "6", RecipeID: "3", RecipeName: "Fried Rice", Date: seedDate("2025-03-11T18:15:00Z"), Quantity: 2},
		{ID: "7", RecipeID: "1", RecipeName: "Tomato Sauce", Date: seedDate("2025-03-10T17:30:00Z"), Quantity: 2, Notes: note("For pasta night")},
		{ID: "8", RecipeID: "2", RecipeName: "Grilled Chicken", Date: seedDate("2025-03-10T12:00:00Z"), Quantity: 5, Notes: note("Catering order")},
		{ID: "9", RecipeID: "3", RecipeName: "Fried Rice", Date: seedDate("2025-03-09T18:45:00Z"), Quantity: 4, Notes: note("Weekend special")},
		{ID: "10", RecipeID: "1", RecipeName: "Tomato Sauce", Date: seedDate("2025-03-08T17:15:00Z"), Quantity: 3, Notes: note("Saturday dinner rush")},
	}
	for i := range logs {
		logs[i].ID = kitchenID + "-seed-" + logs[i].ID
		logs[i].KitchenID = kitchenID
		logs[i].Date = logs[i].Date.Add(shift)
	}
	return logs
}

// Seed ensures the kitchen exists and fills empty tables with sample data.
// Tables that already hold rows are left alone.
func (s *Store) Seed(ctx context.Context, kitchen models.Kitchen, now time.Time) error {
	if _, err := s.EnsureKitchen(ctx, kitchen.ID, kitchen.Name, kitchen.Timezone); err != nil {
		return err
	}

	return s.transact(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Recipe{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count recipes: %w", err)
		}
		if count == 0 {
			for _, recipe := range defaultRecipes() {
				if err := tx.Create(&recipe).Error; err != nil {
					return fmt.Errorf("failed to seed recipe %s: %w", recipe.Name, err)
				}
			}
			s.log.Info("Seeded default recipes")
		}

		count = 0
		if err := tx.Model(&models.InventoryItem{}).Where("kitchen_id = ?", kitchen.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count inventory items: %w", err)
		}
		if count == 0 {
			for _, item := range defaultInventory(kitchen.ID) {
				if err := tx.Create(&item).Error; err != nil {
					return fmt.Errorf("failed to seed inventory item %s: %w", item.Name, err)
				}
			}
			s.log.Info("Seeded default inventory for kitchen %s", kitchen.ID)
		}

		count = 0
		if err := tx.Model(&models.MealLog{}).Where("kitchen_id = ?", kitchen.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count meal logs: %w", err)
		}
		if count == 0 {
			for _, entry := range defaultMealLogs(kitchen.ID, now) {
				entry.Date = entry.Date.UTC()
				if err := tx.Create(&entry).Error; err != nil {
					return fmt.Errorf("failed to seed meal log: %w", err)
				}
			}
			s.log.Info("Seeded meal history for kitchen %s", kitchen.ID)
		}
		return nil
	})
}
