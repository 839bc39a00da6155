package prep

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mise/internal/models"
)

// newAlertRatio sets the alert level of items created from completed prep
var newAlertRatio = decimal.NewFromFloat(0.2)

// ApplyApprovedImpact returns a new inventory snapshot with the ingredients of
// every approved suggestion deducted at its UserQuantity. Stock is clamped at
// zero and ingredients missing from inventory are ignored. Suggestions in any
// other status, including completed, are skipped.
//
// The deduction is not idempotent: passing the same approved suggestion twice
// deducts twice. Callers apply each suggestion exactly once, at approval.
func ApplyApprovedImpact(suggestions []models.PrepSuggestion, recipes []models.Recipe, inventory []models.InventoryItem) []models.InventoryItem {
	updated := cloneInventory(inventory)
	idx := newStockIndex(updated)
	byID := recipeByID(recipes)

	for _, suggestion := range suggestions {
		if suggestion.Status != models.SuggestionApproved {
			continue
		}
		recipe, ok := byID[suggestion.RecipeID]
		if !ok {
			continue
		}
		deduct(updated, idx, *recipe, float64(suggestion.UserQuantity))
	}

	return updated
}

// DeductForMeal returns a new inventory snapshot with the ingredients of
// batches of recipe removed, clamped at zero.
func DeductForMeal(recipe models.Recipe, batches float64, inventory []models.InventoryItem) []models.InventoryItem {
	updated := cloneInventory(inventory)
	deduct(updated, newStockIndex(updated), recipe, batches)
	return updated
}

func deduct(inventory []models.InventoryItem, idx *stockIndex, recipe models.Recipe, batches float64) {
	for _, ingredient := range recipe.Ingredients {
		i, ok := idx.lookup(ingredient)
		if !ok {
			continue
		}
		stock := decimal.NewFromFloat(inventory[i].Quantity)
		inventory[i].Quantity = clampedSub(stock, required(ingredient.Quantity, batches)).InexactFloat64()
	}
}

// ApplyCompletedTasksToInventory returns a new inventory snapshot with the
// unstocked part of every finished task added to stock, that is its completed
// quantity less what an earlier completion already stocked. Tasks resolve to
// items like recipe ingredients do, by inventory ID first and then by name.
// Matching items get LastChecked set to now. Tasks for ingredients not in
// inventory create a new item with an alert level of 20% of the added amount.
func ApplyCompletedTasksToInventory(inventory []models.InventoryItem, tasks []models.PrepTask, now time.Time) []models.InventoryItem {
	updated := cloneInventory(inventory)
	idx := newStockIndex(updated)

	for _, task := range tasks {
		if !task.IsCompleted {
			continue
		}
		amount := UnstockedQuantity(task)
		if !amount.IsPositive() {
			continue
		}

		ref := models.RecipeIngredient{Name: task.IngredientName, InventoryID: task.InventoryID}
		if i, ok := idx.lookup(ref); ok {
			updated[i].Quantity = decimal.NewFromFloat(updated[i].Quantity).Add(amount).InexactFloat64()
			updated[i].LastChecked = now
			continue
		}

		item := models.InventoryItem{
			ID:          uuid.NewString(),
			Name:        task.IngredientName,
			Quantity:    amount.InexactFloat64(),
			Unit:        task.Unit,
			AlertLevel:  amount.Mul(newAlertRatio).InexactFloat64(),
			ExpiryDate:  nil,
			LastChecked: now,
		}
		updated = append(updated, item)
		idx.add(len(updated)-1, item)
	}

	return updated
}

// UnstockedQuantity is the completed quantity of task not yet added to stock
func UnstockedQuantity(task models.PrepTask) decimal.Decimal {
	return clampedSub(decimal.NewFromFloat(task.CompletedQuantity), decimal.NewFromFloat(task.StockedQuantity))
}
