package prep

import (
	"github.com/shopspring/decimal"

	"mise/internal/models"
)

// ComputeShortages reports every ingredient of recipe whose stock is below
// what batches require. Missing inventory counts as zero available. The
// result follows the recipe's ingredient order.
func ComputeShortages(recipe models.Recipe, batches float64, inventory []models.InventoryItem) []models.IngredientShortage {
	idx := newStockIndex(inventory)
	shortages := make([]models.IngredientShortage, 0)

	for _, ingredient := range recipe.Ingredients {
		need := required(ingredient.Quantity, batches)

		available := decimal.Zero
		if i, ok := idx.lookup(ingredient); ok {
			available = decimal.NewFromFloat(inventory[i].Quantity)
			if !available.LessThan(need) {
				continue
			}
		}

		shortages = append(shortages, models.IngredientShortage{
			IngredientName: ingredient.Name,
			Required:       need.InexactFloat64(),
			Available:      available.InexactFloat64(),
			Unit:           ingredient.Unit,
		})
	}

	return shortages
}
