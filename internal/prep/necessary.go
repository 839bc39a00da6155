package prep

import (
	"github.com/shopspring/decimal"

	"mise/internal/models"
)

// NecessaryItem is the net amount of one ingredient still to be produced
type NecessaryItem struct {
	Name            string  `json:"name"`
	NecessaryAmount float64 `json:"necessaryAmount"`
	Unit            string  `json:"unit"`
	CurrentStock    float64 `json:"currentStock"`
}

// NecessaryPrep lists one entry per recipe ingredient
type NecessaryPrep struct {
	Items                   []NecessaryItem `json:"necessaryIngredients"`
	CanPrepWithCurrentStock bool            `json:"canPrepWithCurrentStock"`
}

// ComputeNecessaryPrep nets the requirement for batches against current stock
// for every ingredient of recipe.
func ComputeNecessaryPrep(recipe models.Recipe, batches float64, inventory []models.InventoryItem) NecessaryPrep {
	idx := newStockIndex(inventory)
	result := NecessaryPrep{
		Items:                   make([]NecessaryItem, 0, len(recipe.Ingredients)),
		CanPrepWithCurrentStock: true,
	}

	for _, ingredient := range recipe.Ingredients {
		stock, necessary := netRequirement(idx, inventory, ingredient, batches)
		if !necessary.IsZero() {
			result.CanPrepWithCurrentStock = false
		}
		result.Items = append(result.Items, NecessaryItem{
			Name:            ingredient.Name,
			NecessaryAmount: necessary.InexactFloat64(),
			Unit:            ingredient.Unit,
			CurrentStock:    stock.InexactFloat64(),
		})
	}

	return result
}

// netRequirement returns current stock and max(0, required-stock) for one ingredient
func netRequirement(idx *stockIndex, inventory []models.InventoryItem, ingredient models.RecipeIngredient, batches float64) (decimal.Decimal, decimal.Decimal) {
	stock := decimal.Zero
	if i, ok := idx.lookup(ingredient); ok {
		stock = decimal.NewFromFloat(inventory[i].Quantity)
	}
	return stock, clampedSub(required(ingredient.Quantity, batches), stock)
}
