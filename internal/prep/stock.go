package prep

import (
	"github.com/shopspring/decimal"

	"mise/internal/models"
)

// stockIndex resolves recipe ingredients to inventory positions. The first
// item with a given name or ID wins, matching a linear search.
type stockIndex struct {
	byName map[string]int
	byID   map[string]int
}

func newStockIndex(inventory []models.InventoryItem) *stockIndex {
	idx := &stockIndex{
		byName: make(map[string]int, len(inventory)),
		byID:   make(map[string]int, len(inventory)),
	}
	for i, item := range inventory {
		idx.add(i, item)
	}
	return idx
}

func (s *stockIndex) add(i int, item models.InventoryItem) {
	if _, ok := s.byName[item.Name]; !ok {
		s.byName[item.Name] = i
	}
	if item.ID == "" {
		return
	}
	if _, ok := s.byID[item.ID]; !ok {
		s.byID[item.ID] = i
	}
}

// lookup finds the inventory position for an ingredient. An explicit
// InventoryID is used when present; otherwise the exact name is matched.
func (s *stockIndex) lookup(ingredient models.RecipeIngredient) (int, bool) {
	if ingredient.InventoryID != "" {
		if i, ok := s.byID[ingredient.InventoryID]; ok {
			return i, true
		}
	}
	i, ok := s.byName[ingredient.Name]
	return i, ok
}

// required scales a per-batch amount by a batch count without float drift
func required(perBatch, batches float64) decimal.Decimal {
	return decimal.NewFromFloat(perBatch).Mul(decimal.NewFromFloat(batches))
}

// clampedSub returns max(0, a-b)
func clampedSub(a, b decimal.Decimal) decimal.Decimal {
	diff := a.Sub(b)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

func cloneInventory(inventory []models.InventoryItem) []models.InventoryItem {
	out := make([]models.InventoryItem, len(inventory))
	for i, item := range inventory {
		out[i] = item.Clone()
	}
	return out
}

func recipeByID(recipes []models.Recipe) map[string]*models.Recipe {
	out := make(map[string]*models.Recipe, len(recipes))
	for i := range recipes {
		if _, ok := out[recipes[i].ID]; !ok {
			out[recipes[i].ID] = &recipes[i]
		}
	}
	return out
}

// LowStock returns the items whose quantity is at or below their alert level
func LowStock(inventory []models.InventoryItem) []models.InventoryItem {
	var out []models.InventoryItem
	for _, item := range inventory {
		if item.IsLowStock() {
			out = append(out, item.Clone())
		}
	}
	return out
}
