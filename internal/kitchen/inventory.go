package kitchen

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"mise/internal/database"
	"mise/internal/models"
	"mise/internal/prep"
)

// MealRequest describes a served meal to record
type MealRequest struct {
	RecipeID               string
	Date                   time.Time
	Quantity               float64
	ManualOverrideServings *float64
	Notes                  *string
}

// Inventory returns the kitchen's current stock
func (s *Service) Inventory(ctx context.Context, kitchenID string) ([]models.InventoryItem, error) {
	items, _, err := s.store.LoadInventory(ctx, kitchenID)
	return items, err
}

// LowStock returns the items at or below their alert level
func (s *Service) LowStock(ctx context.Context, kitchenID string) ([]models.InventoryItem, error) {
	items, err := s.Inventory(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	return prep.LowStock(items), nil
}

// UpsertInventoryItem creates or replaces one inventory item. An empty ID
// creates a new item.
func (s *Service) UpsertInventoryItem(ctx context.Context, kitchenID string, item models.InventoryItem) (*models.InventoryItem, error) {
	if err := models.ValidateInventoryItem(&item); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	unlock := s.lock(kitchenID)
	defer unlock()

	_, version, err := s.store.LoadInventory(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.KitchenID = kitchenID
	item.LastChecked = s.now()

	err = s.commit(ctx, database.Commit{
		KitchenID:       kitchenID,
		ExpectedVersion: version,
		Inventory:       []models.InventoryItem{item},
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("Stored inventory item %s (%s) for kitchen %s", item.ID, item.Name, kitchenID)
	s.publish(kitchenID, EventInventoryUpdated, "", []models.InventoryItem{item})
	return &item, nil
}

// RecordMeal stores a meal log and deducts the recipe's ingredients for the
// served batches from stock, clamped at zero.
func (s *Service) RecordMeal(ctx context.Context, kitchenID string, req MealRequest) (*models.MealLog, error) {
	if req.Quantity < 0 {
		return nil, models.ErrInvalidQuantity
	}
	if req.ManualOverrideServings != nil && *req.ManualOverrideServings < 0 {
		return nil, models.ErrInvalidQuantity
	}

	unlock := s.lock(kitchenID)
	defer unlock()

	recipe, err := s.store.GetRecipe(ctx, req.RecipeID)
	if err != nil {
		return nil, err
	}
	inventory, version, err := s.store.LoadInventory(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = s.now()
	}

	entry := models.MealLog{
		ID:                     uuid.NewString(),
		KitchenID:              kitchenID,
		RecipeID:               recipe.ID,
		RecipeName:             recipe.Name,
		Date:                   date,
		Quantity:               req.Quantity,
		ManualOverrideServings: req.ManualOverrideServings,
		Notes:                  req.Notes,
	}

	updated := prep.DeductForMeal(*recipe, req.Quantity, inventory)

	err = s.commit(ctx, database.Commit{
		KitchenID:       kitchenID,
		ExpectedVersion: version,
		Inventory:       changedItems(inventory, updated),
		MealLog:         &entry,
	})
	if err != nil {
		return nil, err
	}

	s.recorder.MealLogged(kitchenID)
	s.recordDeductions(kitchenID, inventory, updated)
	s.log.Info("Recorded %v x %s for kitchen %s", req.Quantity, recipe.Name, kitchenID)
	s.publish(kitchenID, EventMealLogged, "", entry)

	return &entry, nil
}

// MealLogs returns the kitchen's meal history, newest first
func (s *Service) MealLogs(ctx context.Context, kitchenID string, filter database.MealLogFilter) ([]models.MealLog, error) {
	if _, err := s.store.GetKitchen(ctx, kitchenID); err != nil {
		return nil, err
	}
	return s.store.ListMealLogs(ctx, kitchenID, filter)
}

// Recipes returns every recipe
func (s *Service) Recipes(ctx context.Context) ([]models.Recipe, error) {
	return s.store.ListRecipes(ctx)
}

// CreateRecipe validates and stores a new recipe. Missing recipe and
// ingredient IDs are generated.
func (s *Service) CreateRecipe(ctx context.Context, recipe models.Recipe) (*models.Recipe, error) {
	if err := models.ValidateRecipe(&recipe); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	if recipe.ID == "" {
		recipe.ID = uuid.NewString()
	}
	recipe.Ingredients = numberIngredients(recipe.Ingredients)
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = s.now()
	}

	if err := s.store.CreateRecipe(ctx, &recipe); err != nil {
		return nil, err
	}
	s.log.Info("Created recipe %s (%s)", recipe.Name, recipe.ID)
	return &recipe, nil
}

// numberIngredients returns a copy of ingredients where every missing ID is
// the lowest positive number not already taken by another ingredient.
func numberIngredients(ingredients models.IngredientList) models.IngredientList {
	used := make(map[string]bool, len(ingredients))
	for _, ingredient := range ingredients {
		if ingredient.ID != "" {
			used[ingredient.ID] = true
		}
	}

	numbered := make(models.IngredientList, len(ingredients))
	next := 1
	for i, ingredient := range ingredients {
		if ingredient.ID == "" {
			for used[strconv.Itoa(next)] {
				next++
			}
			ingredient.ID = strconv.Itoa(next)
			used[ingredient.ID] = true
		}
		numbered[i] = ingredient
	}
	return numbered
}
