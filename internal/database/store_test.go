package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mise/internal/models"
)

var testNow = time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("sqlite3", ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Seed(context.Background(), models.Kitchen{ID: "main", Name: "Main", Timezone: "UTC"}, testNow))
	return store
}

func TestSeed(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	recipes, err := store.ListRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.Equal(t, "Tomato Sauce", recipes[0].Name)
	assert.Len(t, recipes[0].Ingredients, 5)
	assert.Equal(t, 0.005, recipes[0].Ingredients[4].Quantity)

	items, version, err := store.LoadInventory(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.Equal(t, int64(0), version)

	logs, err := store.ListMealLogs(ctx, "main", MealLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 10)
	assert.True(t, logs[0].Date.Before(testNow), "history lies in the past")
	assert.Equal(t, time.Friday, logs[0].Date.Weekday(), "weekdays survive the shift")

	// seeding again leaves existing rows alone
	require.NoError(t, store.Seed(ctx, models.Kitchen{ID: "main"}, testNow))
	recipes, err = store.ListRecipes(ctx)
	require.NoError(t, err)
	assert.Len(t, recipes, 3)
}

func TestSeed_SecondKitchen(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, models.Kitchen{ID: "other", Name: "Other", Timezone: "UTC"}, testNow))

	for _, kitchenID := range []string{"main", "other"} {
		items, _, err := store.LoadInventory(ctx, kitchenID)
		require.NoError(t, err)
		assert.Len(t, items, 10, kitchenID)

		logs, err := store.ListMealLogs(ctx, kitchenID, MealLogFilter{})
		require.NoError(t, err)
		assert.Len(t, logs, 10, kitchenID)
	}
}

func TestSeed_CountError(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, store.db.DropTable(&models.MealLog{}).Error)

	err := store.Seed(context.Background(), models.Kitchen{ID: "main"}, testNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count meal logs")
}

func TestLoadInventory_UnknownKitchen(t *testing.T) {
	store := setupStore(t)
	_, _, err := store.LoadInventory(context.Background(), "nowhere")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCommit_VersionCheck(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	items, version, err := store.LoadInventory(ctx, "main")
	require.NoError(t, err)

	var tomatoes models.InventoryItem
	for _, item := range items {
		if item.Name == "Tomatoes" {
			tomatoes = item
		}
	}
	tomatoes.Quantity = 1

	next, err := store.Commit(ctx, Commit{
		KitchenID:       "main",
		ExpectedVersion: version,
		Inventory:       []models.InventoryItem{tomatoes},
	})
	require.NoError(t, err)
	assert.Equal(t, version+1, next)

	// a stale writer is rejected and writes nothing
	tomatoes.Quantity = 99
	_, err = store.Commit(ctx, Commit{
		KitchenID:       "main",
		ExpectedVersion: version,
		Inventory:       []models.InventoryItem{tomatoes},
	})
	assert.ErrorIs(t, err, models.ErrVersionConflict)

	items, current, err := store.LoadInventory(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, next, current)
	for _, item := range items {
		if item.Name == "Tomatoes" {
			assert.Equal(t, 1.0, item.Quantity)
		}
	}
}

func TestCommit_NewItemAndSheet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sheet := models.PrepSheet{
		ID:      "1742205600000",
		Date:    "2025-03-17",
		Weekday: "Monday",
		Tasks: models.TaskList{
			{ID: "1-2025-03-17-1", RecipeID: "1", RecipeName: "Tomato Sauce", IngredientName: "Tomatoes", Quantity: 1, Unit: "kg", EstimatedTime: 5},
		},
		TotalEstimatedTime: 5,
		Status:             models.SheetInProgress,
	}

	_, err := store.Commit(ctx, Commit{
		KitchenID:       "main",
		ExpectedVersion: 0,
		Inventory:       []models.InventoryItem{{ID: "basil", Name: "Basil", Quantity: 0.2, Unit: "kg"}},
		Sheet:           &sheet,
	})
	require.NoError(t, err)

	items, _, err := store.LoadInventory(ctx, "main")
	require.NoError(t, err)
	assert.Len(t, items, 11)

	stored, err := store.GetPrepSheet(ctx, "main", "2025-03-17")
	require.NoError(t, err)
	assert.Equal(t, "main", stored.KitchenID)
	require.Len(t, stored.Tasks, 1)
	assert.Equal(t, "Tomatoes", stored.Tasks[0].IngredientName)

	// saving the same sheet again replaces it
	sheet.Tasks[0].IsCompleted = true
	sheet.Status = models.SheetCompleted
	_, err = store.Commit(ctx, Commit{KitchenID: "main", ExpectedVersion: 1, Sheet: &sheet})
	require.NoError(t, err)

	stored, err = store.GetPrepSheet(ctx, "main", "2025-03-17")
	require.NoError(t, err)
	assert.Equal(t, models.SheetCompleted, stored.Status)
	assert.True(t, stored.Tasks[0].IsCompleted)

	_, err = store.GetPrepSheet(ctx, "main", "2025-03-18")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCommit_InventoryIsPerKitchen(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.EnsureKitchen(ctx, "other", "Other", "UTC")
	require.NoError(t, err)

	_, err = store.Commit(ctx, Commit{
		KitchenID:       "other",
		ExpectedVersion: 0,
		Inventory:       []models.InventoryItem{{ID: "1", Name: "Lemons", Quantity: 3, Unit: "kg"}},
	})
	require.NoError(t, err)

	mainItems, _, err := store.LoadInventory(ctx, "main")
	require.NoError(t, err)
	require.Len(t, mainItems, 10)
	for _, item := range mainItems {
		if item.ID == "1" {
			assert.Equal(t, "Tomatoes", item.Name)
			assert.Equal(t, 5.0, item.Quantity)
		}
	}

	other, _, err := store.LoadInventory(ctx, "other")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "Lemons", other[0].Name)
}

func TestSuggestions(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	suggestions := []models.PrepSuggestion{
		{KitchenID: "main", ID: "1-2025-03-17", RecipeID: "1", RecipeName: "Tomato Sauce", SuggestedQuantity: 2, UserQuantity: 2, Weekday: "Monday", Date: "2025-03-17", Status: models.SuggestionPending, HasShortage: true},
		{KitchenID: "main", ID: "2-2025-03-17", RecipeID: "2", RecipeName: "Grilled Chicken", SuggestedQuantity: 3, UserQuantity: 3, Weekday: "Monday", Date: "2025-03-17", Status: models.SuggestionPending},
	}
	require.NoError(t, store.SaveSuggestions(ctx, suggestions))

	suggestions[0].UserQuantity = 4
	require.NoError(t, store.SaveSuggestions(ctx, suggestions[:1]))

	listed, err := store.ListSuggestions(ctx, "main", "2025-03-17")
	require.NoError(t, err)
	require.Len(t, listed, 2)

	got, err := store.GetSuggestion(ctx, "main", "1-2025-03-17")
	require.NoError(t, err)
	assert.Equal(t, 4, got.UserQuantity)
	assert.True(t, got.HasShortage)

	_, err = store.GetSuggestion(ctx, "other", "1-2025-03-17")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListMealLogs_Filter(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.Commit(ctx, Commit{
		KitchenID:       "main",
		ExpectedVersion: 0,
		MealLog: &models.MealLog{
			ID:         "extra",
			RecipeID:   "2",
			RecipeName: "Grilled Chicken",
			Date:       testNow.Add(-time.Hour),
			Quantity:   1,
			Notes:      note("Private dinner"),
		},
	})
	require.NoError(t, err)

	logs, err := store.ListMealLogs(ctx, "main", MealLogFilter{From: testNow.Add(-2 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "extra", logs[0].ID)

	logs, err = store.ListMealLogs(ctx, "main", MealLogFilter{Query: "private"})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	logs, err = store.ListMealLogs(ctx, "main", MealLogFilter{RecipeID: "1"})
	require.NoError(t, err)
	assert.Len(t, logs, 4)

	logs, err = store.ListMealLogs(ctx, "elsewhere", MealLogFilter{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}
