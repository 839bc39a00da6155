package prep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mise/internal/models"
)

// monday is 2025-03-17 10:00 UTC
var monday = time.Date(2025, time.March, 17, 10, 0, 0, 0, time.UTC)

func tomatoSauce() models.Recipe {
	return models.Recipe{
		ID:   "1",
		Name: "Tomato Sauce",
		Ingredients: models.IngredientList{
			{ID: "1", Name: "Tomatoes", Quantity: 2, Unit: "kg"},
		},
	}
}

func friedRice() models.Recipe {
	return models.Recipe{
		ID:   "3",
		Name: "Fried Rice",
		Ingredients: models.IngredientList{
			{ID: "1", Name: "Rice", Quantity: 0.4, Unit: "kg"},
			{ID: "2", Name: "Onions", Quantity: 0.1, Unit: "kg"},
			{ID: "3", Name: "Peas", Quantity: 0.1, Unit: "kg"},
		},
	}
}

func testInventory() []models.InventoryItem {
	expiry := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)
	return []models.InventoryItem{
		{ID: "inv-1", Name: "Tomatoes", Quantity: 5, Unit: "kg", AlertLevel: 2, ExpiryDate: &expiry},
		{ID: "inv-2", Name: "Onions", Quantity: 3, Unit: "kg", AlertLevel: 1},
		{ID: "inv-8", Name: "Rice", Quantity: 8, Unit: "kg", AlertLevel: 3},
	}
}

func mealLog(recipeID string, date time.Time, quantity float64) models.MealLog {
	return models.MealLog{ID: date.String(), RecipeID: recipeID, Date: date, Quantity: quantity}
}

func TestWeekdayAndDateKey(t *testing.T) {
	assert.Equal(t, "Monday", Weekday(monday))
	assert.Equal(t, "Sunday", Weekday(monday.AddDate(0, 0, -1)))
	assert.Equal(t, "2025-03-17", DateKey(monday))

	// The calendar follows the location of the value passed in
	tokyo := time.FixedZone("JST", 9*60*60)
	lateSunday := time.Date(2025, time.March, 16, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "Sunday", Weekday(lateSunday))
	assert.Equal(t, "Monday", Weekday(lateSunday.In(tokyo)))
	assert.Equal(t, "2025-03-17", DateKey(lateSunday.In(tokyo)))
}

func TestParseDateKey(t *testing.T) {
	parsed, err := ParseDateKey("2025-03-17", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC), parsed)

	_, err = ParseDateKey("17/03/2025", time.UTC)
	assert.Error(t, err)
}

func TestComputeShortages_TomatoSauce(t *testing.T) {
	shortages := ComputeShortages(tomatoSauce(), 3, testInventory())

	require.Len(t, shortages, 1)
	assert.Equal(t, models.IngredientShortage{
		IngredientName: "Tomatoes",
		Required:       6,
		Available:      5,
		Unit:           "kg",
	}, shortages[0])

	assert.Empty(t, ComputeShortages(tomatoSauce(), 2, testInventory()))
}

func TestComputeShortages_MissingIngredient(t *testing.T) {
	shortages := ComputeShortages(friedRice(), 2, testInventory())

	require.Len(t, shortages, 1)
	assert.Equal(t, "Peas", shortages[0].IngredientName)
	assert.Equal(t, 0.2, shortages[0].Required)
	assert.Equal(t, 0.0, shortages[0].Available)
}

func TestComputeShortages_FollowsRecipeOrder(t *testing.T) {
	recipe := models.Recipe{
		ID: "x",
		Ingredients: models.IngredientList{
			{ID: "1", Name: "Saffron", Quantity: 1, Unit: "g"},
			{ID: "2", Name: "Tomatoes", Quantity: 10, Unit: "kg"},
			{ID: "3", Name: "Basil", Quantity: 1, Unit: "g"},
		},
	}

	shortages := ComputeShortages(recipe, 1, testInventory())
	require.Len(t, shortages, 3)
	assert.Equal(t, "Saffron", shortages[0].IngredientName)
	assert.Equal(t, "Tomatoes", shortages[1].IngredientName)
	assert.Equal(t, "Basil", shortages[2].IngredientName)
}

func TestComputeShortages_NameMatchIsExact(t *testing.T) {
	recipe := models.Recipe{
		ID:          "x",
		Ingredients: models.IngredientList{{ID: "1", Name: "tomatoes", Quantity: 1, Unit: "kg"}},
	}

	shortages := ComputeShortages(recipe, 1, testInventory())
	require.Len(t, shortages, 1)
	assert.Equal(t, 0.0, shortages[0].Available)
}

func TestComputeShortages_InventoryIDTakesPrecedence(t *testing.T) {
	recipe := models.Recipe{
		ID: "x",
		Ingredients: models.IngredientList{
			{ID: "1", Name: "Roma Tomatoes", Quantity: 2, Unit: "kg", InventoryID: "inv-1"},
		},
	}

	assert.Empty(t, ComputeShortages(recipe, 2, testInventory()))

	shortages := ComputeShortages(recipe, 3, testInventory())
	require.Len(t, shortages, 1)
	assert.Equal(t, 5.0, shortages[0].Available)
}

func TestComputeShortages_Monotonic(t *testing.T) {
	recipes := []models.Recipe{tomatoSauce(), friedRice()}
	for _, recipe := range recipes {
		previous := 0
		for q := 0; q <= 40; q++ {
			count := len(ComputeShortages(recipe, float64(q), testInventory()))
			assert.GreaterOrEqual(t, count, previous, "recipe %s at quantity %d", recipe.Name, q)
			previous = count
		}
	}
}

func TestComputeShortages_DoesNotMutateInventory(t *testing.T) {
	inventory := testInventory()
	ComputeShortages(tomatoSauce(), 10, inventory)
	assert.Equal(t, testInventory(), inventory)
}

func TestComputeNecessaryPrep_TomatoSauce(t *testing.T) {
	result := ComputeNecessaryPrep(tomatoSauce(), 3, testInventory())

	require.Len(t, result.Items, 1)
	assert.Equal(t, NecessaryItem{Name: "Tomatoes", NecessaryAmount: 1, Unit: "kg", CurrentStock: 5}, result.Items[0])
	assert.False(t, result.CanPrepWithCurrentStock)
}

func TestComputeNecessaryPrep_OneEntryPerIngredient(t *testing.T) {
	result := ComputeNecessaryPrep(friedRice(), 2, testInventory())

	require.Len(t, result.Items, 3)
	assert.Equal(t, NecessaryItem{Name: "Rice", NecessaryAmount: 0, Unit: "kg", CurrentStock: 8}, result.Items[0])
	assert.Equal(t, NecessaryItem{Name: "Onions", NecessaryAmount: 0, Unit: "kg", CurrentStock: 3}, result.Items[1])
	assert.Equal(t, NecessaryItem{Name: "Peas", NecessaryAmount: 0.2, Unit: "kg", CurrentStock: 0}, result.Items[2])
	assert.False(t, result.CanPrepWithCurrentStock)
}

func TestComputeNecessaryPrep_CanPrepFromStock(t *testing.T) {
	result := ComputeNecessaryPrep(tomatoSauce(), 2.5, testInventory())
	assert.True(t, result.CanPrepWithCurrentStock)
	assert.Equal(t, 0.0, result.Items[0].NecessaryAmount)

	empty := ComputeNecessaryPrep(models.Recipe{ID: "empty"}, 5, testInventory())
	assert.Empty(t, empty.Items)
	assert.True(t, empty.CanPrepWithCurrentStock)
}

func TestComputeNecessaryPrep_NonNegative(t *testing.T) {
	for q := 0; q <= 20; q++ {
		for _, recipe := range []models.Recipe{tomatoSauce(), friedRice()} {
			result := ComputeNecessaryPrep(recipe, float64(q), testInventory())

			allZero := true
			for _, item := range result.Items {
				assert.GreaterOrEqual(t, item.NecessaryAmount, 0.0)
				if item.NecessaryAmount != 0 {
					allZero = false
				}
			}
			assert.Equal(t, allZero, result.CanPrepWithCurrentStock)
		}
	}
}

func TestSuggestQuantity_DefaultWithoutHistory(t *testing.T) {
	assert.Equal(t, 2, SuggestQuantity(tomatoSauce(), nil, monday))
	assert.Equal(t, 2, SuggestQuantity(tomatoSauce(), []models.MealLog{}, monday.AddDate(0, 0, 3)))
}

func TestSuggestQuantity_SameWeekdayAverage(t *testing.T) {
	logs := []models.MealLog{
		mealLog("1", monday.AddDate(0, 0, -7), 4),
		mealLog("1", monday.AddDate(0, 0, -14), 6),
		mealLog("1", monday.AddDate(0, 0, -1), 100), // Sunday
		mealLog("3", monday.AddDate(0, 0, -7), 100), // other recipe
	}

	assert.Equal(t, 5, SuggestQuantity(tomatoSauce(), logs, monday))
}

func TestSuggestQuantity_Rounding(t *testing.T) {
	testCases := []struct {
		name       string
		quantities []float64
		expected   int
	}{
		{"half rounds up", []float64{1, 2}, 2},
		{"two and a half rounds up", []float64{2, 3}, 3},
		{"below half rounds down", []float64{1, 1, 2}, 1},
		{"above half rounds up", []float64{1, 2, 2}, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var logs []models.MealLog
			for i, q := range tc.quantities {
				logs = append(logs, mealLog("1", monday.AddDate(0, 0, -7*i), q))
			}
			assert.Equal(t, tc.expected, SuggestQuantity(tomatoSauce(), logs, monday))
		})
	}
}

func TestSuggestQuantity_WindowBoundary(t *testing.T) {
	boundary := monday.Add(-21 * 24 * time.Hour)
	justOutside := boundary.Add(-time.Millisecond)
	require.Equal(t, "Monday", Weekday(justOutside))

	included := []models.MealLog{mealLog("1", boundary, 4)}
	assert.Equal(t, 4, SuggestQuantity(tomatoSauce(), included, monday))

	excluded := []models.MealLog{mealLog("1", justOutside, 4)}
	assert.Equal(t, 2, SuggestQuantity(tomatoSauce(), excluded, monday))
}

func TestForecast_CustomWindowAndDefault(t *testing.T) {
	f := Forecast{Window: 7 * 24 * time.Hour, DefaultQuantity: 5}
	logs := []models.MealLog{
		mealLog("1", monday.AddDate(0, 0, -7), 3),
		mealLog("1", monday.AddDate(0, 0, -14), 9),
	}

	assert.Equal(t, 3, f.SuggestQuantity(tomatoSauce(), logs, monday))
	assert.Equal(t, 5, f.SuggestQuantity(friedRice(), logs, monday))
}

func TestGenerateSuggestions(t *testing.T) {
	recipes := []models.Recipe{tomatoSauce(), friedRice()}
	logs := []models.MealLog{
		mealLog("1", monday.AddDate(0, 0, -7), 3),
		mealLog("3", monday.AddDate(0, 0, -7), 1),
	}

	suggestions := GenerateSuggestions(recipes, logs, testInventory(), monday)

	require.Len(t, suggestions, 2)
	assert.Equal(t, models.PrepSuggestion{
		ID:                "1-2025-03-17",
		RecipeID:          "1",
		RecipeName:        "Tomato Sauce",
		SuggestedQuantity: 3,
		UserQuantity:      3,
		Weekday:           "Monday",
		Date:              "2025-03-17",
		Status:            models.SuggestionPending,
		HasShortage:       true,
	}, suggestions[0])

	assert.Equal(t, "3-2025-03-17", suggestions[1].ID)
	assert.Equal(t, 1, suggestions[1].SuggestedQuantity)
	assert.True(t, suggestions[1].HasShortage, "peas are not stocked")
}

func TestGenerateSuggestions_NoShortage(t *testing.T) {
	suggestions := GenerateSuggestions([]models.Recipe{tomatoSauce()}, nil, testInventory(), monday)
	require.Len(t, suggestions, 1)
	assert.Equal(t, 2, suggestions[0].SuggestedQuantity)
	assert.False(t, suggestions[0].HasShortage)
}

func approved(recipeID string, quantity int) models.PrepSuggestion {
	return models.PrepSuggestion{
		ID:           SuggestionID(recipeID, "2025-03-17"),
		RecipeID:     recipeID,
		UserQuantity: quantity,
		Status:       models.SuggestionApproved,
	}
}

func TestApplyApprovedImpact_TomatoSauce(t *testing.T) {
	inventory := testInventory()
	suggestion := approved("1", 2)
	suggestion.SuggestedQuantity = 3

	updated := ApplyApprovedImpact([]models.PrepSuggestion{suggestion}, []models.Recipe{tomatoSauce()}, inventory)

	assert.Equal(t, 1.0, updated[0].Quantity)
	assert.Equal(t, 5.0, inventory[0].Quantity, "input must not be mutated")
}

func TestApplyApprovedImpact_NoAliasing(t *testing.T) {
	inventory := testInventory()
	updated := ApplyApprovedImpact(nil, nil, inventory)

	require.Equal(t, inventory, updated)
	*updated[0].ExpiryDate = updated[0].ExpiryDate.AddDate(1, 0, 0)
	updated[1].Quantity = 99

	assert.Equal(t, testInventory(), inventory)
}

func TestApplyApprovedImpact_SkipsOtherStatuses(t *testing.T) {
	pending := approved("1", 2)
	pending.Status = models.SuggestionPending
	completed := approved("1", 2)
	completed.Status = models.SuggestionCompleted
	unknownRecipe := approved("missing", 2)

	updated := ApplyApprovedImpact(
		[]models.PrepSuggestion{pending, completed, unknownRecipe},
		[]models.Recipe{tomatoSauce()},
		testInventory(),
	)

	assert.Equal(t, testInventory(), updated)
}

func TestApplyApprovedImpact_ClampsAtZero(t *testing.T) {
	updated := ApplyApprovedImpact([]models.PrepSuggestion{approved("1", 10)}, []models.Recipe{tomatoSauce()}, testInventory())
	assert.Equal(t, 0.0, updated[0].Quantity)
}

func TestApplyApprovedImpact_DoubleApplicationDeductsTwice(t *testing.T) {
	suggestions := []models.PrepSuggestion{approved("1", 1)}
	recipes := []models.Recipe{tomatoSauce()}

	once := ApplyApprovedImpact(suggestions, recipes, testInventory())
	twice := ApplyApprovedImpact(suggestions, recipes, once)

	assert.Equal(t, 3.0, once[0].Quantity)
	assert.Equal(t, 1.0, twice[0].Quantity)
}

func TestApplyApprovedImpact_ExactDecimalArithmetic(t *testing.T) {
	inventory := []models.InventoryItem{{ID: "a", Name: "Onions", Quantity: 1, Unit: "kg"}}
	recipe := models.Recipe{ID: "r", Ingredients: models.IngredientList{{ID: "1", Name: "Onions", Quantity: 0.1, Unit: "kg"}}}

	updated := ApplyApprovedImpact([]models.PrepSuggestion{approved("r", 3)}, []models.Recipe{recipe}, inventory)
	assert.Equal(t, 0.7, updated[0].Quantity)
}

func TestDeductForMeal(t *testing.T) {
	updated := DeductForMeal(friedRice(), 2, testInventory())

	assert.Equal(t, 5.0, updated[0].Quantity)
	assert.Equal(t, 2.8, updated[1].Quantity)
	assert.Equal(t, 7.2, updated[2].Quantity)
	assert.Len(t, updated, 3, "missing peas are not created")
}

func TestGeneratePrepTasks(t *testing.T) {
	suggestions := []models.PrepSuggestion{approved("1", 3), approved("3", 2)}
	recipes := []models.Recipe{tomatoSauce(), friedRice()}

	tasks := GeneratePrepTasks(suggestions, recipes, testInventory())

	require.Len(t, tasks, 2)
	assert.Equal(t, models.PrepTask{
		ID:             "1-2025-03-17-1",
		RecipeID:       "1",
		RecipeName:     "Tomato Sauce",
		IngredientName: "Tomatoes",
		Quantity:       1,
		Unit:           "kg",
		EstimatedTime:  5,
	}, tasks[0])

	assert.Equal(t, "3-2025-03-17-3", tasks[1].ID)
	assert.Equal(t, "Peas", tasks[1].IngredientName)
	assert.Equal(t, 0.2, tasks[1].Quantity)
	assert.Equal(t, 1, tasks[1].EstimatedTime, "ceil(3 * 0.2)")
}

func TestGeneratePrepTasks_SkipsUnknownRecipesAndCoveredIngredients(t *testing.T) {
	tasks := GeneratePrepTasks([]models.PrepSuggestion{approved("1", 2), approved("missing", 4)}, []models.Recipe{tomatoSauce()}, testInventory())
	assert.Empty(t, tasks)
}

func TestGeneratePrepTasks_CarriesInventoryLink(t *testing.T) {
	recipe := models.Recipe{
		ID:   "9",
		Name: "Salsa",
		Ingredients: models.IngredientList{
			{ID: "1", Name: "Roma Tomatoes", Quantity: 4, Unit: "kg", InventoryID: "inv-1"},
		},
	}

	tasks := GeneratePrepTasks([]models.PrepSuggestion{approved("9", 2)}, []models.Recipe{recipe}, testInventory())
	require.Len(t, tasks, 1)
	assert.Equal(t, "inv-1", tasks[0].InventoryID)
	assert.Equal(t, 3.0, tasks[0].Quantity)
}

func TestEstimateMinutes(t *testing.T) {
	assert.Equal(t, 5, EstimateMinutes("Tomatoes", 1))
	assert.Equal(t, 12, EstimateMinutes("Onions", 1.5))
	assert.Equal(t, 7, EstimateMinutes("Carrots", 0.7), "no float drift above 7")
	assert.Equal(t, 5, EstimateMinutes("Saffron", 1), "default rate")
	assert.Equal(t, 0, EstimateMinutes("Salt", 0))
}

func TestCreatePrepSheet_TotalsTasks(t *testing.T) {
	suggestions := []models.PrepSuggestion{approved("1", 4), approved("3", 10)}
	recipes := []models.Recipe{tomatoSauce(), friedRice()}
	tasks := GeneratePrepTasks(suggestions, recipes, testInventory())
	require.NotEmpty(t, tasks)

	sheet := CreatePrepSheet(tasks, monday)

	sum := 0
	for _, task := range tasks {
		sum += task.EstimatedTime
	}
	assert.Equal(t, sum, sheet.TotalEstimatedTime)
	assert.Equal(t, "2025-03-17", sheet.Date)
	assert.Equal(t, "Monday", sheet.Weekday)
	assert.Equal(t, models.SheetInProgress, sheet.Status)
	assert.Equal(t, "1742205600000", sheet.ID)
}

func sampleSheet() models.PrepSheet {
	return CreatePrepSheet([]models.PrepTask{
		{ID: "a", RecipeID: "1", IngredientName: "Tomatoes", Quantity: 1, Unit: "kg", EstimatedTime: 5},
		{ID: "b", RecipeID: "3", IngredientName: "Peas", Quantity: 0.2, Unit: "kg", EstimatedTime: 1},
		{ID: "c", RecipeID: "1", IngredientName: "Onions", Quantity: 1, Unit: "kg", EstimatedTime: 8},
	}, monday)
}

func TestUpdateTaskCompletion_LastTaskCompletesSheet(t *testing.T) {
	sheet := sampleSheet()
	sheet = UpdateTaskCompletion(sheet, "a", true, 1)
	sheet = UpdateTaskCompletion(sheet, "b", true, 0.2)
	assert.Equal(t, models.SheetInProgress, sheet.Status)

	sheet = UpdateTaskCompletion(sheet, "c", true, 1)
	assert.Equal(t, models.SheetCompleted, sheet.Status)

	sheet = UpdateTaskCompletion(sheet, "b", false, 0.2)
	assert.Equal(t, models.SheetInProgress, sheet.Status)
	assert.Equal(t, 0.0, sheet.Tasks[1].CompletedQuantity, "uncompleting zeroes progress")
}

func TestUpdateTaskCompletion_DoesNotMutateInput(t *testing.T) {
	sheet := sampleSheet()
	updated := UpdateTaskCompletion(sheet, "a", true, 1)

	assert.False(t, sheet.Tasks[0].IsCompleted)
	assert.True(t, updated.Tasks[0].IsCompleted)
	assert.Equal(t, 1.0, updated.Tasks[0].CompletedQuantity)
}

func TestUpdateTaskCompletion_UnknownTask(t *testing.T) {
	sheet := sampleSheet()
	updated := UpdateTaskCompletion(sheet, "zzz", true, 1)
	assert.Equal(t, sheet.Tasks, updated.Tasks)
	assert.Equal(t, models.SheetInProgress, updated.Status)
}

func TestCalculateRemainingTime(t *testing.T) {
	sheet := sampleSheet()
	assert.Equal(t, 14, CalculateRemainingTime(sheet))

	sheet = UpdateTaskCompletion(sheet, "c", true, 1)
	assert.Equal(t, 6, CalculateRemainingTime(sheet))
}

func TestMergeTasks(t *testing.T) {
	sheet := UpdateTaskCompletion(sampleSheet(), "a", true, 1)

	merged := MergeTasks(sheet, []models.PrepTask{
		{ID: "a", RecipeID: "1", EstimatedTime: 100},
		{ID: "d", RecipeID: "2", IngredientName: "Chicken Breasts", EstimatedTime: 12},
	})

	require.Len(t, merged.Tasks, 4)
	assert.True(t, merged.Tasks[0].IsCompleted, "existing progress is kept")
	assert.Equal(t, "d", merged.Tasks[3].ID)
	assert.Equal(t, 26, merged.TotalEstimatedTime)
	assert.Equal(t, sheet.ID, merged.ID)
	assert.Len(t, sheet.Tasks, 3)
}

func TestGroupTasksByRecipe(t *testing.T) {
	grouped := GroupTasksByRecipe(sampleSheet().Tasks)

	require.Len(t, grouped, 2)
	require.Len(t, grouped["1"], 2)
	assert.Equal(t, "a", grouped["1"][0].ID)
	assert.Equal(t, "c", grouped["1"][1].ID)
	assert.Equal(t, "b", grouped["3"][0].ID)

	groups := RecipeGroups(sampleSheet().Tasks)
	require.Len(t, groups, 2)
	assert.Equal(t, "1", groups[0].RecipeID)
	assert.Equal(t, "3", groups[1].RecipeID)
}

func TestApplyCompletedTasksToInventory(t *testing.T) {
	now := time.Date(2025, time.March, 17, 15, 0, 0, 0, time.UTC)
	inventory := testInventory()
	tasks := []models.PrepTask{
		{ID: "a", IngredientName: "Tomatoes", Unit: "kg", IsCompleted: true, CompletedQuantity: 1},
		{ID: "b", IngredientName: "Peas", Unit: "kg", IsCompleted: true, CompletedQuantity: 0.5},
		{ID: "c", IngredientName: "Onions", Unit: "kg", IsCompleted: false, CompletedQuantity: 2},
		{ID: "d", IngredientName: "Rice", Unit: "kg", IsCompleted: true, CompletedQuantity: 0},
	}

	updated := ApplyCompletedTasksToInventory(inventory, tasks, now)

	require.Len(t, updated, 4)
	assert.Equal(t, 6.0, updated[0].Quantity)
	assert.Equal(t, now, updated[0].LastChecked)
	assert.Equal(t, 3.0, updated[1].Quantity)
	assert.True(t, updated[1].LastChecked.IsZero())
	assert.Equal(t, 8.0, updated[2].Quantity)

	peas := updated[3]
	assert.NotEmpty(t, peas.ID)
	assert.Equal(t, "Peas", peas.Name)
	assert.Equal(t, 0.5, peas.Quantity)
	assert.Equal(t, "kg", peas.Unit)
	assert.Equal(t, 0.1, peas.AlertLevel)
	assert.Nil(t, peas.ExpiryDate)
	assert.Equal(t, now, peas.LastChecked)

	assert.Equal(t, testInventory(), inventory)
}

func TestApplyCompletedTasksToInventory_RepeatedNewIngredient(t *testing.T) {
	tasks := []models.PrepTask{
		{ID: "a", IngredientName: "Peas", Unit: "kg", IsCompleted: true, CompletedQuantity: 0.5},
		{ID: "b", IngredientName: "Peas", Unit: "kg", IsCompleted: true, CompletedQuantity: 0.25},
	}

	updated := ApplyCompletedTasksToInventory(nil, tasks, monday)
	require.Len(t, updated, 1)
	assert.Equal(t, 0.75, updated[0].Quantity)
}

func TestApplyCompletedTasksToInventory_ResolvesByInventoryID(t *testing.T) {
	tasks := []models.PrepTask{
		{ID: "a", IngredientName: "Tomato", InventoryID: "inv-1", Unit: "kg", IsCompleted: true, CompletedQuantity: 1.5},
	}

	updated := ApplyCompletedTasksToInventory(testInventory(), tasks, monday)
	require.Len(t, updated, 3, "no new item for a linked ingredient")
	assert.Equal(t, "Tomatoes", updated[0].Name)
	assert.Equal(t, 6.5, updated[0].Quantity)
	assert.Equal(t, monday, updated[0].LastChecked)
}

func TestApplyCompletedTasksToInventory_OnlyUnstockedPart(t *testing.T) {
	tasks := []models.PrepTask{
		{ID: "a", IngredientName: "Onions", Unit: "kg", IsCompleted: true, CompletedQuantity: 1, StockedQuantity: 1},
		{ID: "b", IngredientName: "Rice", Unit: "kg", IsCompleted: true, CompletedQuantity: 2, StockedQuantity: 0.5},
		{ID: "c", IngredientName: "Peas", Unit: "kg", IsCompleted: true, CompletedQuantity: 0.2, StockedQuantity: 0.5},
	}

	updated := ApplyCompletedTasksToInventory(testInventory(), tasks, monday)
	require.Len(t, updated, 3)
	assert.Equal(t, 3.0, updated[1].Quantity)
	assert.True(t, updated[1].LastChecked.IsZero())
	assert.Equal(t, 9.5, updated[2].Quantity)
}

func TestMarkTaskStocked(t *testing.T) {
	sheet := UpdateTaskCompletion(sampleSheet(), "a", true, 1)
	stocked := MarkTaskStocked(sheet, "a")

	task, ok := FindTask(stocked, "a")
	require.True(t, ok)
	assert.Equal(t, 1.0, task.StockedQuantity)
	assert.Equal(t, 0.0, UnstockedQuantity(task).InexactFloat64())

	original, _ := FindTask(sheet, "a")
	assert.Equal(t, 0.0, original.StockedQuantity)

	// uncompleting keeps the stocked amount
	reopened := UpdateTaskCompletion(stocked, "a", false, 0)
	task, _ = FindTask(reopened, "a")
	assert.Equal(t, 0.0, task.CompletedQuantity)
	assert.Equal(t, 1.0, task.StockedQuantity)

	lowered := MarkTaskStocked(UpdateTaskCompletion(reopened, "a", true, 0.4), "a")
	task, _ = FindTask(lowered, "a")
	assert.Equal(t, 1.0, task.StockedQuantity)
}

func TestLowStock(t *testing.T) {
	inventory := testInventory()
	inventory[1].Quantity = 1

	low := LowStock(inventory)
	require.Len(t, low, 1)
	assert.Equal(t, "Onions", low[0].Name)
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "0 min", FormatMinutes(0))
	assert.Equal(t, "45 min", FormatMinutes(45))
	assert.Equal(t, "2 hr", FormatMinutes(120))
	assert.Equal(t, "1 hr 5 min", FormatMinutes(65))
}
