package prep

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"mise/internal/models"
)

// defaultMinutesPerUnit applies to ingredients missing from minutesPerUnit
const defaultMinutesPerUnit = 5

// minutesPerUnit is the prep time per unit (kg or l) of common ingredients
var minutesPerUnit = map[string]int64{
	"Tomatoes":        5,
	"Onions":          8,
	"Chicken Breasts": 12,
	"Rice":            5,
	"Carrots":         10,
	"Peas":            3,
	"Olive Oil":       1,
	"Salt":            1,
	"Black Pepper":    1,
	"Flour":           2,
}

// EstimateMinutes returns the whole minutes needed to prep amount of an ingredient
func EstimateMinutes(ingredientName string, amount float64) int {
	base, ok := minutesPerUnit[ingredientName]
	if !ok {
		base = defaultMinutesPerUnit
	}
	return int(decimal.NewFromInt(base).Mul(decimal.NewFromFloat(amount)).Ceil().IntPart())
}

// GeneratePrepTasks expands approved suggestions into one task per ingredient
// whose requirement at UserQuantity exceeds current stock. The task quantity is
// the net amount still to produce. Suggestions for unknown recipes are skipped.
func GeneratePrepTasks(approved []models.PrepSuggestion, recipes []models.Recipe, inventory []models.InventoryItem) []models.PrepTask {
	idx := newStockIndex(inventory)
	byID := recipeByID(recipes)
	tasks := make([]models.PrepTask, 0)

	for _, suggestion := range approved {
		recipe, ok := byID[suggestion.RecipeID]
		if !ok {
			continue
		}

		for _, ingredient := range recipe.Ingredients {
			_, necessary := netRequirement(idx, inventory, ingredient, float64(suggestion.UserQuantity))
			if !necessary.IsPositive() {
				continue
			}

			amount := necessary.InexactFloat64()
			tasks = append(tasks, models.PrepTask{
				ID:             suggestion.ID + "-" + ingredient.ID,
				RecipeID:       recipe.ID,
				RecipeName:     recipe.Name,
				IngredientName: ingredient.Name,
				InventoryID:    ingredient.InventoryID,
				Quantity:       amount,
				Unit:           ingredient.Unit,
				EstimatedTime:  EstimateMinutes(ingredient.Name, amount),
			})
		}
	}

	return tasks
}

// CreatePrepSheet wraps tasks into an in-progress sheet for date
func CreatePrepSheet(tasks []models.PrepTask, date time.Time) models.PrepSheet {
	copied := make(models.TaskList, len(tasks))
	copy(copied, tasks)

	return models.PrepSheet{
		ID:                 strconv.FormatInt(date.UnixMilli(), 10),
		Date:               DateKey(date),
		Weekday:            Weekday(date),
		Tasks:              copied,
		TotalEstimatedTime: totalMinutes(copied),
		Status:             models.SheetInProgress,
	}
}

// UpdateTaskCompletion returns a copy of sheet with the completion of taskID
// replaced. Uncompleting a task always resets its completed quantity to zero.
// The sheet is completed iff every task is completed.
func UpdateTaskCompletion(sheet models.PrepSheet, taskID string, isCompleted bool, completedQuantity float64) models.PrepSheet {
	updated := sheet
	updated.Tasks = make(models.TaskList, len(sheet.Tasks))

	for i, task := range sheet.Tasks {
		if task.ID == taskID {
			task.IsCompleted = isCompleted
			task.CompletedQuantity = 0
			if isCompleted {
				task.CompletedQuantity = completedQuantity
			}
		}
		updated.Tasks[i] = task
	}

	updated.Status = sheetStatus(updated.Tasks)
	return updated
}

// MarkTaskStocked returns a copy of sheet with the stocked quantity of taskID
// raised to its completed quantity. Stocked quantity never goes down, so
// uncompleting and completing a task again does not stock it twice.
func MarkTaskStocked(sheet models.PrepSheet, taskID string) models.PrepSheet {
	updated := sheet
	updated.Tasks = make(models.TaskList, len(sheet.Tasks))
	copy(updated.Tasks, sheet.Tasks)

	for i := range updated.Tasks {
		task := &updated.Tasks[i]
		if task.ID == taskID && task.CompletedQuantity > task.StockedQuantity {
			task.StockedQuantity = task.CompletedQuantity
		}
	}
	return updated
}

// MergeTasks returns a copy of sheet with tasks appended. Tasks whose ID is
// already on the sheet are dropped. Total time and status are re-derived.
func MergeTasks(sheet models.PrepSheet, tasks []models.PrepTask) models.PrepSheet {
	updated := sheet
	updated.Tasks = make(models.TaskList, len(sheet.Tasks), len(sheet.Tasks)+len(tasks))
	copy(updated.Tasks, sheet.Tasks)

	seen := make(map[string]bool, len(sheet.Tasks))
	for _, task := range sheet.Tasks {
		seen[task.ID] = true
	}
	for _, task := range tasks {
		if seen[task.ID] {
			continue
		}
		seen[task.ID] = true
		updated.Tasks = append(updated.Tasks, task)
	}

	updated.TotalEstimatedTime = totalMinutes(updated.Tasks)
	updated.Status = sheetStatus(updated.Tasks)
	return updated
}

// FindTask returns the task with id on sheet
func FindTask(sheet models.PrepSheet, id string) (models.PrepTask, bool) {
	for _, task := range sheet.Tasks {
		if task.ID == id {
			return task, true
		}
	}
	return models.PrepTask{}, false
}

// CalculateRemainingTime sums the estimated minutes of incomplete tasks
func CalculateRemainingTime(sheet models.PrepSheet) int {
	remaining := 0
	for _, task := range sheet.Tasks {
		if !task.IsCompleted {
			remaining += task.EstimatedTime
		}
	}
	return remaining
}

// GroupTasksByRecipe groups tasks by recipe ID, keeping task order within each group
func GroupTasksByRecipe(tasks []models.PrepTask) map[string][]models.PrepTask {
	grouped := make(map[string][]models.PrepTask)
	for _, task := range tasks {
		grouped[task.RecipeID] = append(grouped[task.RecipeID], task)
	}
	return grouped
}

// RecipeTasks is the tasks of one recipe on a prep sheet
type RecipeTasks struct {
	RecipeID   string            `json:"recipeId"`
	RecipeName string            `json:"recipeName"`
	Tasks      []models.PrepTask `json:"tasks"`
}

// RecipeGroups is GroupTasksByRecipe with recipes in first-seen order
func RecipeGroups(tasks []models.PrepTask) []RecipeTasks {
	grouped := GroupTasksByRecipe(tasks)
	groups := make([]RecipeTasks, 0, len(grouped))
	seen := make(map[string]bool, len(grouped))

	for _, task := range tasks {
		if seen[task.RecipeID] {
			continue
		}
		seen[task.RecipeID] = true
		groups = append(groups, RecipeTasks{
			RecipeID:   task.RecipeID,
			RecipeName: task.RecipeName,
			Tasks:      grouped[task.RecipeID],
		})
	}
	return groups
}

// FormatMinutes renders minutes as "45 min", "2 hr" or "1 hr 5 min"
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}

	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%d hr", hours)
	}
	return fmt.Sprintf("%d hr %d min", hours, rest)
}

func totalMinutes(tasks []models.PrepTask) int {
	total := 0
	for _, task := range tasks {
		total += task.EstimatedTime
	}
	return total
}

func sheetStatus(tasks []models.PrepTask) models.SheetStatus {
	for _, task := range tasks {
		if !task.IsCompleted {
			return models.SheetInProgress
		}
	}
	return models.SheetCompleted
}
