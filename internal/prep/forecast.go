package prep

import (
	"time"

	"github.com/shopspring/decimal"

	"mise/internal/models"
)

const (
	// DefaultWindow is how far back same-weekday meal logs are averaged
	DefaultWindow = 21 * 24 * time.Hour
	// DefaultQuantity is suggested when a recipe has no usable history
	DefaultQuantity = 2
)

// Forecast derives suggested batch quantities from meal log history
type Forecast struct {
	Window          time.Duration
	DefaultQuantity int
}

// DefaultForecast is the three-week same-weekday average with a fallback of 2
var DefaultForecast = Forecast{Window: DefaultWindow, DefaultQuantity: DefaultQuantity}

// SuggestQuantity forecasts batches of recipe for target using DefaultForecast
func SuggestQuantity(recipe models.Recipe, logs []models.MealLog, target time.Time) int {
	return DefaultForecast.SuggestQuantity(recipe, logs, target)
}

// GenerateSuggestions builds one pending suggestion per recipe using DefaultForecast
func GenerateSuggestions(recipes []models.Recipe, logs []models.MealLog, inventory []models.InventoryItem, target time.Time) []models.PrepSuggestion {
	return DefaultForecast.GenerateSuggestions(recipes, logs, inventory, target)
}

// SuggestQuantity averages the quantities of logs for recipe that fall on
// target's weekday and no more than Window before target. Elapsed time is
// compared, not calendar weeks, and the boundary is inclusive. The mean is
// rounded half away from zero. With no matching logs DefaultQuantity is
// returned.
func (f Forecast) SuggestQuantity(recipe models.Recipe, logs []models.MealLog, target time.Time) int {
	targetWeekday := Weekday(target)

	total := decimal.Zero
	count := 0
	for _, log := range logs {
		if log.RecipeID != recipe.ID {
			continue
		}
		if Weekday(log.Date.In(target.Location())) != targetWeekday {
			continue
		}
		if target.Sub(log.Date) > f.Window {
			continue
		}
		total = total.Add(decimal.NewFromFloat(log.Quantity))
		count++
	}

	if count == 0 {
		return f.DefaultQuantity
	}

	return int(total.Div(decimal.NewFromInt(int64(count))).Round(0).IntPart())
}

// GenerateSuggestions forecasts every recipe for target and flags the ones
// that cannot be prepped from stock at the suggested quantity. Output order
// follows recipes.
func (f Forecast) GenerateSuggestions(recipes []models.Recipe, logs []models.MealLog, inventory []models.InventoryItem, target time.Time) []models.PrepSuggestion {
	weekday := Weekday(target)
	date := DateKey(target)

	suggestions := make([]models.PrepSuggestion, 0, len(recipes))
	for _, recipe := range recipes {
		quantity := f.SuggestQuantity(recipe, logs, target)
		shortages := ComputeShortages(recipe, float64(quantity), inventory)

		suggestions = append(suggestions, models.PrepSuggestion{
			ID:                SuggestionID(recipe.ID, date),
			RecipeID:          recipe.ID,
			RecipeName:        recipe.Name,
			SuggestedQuantity: quantity,
			UserQuantity:      quantity,
			Weekday:           weekday,
			Date:              date,
			Status:            models.SuggestionPending,
			HasShortage:       len(shortages) > 0,
		})
	}

	return suggestions
}

// SuggestionID is the identity of the suggestion for a recipe on a date
func SuggestionID(recipeID, dateKey string) string {
	return recipeID + "-" + dateKey
}
