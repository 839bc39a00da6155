// Package evaluation backtests the prep forecast against recorded meal
// history. For every past service day it replays the forecast with only the
// logs known before that day and compares it with what was actually served.
package evaluation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"mise/internal/models"
	"mise/internal/prep"
)

// Evaluator scores a forecast against meal history
type Evaluator struct {
	forecast prep.Forecast
}

// DayResult is one recipe on one service day
type DayResult struct {
	Date       string  `json:"date"`
	Weekday    string  `json:"weekday"`
	RecipeID   string  `json:"recipeId"`
	RecipeName string  `json:"recipeName"`
	Forecast   int     `json:"forecast"`
	Actual     float64 `json:"actual"`
	Error      float64 `json:"error"`
}

// RecipeAccuracy aggregates the day results of one recipe
type RecipeAccuracy struct {
	RecipeID          string  `json:"recipeId"`
	RecipeName        string  `json:"recipeName"`
	Samples           int     `json:"samples"`
	MeanAbsoluteError float64 `json:"meanAbsoluteError"`
	Bias              float64 `json:"bias"`
}

// EvaluationResult contains the backtest of one kitchen over a date range.
// Metrics holds mean_absolute_error, bias, exact_hit_rate and samples.
type EvaluationResult struct {
	KitchenID   string             `json:"kitchenId"`
	From        string             `json:"from"`
	To          string             `json:"to"`
	ServiceDays int                `json:"serviceDays"`
	Metrics     map[string]float64 `json:"metrics"`
	Recipes     []RecipeAccuracy   `json:"recipes"`
	Days        []DayResult        `json:"days"`
}

// NewEvaluator creates an evaluator for forecast. A zero forecast means the
// default same-weekday average.
func NewEvaluator(forecast prep.Forecast) *Evaluator {
	if forecast.Window <= 0 {
		forecast = prep.DefaultForecast
	}
	return &Evaluator{forecast: forecast}
}

type accumulator struct {
	samples  int
	absError decimal.Decimal
	signed   decimal.Decimal
	hits     int
}

func (a *accumulator) add(forecast int, actual decimal.Decimal) decimal.Decimal {
	diff := decimal.NewFromInt(int64(forecast)).Sub(actual)
	a.samples++
	a.absError = a.absError.Add(diff.Abs())
	a.signed = a.signed.Add(diff)
	if diff.IsZero() {
		a.hits++
	}
	return diff
}

func (a *accumulator) mean(sum decimal.Decimal) float64 {
	if a.samples == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(int64(a.samples))).Round(3).InexactFloat64()
}

// Evaluate backtests the days calendar days before end, in end's location.
// Only days with at least one meal log are scored; on those days a recipe
// with no log counts as zero served.
func (e *Evaluator) Evaluate(kitchenID string, recipes []models.Recipe, logs []models.MealLog, end time.Time, days int) *EvaluationResult {
	loc := end.Location()
	year, month, day := end.Date()
	last := time.Date(year, month, day, 0, 0, 0, 0, loc)
	first := last.AddDate(0, 0, -days)

	served := make(map[string]map[string]decimal.Decimal)
	for _, log := range logs {
		key := prep.DateKey(log.Date.In(loc))
		if served[key] == nil {
			served[key] = make(map[string]decimal.Decimal)
		}
		served[key][log.RecipeID] = served[key][log.RecipeID].Add(decimal.NewFromFloat(log.Quantity))
	}

	// logs sorted oldest first so each day only sees its past
	history := append([]models.MealLog(nil), logs...)
	sort.SliceStable(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })

	result := &EvaluationResult{
		KitchenID: kitchenID,
		From:      prep.DateKey(first),
		To:        prep.DateKey(last.AddDate(0, 0, -1)),
		Metrics:   make(map[string]float64),
		Recipes:   make([]RecipeAccuracy, 0, len(recipes)),
		Days:      make([]DayResult, 0),
	}

	total := &accumulator{}
	perRecipe := make(map[string]*accumulator, len(recipes))
	for _, recipe := range recipes {
		perRecipe[recipe.ID] = &accumulator{}
	}

	for target := first; target.Before(last); target = target.AddDate(0, 0, 1) {
		key := prep.DateKey(target)
		actuals, ok := served[key]
		if !ok {
			continue
		}
		result.ServiceDays++

		known := sort.Search(len(history), func(i int) bool { return !history[i].Date.Before(target) })
		for _, recipe := range recipes {
			forecast := e.forecast.SuggestQuantity(recipe, history[:known], target)
			actual := actuals[recipe.ID]

			diff := total.add(forecast, actual)
			perRecipe[recipe.ID].add(forecast, actual)

			result.Days = append(result.Days, DayResult{
				Date:       key,
				Weekday:    prep.Weekday(target),
				RecipeID:   recipe.ID,
				RecipeName: recipe.Name,
				Forecast:   forecast,
				Actual:     actual.InexactFloat64(),
				Error:      diff.InexactFloat64(),
			})
		}
	}

	for _, recipe := range recipes {
		acc := perRecipe[recipe.ID]
		result.Recipes = append(result.Recipes, RecipeAccuracy{
			RecipeID:          recipe.ID,
			RecipeName:        recipe.Name,
			Samples:           acc.samples,
			MeanAbsoluteError: acc.mean(acc.absError),
			Bias:              acc.mean(acc.signed),
		})
	}

	result.Metrics["samples"] = float64(total.samples)
	result.Metrics["mean_absolute_error"] = total.mean(total.absError)
	result.Metrics["bias"] = total.mean(total.signed)
	result.Metrics["exact_hit_rate"] = 0
	if total.samples > 0 {
		result.Metrics["exact_hit_rate"] = decimal.NewFromInt(int64(total.hits)).
			Div(decimal.NewFromInt(int64(total.samples))).Round(3).InexactFloat64()
	}
	return result
}
