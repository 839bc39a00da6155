package kitchen

import (
	"context"
	"fmt"

	"mise/internal/database"
	"mise/internal/evaluation"
	"mise/internal/models"
)

const (
	defaultAccuracyDays = 28
	maxAccuracyDays     = 180
)

// ForecastAccuracy backtests the kitchen's forecast over the days before
// today. Zero days means four weeks.
func (s *Service) ForecastAccuracy(ctx context.Context, kitchenID string, days int) (*evaluation.EvaluationResult, error) {
	if days == 0 {
		days = defaultAccuracyDays
	}
	if days < 0 || days > maxAccuracyDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", models.ErrInvalidInput, maxAccuracyDays)
	}

	kitchen, err := s.store.GetKitchen(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	recipes, err := s.store.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}

	end := s.now().In(s.location(kitchen))
	logs, err := s.store.ListMealLogs(ctx, kitchenID, database.MealLogFilter{
		From: end.AddDate(0, 0, -days).Add(-s.forecast.Window),
		To:   end,
	})
	if err != nil {
		return nil, err
	}

	result := evaluation.NewEvaluator(s.forecast).Evaluate(kitchenID, recipes, logs, end, days)
	s.log.Debug("Backtested %d service days for kitchen %s", result.ServiceDays, kitchenID)
	return result, nil
}
