package kitchen

import (
	"context"
	"errors"
	"fmt"

	"mise/internal/database"
	"mise/internal/models"
	"mise/internal/prep"
)

// Review is a suggestion with shortages and necessary prep at its current
// user quantity.
type Review struct {
	Suggestion    models.PrepSuggestion       `json:"suggestion"`
	Shortages     []models.IngredientShortage `json:"shortages"`
	NecessaryPrep prep.NecessaryPrep          `json:"necessaryPrep"`
}

// Approval is the outcome of approving suggestions
type Approval struct {
	Approved  []models.PrepSuggestion `json:"approved"`
	Tasks     []models.PrepTask       `json:"tasks"`
	PrepSheet SheetView               `json:"prepSheet"`
	Inventory []models.InventoryItem  `json:"inventory"`
}

// GenerateSuggestions forecasts every recipe for date and stores the result.
// Suggestions that were already approved or completed for the same recipe and
// date are kept as they are. The returned list follows recipe order.
func (s *Service) GenerateSuggestions(ctx context.Context, kitchenID, date string) ([]models.PrepSuggestion, error) {
	unlock := s.lock(kitchenID)
	defer unlock()

	kitchen, err := s.store.GetKitchen(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	target, err := s.day(kitchen, date)
	if err != nil {
		return nil, err
	}
	dateKey := prep.DateKey(target)

	recipes, err := s.store.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	inventory, _, err := s.store.LoadInventory(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.ListMealLogs(ctx, kitchenID, database.MealLogFilter{
		From: target.Add(-s.forecast.Window),
	})
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListSuggestions(ctx, kitchenID, dateKey)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.PrepSuggestion, len(existing))
	for _, suggestion := range existing {
		byID[suggestion.ID] = suggestion
	}

	generated := s.forecast.GenerateSuggestions(recipes, logs, inventory, target)
	result := make([]models.PrepSuggestion, 0, len(generated))
	toSave := make([]models.PrepSuggestion, 0, len(generated))
	shortages := 0

	for _, suggestion := range generated {
		if current, ok := byID[suggestion.ID]; ok && current.Status != models.SuggestionPending {
			result = append(result, current)
			continue
		}
		suggestion.KitchenID = kitchenID
		if suggestion.HasShortage {
			shortages++
		}
		result = append(result, suggestion)
		toSave = append(toSave, suggestion)
	}

	if err := s.store.SaveSuggestions(ctx, toSave); err != nil {
		return nil, err
	}

	s.recorder.SuggestionsGenerated(kitchenID, len(toSave), shortages)
	s.log.Info("Generated %d suggestions for kitchen %s on %s (%d with shortages)", len(toSave), kitchenID, dateKey, shortages)
	s.publish(kitchenID, EventSuggestionsGenerated, dateKey, result)

	return result, nil
}

// Suggestions returns the stored suggestions for date in recipe order
func (s *Service) Suggestions(ctx context.Context, kitchenID, date string) ([]models.PrepSuggestion, error) {
	kitchen, err := s.store.GetKitchen(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	target, err := s.day(kitchen, date)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.store.ListSuggestions(ctx, kitchenID, prep.DateKey(target))
	if err != nil {
		return nil, err
	}
	recipes, err := s.store.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	return inRecipeOrder(suggestions, recipes), nil
}

func inRecipeOrder(suggestions []models.PrepSuggestion, recipes []models.Recipe) []models.PrepSuggestion {
	byRecipe := make(map[string][]models.PrepSuggestion, len(suggestions))
	for _, suggestion := range suggestions {
		byRecipe[suggestion.RecipeID] = append(byRecipe[suggestion.RecipeID], suggestion)
	}

	ordered := make([]models.PrepSuggestion, 0, len(suggestions))
	for _, recipe := range recipes {
		ordered = append(ordered, byRecipe[recipe.ID]...)
		delete(byRecipe, recipe.ID)
	}
	// suggestions whose recipe was removed go last
	for _, suggestion := range suggestions {
		if _, ok := byRecipe[suggestion.RecipeID]; ok {
			ordered = append(ordered, suggestion)
		}
	}
	return ordered
}

// Review computes shortages and necessary prep for a suggestion at its user
// quantity against current stock.
func (s *Service) Review(ctx context.Context, kitchenID, suggestionID string) (*Review, error) {
	suggestion, err := s.store.GetSuggestion(ctx, kitchenID, suggestionID)
	if err != nil {
		return nil, err
	}
	return s.review(ctx, *suggestion)
}

func (s *Service) review(ctx context.Context, suggestion models.PrepSuggestion) (*Review, error) {
	recipe, err := s.store.GetRecipe(ctx, suggestion.RecipeID)
	if err != nil {
		return nil, err
	}
	inventory, _, err := s.store.LoadInventory(ctx, suggestion.KitchenID)
	if err != nil {
		return nil, err
	}

	batches := float64(suggestion.UserQuantity)
	return &Review{
		Suggestion:    suggestion,
		Shortages:     prep.ComputeShortages(*recipe, batches, inventory),
		NecessaryPrep: prep.ComputeNecessaryPrep(*recipe, batches, inventory),
	}, nil
}

// AdjustQuantity sets the user quantity of a pending suggestion and returns
// the fresh review. HasShortage keeps the value computed at generation.
func (s *Service) AdjustQuantity(ctx context.Context, kitchenID, suggestionID string, quantity int) (*Review, error) {
	if quantity < 0 {
		return nil, models.ErrInvalidQuantity
	}

	unlock := s.lock(kitchenID)
	defer unlock()

	suggestion, err := s.store.GetSuggestion(ctx, kitchenID, suggestionID)
	if err != nil {
		return nil, err
	}
	if suggestion.Status != models.SuggestionPending {
		return nil, fmt.Errorf("%w: %s is %s", models.ErrNotPending, suggestionID, suggestion.Status)
	}

	suggestion.UserQuantity = quantity
	if err := s.store.SaveSuggestions(ctx, []models.PrepSuggestion{*suggestion}); err != nil {
		return nil, err
	}

	review, err := s.review(ctx, *suggestion)
	if err != nil {
		return nil, err
	}
	s.publish(kitchenID, EventSuggestionAdjusted, suggestion.Date, suggestion)
	return review, nil
}

// Approve approves pending suggestions of date. With no ids every pending
// suggestion of the day is approved; ids that are no longer pending are
// skipped. Prep tasks are derived against stock before the approval and
// merged into the day's prep sheet, then the ingredients of exactly the newly
// approved suggestions are deducted from inventory. Everything is committed
// atomically.
func (s *Service) Approve(ctx context.Context, kitchenID, date string, ids []string) (*Approval, error) {
	unlock := s.lock(kitchenID)
	defer unlock()

	kitchen, err := s.store.GetKitchen(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	target, err := s.day(kitchen, date)
	if err != nil {
		return nil, err
	}
	dateKey := prep.DateKey(target)

	suggestions, err := s.store.ListSuggestions(ctx, kitchenID, dateKey)
	if err != nil {
		return nil, err
	}
	selected, err := selectPending(suggestions, ids)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, models.ErrNothingToApprove
	}

	recipes, err := s.store.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	inventory, version, err := s.store.LoadInventory(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	for i := range selected {
		selected[i].Status = models.SuggestionApproved
	}
	selected = inRecipeOrder(selected, recipes)

	tasks := prep.GeneratePrepTasks(selected, recipes, inventory)

	var sheet models.PrepSheet
	existing, err := s.store.GetPrepSheet(ctx, kitchenID, dateKey)
	switch {
	case errors.Is(err, models.ErrNotFound):
		sheet = prep.CreatePrepSheet(tasks, startOfDay(target))
	case err != nil:
		return nil, err
	default:
		sheet = prep.MergeTasks(*existing, tasks)
	}
	sheet.KitchenID = kitchenID

	updated := prep.ApplyApprovedImpact(selected, recipes, inventory)

	err = s.commit(ctx, database.Commit{
		KitchenID:       kitchenID,
		ExpectedVersion: version,
		Inventory:       changedItems(inventory, updated),
		Suggestions:     selected,
		Sheet:           &sheet,
	})
	if err != nil {
		return nil, err
	}

	s.recorder.SuggestionsApproved(kitchenID, len(selected))
	s.recordDeductions(kitchenID, inventory, updated)
	s.log.Info("Approved %d suggestions for kitchen %s on %s, %d prep tasks", len(selected), kitchenID, dateKey, len(tasks))

	view := newSheetView(sheet)
	s.publish(kitchenID, EventSuggestionsApproved, dateKey, selected)
	s.publish(kitchenID, EventPrepSheetUpdated, dateKey, view)

	return &Approval{
		Approved:  selected,
		Tasks:     tasks,
		PrepSheet: view,
		Inventory: updated,
	}, nil
}

// selectPending picks the pending suggestions named by ids, or every pending
// suggestion when ids is empty. Unknown ids are an error.
func selectPending(suggestions []models.PrepSuggestion, ids []string) ([]models.PrepSuggestion, error) {
	selected := make([]models.PrepSuggestion, 0, len(suggestions))

	if len(ids) == 0 {
		for _, suggestion := range suggestions {
			if suggestion.Status == models.SuggestionPending {
				selected = append(selected, suggestion)
			}
		}
		return selected, nil
	}

	byID := make(map[string]models.PrepSuggestion, len(suggestions))
	for _, suggestion := range suggestions {
		byID[suggestion.ID] = suggestion
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		suggestion, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("suggestion %s: %w", id, models.ErrNotFound)
		}
		if seen[id] || suggestion.Status != models.SuggestionPending {
			continue
		}
		seen[id] = true
		selected = append(selected, suggestion)
	}
	return selected, nil
}
