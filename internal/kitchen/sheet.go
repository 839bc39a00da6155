package kitchen

import (
	"context"
	"fmt"
	"time"

	"mise/internal/database"
	"mise/internal/models"
	"mise/internal/prep"
)

// SheetView is a prep sheet with its derived progress figures
type SheetView struct {
	models.PrepSheet
	RemainingTime      int                `json:"remainingTime"`
	RemainingTimeLabel string             `json:"remainingTimeLabel"`
	TotalTimeLabel     string             `json:"totalTimeLabel"`
	Groups             []prep.RecipeTasks `json:"groups"`
}

func newSheetView(sheet models.PrepSheet) SheetView {
	remaining := prep.CalculateRemainingTime(sheet)
	return SheetView{
		PrepSheet:          sheet,
		RemainingTime:      remaining,
		RemainingTimeLabel: prep.FormatMinutes(remaining),
		TotalTimeLabel:     prep.FormatMinutes(sheet.TotalEstimatedTime),
		Groups:             prep.RecipeGroups(sheet.Tasks),
	}
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// PrepSheet returns the prep sheet for date
func (s *Service) PrepSheet(ctx context.Context, kitchenID, date string) (*SheetView, error) {
	kitchen, err := s.store.GetKitchen(ctx, kitchenID)
	if err != nil {
		return nil, err
	}
	target, err := s.day(kitchen, date)
	if err != nil {
		return nil, err
	}

	sheet, err := s.store.GetPrepSheet(ctx, kitchenID, prep.DateKey(target))
	if err != nil {
		return nil, err
	}
	view := newSheetView(*sheet)
	return &view, nil
}

// CompleteTask sets the completion of one task on the prep sheet of date.
// Completing a task adds its completed quantity to stock, less whatever an
// earlier completion of the same task already stocked; marking it incomplete
// again does not take the stock back out. Once every
// task is done the day's approved suggestions are marked completed. A nil
// completedQuantity means the full task quantity was prepped.
func (s *Service) CompleteTask(ctx context.Context, kitchenID, date, taskID string, isCompleted bool, completedQuantity *float64) (*SheetView, error) {
	if completedQuantity != nil && *completedQuantity < 0 {
		return nil, models.ErrInvalidQuantity
	}

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

	sheet, err := s.store.GetPrepSheet(ctx, kitchenID, dateKey)
	if err != nil {
		return nil, err
	}
	before, ok := prep.FindTask(*sheet, taskID)
	if !ok {
		return nil, fmt.Errorf("prep task %s: %w", taskID, models.ErrNotFound)
	}

	inventory, version, err := s.store.LoadInventory(ctx, kitchenID)
	if err != nil {
		return nil, err
	}

	quantity := before.Quantity
	if completedQuantity != nil {
		quantity = *completedQuantity
	}
	updated := prep.UpdateTaskCompletion(*sheet, taskID, isCompleted, quantity)
	c := database.Commit{
		KitchenID:       kitchenID,
		ExpectedVersion: version,
	}

	justCompleted := isCompleted && !before.IsCompleted
	if isCompleted {
		task, _ := prep.FindTask(updated, taskID)
		folded := prep.ApplyCompletedTasksToInventory(inventory, []models.PrepTask{task}, s.now())
		c.Inventory = changedItems(inventory, folded)
		updated = prep.MarkTaskStocked(updated, taskID)
	}
	c.Sheet = &updated

	if updated.Status == models.SheetCompleted && sheet.Status != models.SheetCompleted {
		suggestions, err := s.store.ListSuggestions(ctx, kitchenID, dateKey)
		if err != nil {
			return nil, err
		}
		for _, suggestion := range suggestions {
			if suggestion.Status == models.SuggestionApproved {
				suggestion.Status = models.SuggestionCompleted
				c.Suggestions = append(c.Suggestions, suggestion)
			}
		}
	}

	if err := s.commit(ctx, c); err != nil {
		return nil, err
	}

	view := newSheetView(updated)
	if justCompleted {
		s.recorder.TaskCompleted(kitchenID, view.RemainingTime)
	}
	if len(c.Suggestions) > 0 {
		s.log.Info("Prep sheet for kitchen %s on %s completed", kitchenID, dateKey)
	}
	s.publish(kitchenID, EventPrepSheetUpdated, dateKey, view)
	if len(c.Inventory) > 0 {
		s.publish(kitchenID, EventInventoryUpdated, dateKey, c.Inventory)
	}

	return &view, nil
}
