package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/gorm"

	"mise/internal/logger"
	"mise/internal/models"
)

// Store persists kitchens, inventory, recipes, meal logs, suggestions and
// prep sheets through gorm.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewStore wraps an open gorm connection
func NewStore(db *gorm.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{db: db, log: log}
}

// Commit is one atomic change to a kitchen. It is applied only when the
// kitchen's inventory version still equals ExpectedVersion. Nil or empty
// fields are left untouched.
type Commit struct {
	KitchenID       string
	ExpectedVersion int64
	Inventory       []models.InventoryItem
	Suggestions     []models.PrepSuggestion
	Sheet           *models.PrepSheet
	MealLog         *models.MealLog
}

// MealLogFilter narrows a meal log listing. Zero values do not filter.
type MealLogFilter struct {
	From     time.Time
	To       time.Time
	RecipeID string
	Query    string
}

func notFound(err error, what string) error {
	if gorm.IsRecordNotFoundError(err) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return err
}

// transact runs fn inside a transaction, rolling back on error or panic
func (s *Store) transact(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit().Error
}

// EnsureKitchen returns the kitchen with id, creating it when missing
func (s *Store) EnsureKitchen(ctx context.Context, id, name, timezone string) (*models.Kitchen, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var kitchen models.Kitchen
	err := s.db.Where(models.Kitchen{ID: id}).
		Attrs(models.Kitchen{Name: name, Timezone: timezone}).
		FirstOrCreate(&kitchen).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure kitchen %s: %w", id, err)
	}
	return &kitchen, nil
}

// GetKitchen returns the kitchen with id
func (s *Store) GetKitchen(ctx context.Context, id string) (*models.Kitchen, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var kitchen models.Kitchen
	if err := s.db.Where("id = ?", id).First(&kitchen).Error; err != nil {
		return nil, notFound(err, "kitchen "+id)
	}
	return &kitchen, nil
}

// ListRecipes returns every recipe in creation order
func (s *Store) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recipes := make([]models.Recipe, 0)
	if err := s.db.Order("created_at").Order("id").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// GetRecipe returns the recipe with id
func (s *Store) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var recipe models.Recipe
	if err := s.db.Where("id = ?", id).First(&recipe).Error; err != nil {
		return nil, notFound(err, "recipe "+id)
	}
	return &recipe, nil
}

// CreateRecipe inserts a new recipe
func (s *Store) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Create(recipe).Error; err != nil {
		return fmt.Errorf("failed to create recipe %s: %w", recipe.Name, err)
	}
	return nil
}

// LoadInventory returns a kitchen's inventory together with the version it
// was read at.
func (s *Store) LoadInventory(ctx context.Context, kitchenID string) ([]models.InventoryItem, int64, error) {
	var kitchen models.Kitchen
	items := make([]models.InventoryItem, 0)

	err := s.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", kitchenID).First(&kitchen).Error; err != nil {
			return notFound(err, "kitchen "+kitchenID)
		}
		return tx.Where("kitchen_id = ?", kitchenID).Order("name").Order("id").Find(&items).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return items, kitchen.InventoryVersion, nil
}

// ListMealLogs returns a kitchen's meal logs, newest first
func (s *Store) ListMealLogs(ctx context.Context, kitchenID string, filter MealLogFilter) ([]models.MealLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := s.db.Where("kitchen_id = ?", kitchenID)
	if !filter.From.IsZero() {
		query = query.Where("date >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query = query.Where("date <= ?", filter.To.UTC())
	}
	if filter.RecipeID != "" {
		query = query.Where("recipe_id = ?", filter.RecipeID)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(recipe_name) LIKE ? OR LOWER(COALESCE(notes, '')) LIKE ?", like, like)
	}

	logs := make([]models.MealLog, 0)
	if err := query.Order("date DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list meal logs: %w", err)
	}
	return logs, nil
}

// ListSuggestions returns a kitchen's suggestions for a date key
func (s *Store) ListSuggestions(ctx context.Context, kitchenID, date string) ([]models.PrepSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	suggestions := make([]models.PrepSuggestion, 0)
	err := s.db.Where("kitchen_id = ? AND date = ?", kitchenID, date).Order("id").Find(&suggestions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return suggestions, nil
}

// GetSuggestion returns one suggestion of a kitchen
func (s *Store) GetSuggestion(ctx context.Context, kitchenID, id string) (*models.PrepSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var suggestion models.PrepSuggestion
	if err := s.db.Where("kitchen_id = ? AND id = ?", kitchenID, id).First(&suggestion).Error; err != nil {
		return nil, notFound(err, "suggestion "+id)
	}
	return &suggestion, nil
}

// SaveSuggestions inserts or replaces suggestions. It does not touch the
// inventory version.
func (s *Store) SaveSuggestions(ctx context.Context, suggestions []models.PrepSuggestion) error {
	return s.transact(ctx, func(tx *gorm.DB) error {
		return saveSuggestions(tx, suggestions)
	})
}

func saveSuggestions(tx *gorm.DB, suggestions []models.PrepSuggestion) error {
	for i := range suggestions {
		if err := tx.Save(&suggestions[i]).Error; err != nil {
			return fmt.Errorf("failed to save suggestion %s: %w", suggestions[i].ID, err)
		}
	}
	return nil
}

// GetPrepSheet returns a kitchen's prep sheet for a date key
func (s *Store) GetPrepSheet(ctx context.Context, kitchenID, date string) (*models.PrepSheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sheet models.PrepSheet
	if err := s.db.Where("kitchen_id = ? AND date = ?", kitchenID, date).First(&sheet).Error; err != nil {
		return nil, notFound(err, "prep sheet "+date)
	}
	return &sheet, nil
}

// Commit applies c atomically and returns the new inventory version. When
// another writer committed since ExpectedVersion was read, nothing is written
// and models.ErrVersionConflict is returned.
func (s *Store) Commit(ctx context.Context, c Commit) (int64, error) {
	next := c.ExpectedVersion + 1

	err := s.transact(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Kitchen{}).
			Where("id = ? AND inventory_version = ?", c.KitchenID, c.ExpectedVersion).
			Updates(map[string]interface{}{"inventory_version": next, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return fmt.Errorf("failed to bump inventory version: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrVersionConflict
		}

		for i := range c.Inventory {
			item := c.Inventory[i]
			item.KitchenID = c.KitchenID
			if err := tx.Save(&item).Error; err != nil {
				return fmt.Errorf("failed to save inventory item %s: %w", item.Name, err)
			}
		}

		if err := saveSuggestions(tx, c.Suggestions); err != nil {
			return err
		}

		if c.Sheet != nil {
			sheet := *c.Sheet
			sheet.KitchenID = c.KitchenID
			if err := tx.Save(&sheet).Error; err != nil {
				return fmt.Errorf("failed to save prep sheet %s: %w", sheet.Date, err)
			}
		}

		if c.MealLog != nil {
			entry := *c.MealLog
			entry.KitchenID = c.KitchenID
			entry.Date = entry.Date.UTC()
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to record meal log: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug("Committed kitchen %s at inventory version %d", c.KitchenID, next)
	return next, nil
}
