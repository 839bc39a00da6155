package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// SuggestionStatus represents the lifecycle of a prep suggestion
type SuggestionStatus string

const (
	SuggestionPending   SuggestionStatus = "pending"
	SuggestionApproved  SuggestionStatus = "approved"
	SuggestionCompleted SuggestionStatus = "completed"
)

// SheetStatus represents the status of a prep sheet
type SheetStatus string

const (
	SheetInProgress SheetStatus = "in-progress"
	SheetCompleted  SheetStatus = "completed"
)

// PrepSuggestion is the forecast of how many batches of a recipe to prep on a
// given date. HasShortage is computed from SuggestedQuantity when the
// suggestion is created and is not refreshed when UserQuantity changes.
type PrepSuggestion struct {
	KitchenID         string           `gorm:"primary_key" json:"kitchenId"`
	ID                string           `gorm:"primary_key" json:"id"`
	RecipeID          string           `gorm:"index" json:"recipeId"`
	RecipeName        string           `json:"recipeName"`
	SuggestedQuantity int              `json:"suggestedQuantity"`
	UserQuantity      int              `json:"userQuantity"`
	Weekday           string           `json:"weekday"`
	Date              string           `gorm:"index" json:"date"`
	Status            SuggestionStatus `json:"status"`
	HasShortage       bool             `json:"hasShortage"`
}

// TableName sets the table name for PrepSuggestion
func (PrepSuggestion) TableName() string {
	return "prep_suggestions"
}

// IngredientShortage describes an ingredient with less stock than required
type IngredientShortage struct {
	IngredientName string  `json:"ingredientName"`
	Required       float64 `json:"required"`
	Available      float64 `json:"available"`
	Unit           string  `json:"unit"`
}

// PrepTask is one ingredient-level unit of prep work
type PrepTask struct {
	ID                string  `json:"id"`
	RecipeID          string  `json:"recipeId"`
	RecipeName        string  `json:"recipeName"`
	IngredientName    string  `json:"ingredientName"`
	InventoryID       string  `json:"inventoryId,omitempty"`
	Quantity          float64 `json:"quantity"`
	Unit              string  `json:"unit"`
	EstimatedTime     int     `json:"estimatedTime"`
	IsCompleted       bool    `json:"isCompleted"`
	CompletedQuantity float64 `json:"completedQuantity"`
	// StockedQuantity is how much of the task has already been added to
	// inventory. It only grows.
	StockedQuantity float64 `json:"stockedQuantity"`
}

// TaskList represents prep tasks stored as a JSON column
type TaskList []PrepTask

// Value converts the list to a JSON string for storage
func (l TaskList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan converts the database value back to a list
func (l *TaskList) Scan(value interface{}) error {
	if value == nil {
		*l = TaskList{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for TaskList")
	}
}

// PrepSheet is the day's collection of prep tasks
type PrepSheet struct {
	KitchenID          string      `gorm:"primary_key" json:"kitchenId"`
	ID                 string      `gorm:"primary_key" json:"id"`
	Date               string      `gorm:"index" json:"date"`
	Weekday            string      `json:"weekday"`
	Tasks              TaskList    `gorm:"type:text" json:"tasks"`
	TotalEstimatedTime int         `json:"totalEstimatedTime"`
	Status             SheetStatus `json:"status"`
}

// TableName sets the table name for PrepSheet
func (PrepSheet) TableName() string {
	return "prep_sheets"
}

// IsSuggestionStatusValid checks if a suggestion status is valid
func IsSuggestionStatusValid(status string) bool {
	validStatuses := map[SuggestionStatus]bool{
		SuggestionPending:   true,
		SuggestionApproved:  true,
		SuggestionCompleted: true,
	}
	return validStatuses[SuggestionStatus(status)]
}

// ValidateRecipe validates a recipe before it is stored
func ValidateRecipe(recipe *Recipe) error {
	if recipe.Name == "" {
		return fmt.Errorf("recipe name is required")
	}
	seen := make(map[string]bool, len(recipe.Ingredients))
	for _, ingredient := range recipe.Ingredients {
		if ingredient.Name == "" {
			return fmt.Errorf("recipe ingredient name is required")
		}
		if ingredient.Quantity < 0 {
			return fmt.Errorf("ingredient %s quantity cannot be negative", ingredient.Name)
		}
		if ingredient.ID == "" {
			continue
		}
		// task IDs are built from ingredient IDs
		if seen[ingredient.ID] {
			return fmt.Errorf("duplicate ingredient id %s", ingredient.ID)
		}
		seen[ingredient.ID] = true
	}
	return nil
}

// ValidateInventoryItem validates an inventory item before it is stored
func ValidateInventoryItem(item *InventoryItem) error {
	if item.Name == "" {
		return fmt.Errorf("inventory item name is required")
	}
	if item.Quantity < 0 {
		return fmt.Errorf("inventory item quantity cannot be negative")
	}
	if item.AlertLevel < 0 {
		return fmt.Errorf("inventory item alert level cannot be negative")
	}
	return nil
}
