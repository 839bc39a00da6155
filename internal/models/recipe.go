package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// IngredientList represents recipe ingredients stored as a JSON column
type IngredientList []RecipeIngredient

// Value converts the list to a JSON string for storage
func (l IngredientList) Value() (driver.Value, error) {
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
func (l *IngredientList) Scan(value interface{}) error {
	if value == nil {
		*l = IngredientList{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for IngredientList")
	}
}

// Recipe represents a recipe the kitchen preps in batches
type Recipe struct {
	ID          string         `gorm:"primary_key" json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Ingredients IngredientList `gorm:"type:text" json:"ingredients"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// TableName sets the table name for Recipe
func (Recipe) TableName() string {
	return "recipes"
}

// RecipeIngredient is the amount of one ingredient needed for a single batch.
// Name is the join key against InventoryItem.Name. InventoryID, when set,
// takes precedence over the name.
type RecipeIngredient struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	InventoryID string  `json:"inventoryId,omitempty"`
}
