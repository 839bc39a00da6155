package models

import "time"

// MealLog records how many batches of a recipe were served on a day. IDs are
// unique within a kitchen only.
type MealLog struct {
	KitchenID              string    `gorm:"primary_key" json:"kitchenId"`
	ID                     string    `gorm:"primary_key" json:"id"`
	RecipeID               string    `gorm:"index" json:"recipeId"`
	RecipeName             string    `json:"recipeName"`
	Date                   time.Time `gorm:"index" json:"date"`
	Quantity               float64   `json:"quantity"`
	ManualOverrideServings *float64  `json:"manualOverrideServings"`
	Notes                  *string   `json:"notes"`
}

// TableName sets the table name for MealLog
func (MealLog) TableName() string {
	return "meal_logs"
}
