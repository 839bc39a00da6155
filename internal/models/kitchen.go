package models

import "time"

// Kitchen is the identity that owns one inventory. InventoryVersion is bumped
// on every committed inventory change and guards concurrent writers.
type Kitchen struct {
	ID               string    `gorm:"primary_key" json:"id"`
	Name             string    `json:"name"`
	Timezone         string    `json:"timezone"`
	InventoryVersion int64     `json:"inventoryVersion"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// TableName sets the table name for Kitchen
func (Kitchen) TableName() string {
	return "kitchens"
}
