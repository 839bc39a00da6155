package models

import "time"

// InventoryItem represents an item in the kitchen inventory. IDs are unique
// within a kitchen only.
type InventoryItem struct {
	KitchenID   string     `gorm:"primary_key" json:"kitchenId"`
	ID          string     `gorm:"primary_key" json:"id"`
	Name        string     `gorm:"index" json:"name"`
	Category    string     `json:"category,omitempty"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	AlertLevel  float64    `json:"alertLevel"`
	ExpiryDate  *time.Time `json:"expiryDate"`
	LastChecked time.Time  `json:"lastChecked"`
}

// TableName sets the table name for InventoryItem
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// IsLowStock reports whether the stock is at or below the alert level
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.AlertLevel
}

// Clone returns a copy that shares no pointers with the receiver
func (i InventoryItem) Clone() InventoryItem {
	if i.ExpiryDate != nil {
		expiry := *i.ExpiryDate
		i.ExpiryDate = &expiry
	}
	return i
}
