package kitchen

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mise/internal/database"
	"mise/internal/models"
)

// memoryStore is an in-memory Store with the same version semantics as the
// gorm store.
type memoryStore struct {
	mu          sync.Mutex
	kitchens    map[string]models.Kitchen
	recipes     []models.Recipe
	inventory   map[string][]models.InventoryItem
	mealLogs    []models.MealLog
	suggestions map[string]models.PrepSuggestion
	sheets      map[string]models.PrepSheet
	commits     int

	// beforeCommit runs once, right before the next version check
	beforeCommit func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		kitchens:    make(map[string]models.Kitchen),
		inventory:   make(map[string][]models.InventoryItem),
		suggestions: make(map[string]models.PrepSuggestion),
		sheets:      make(map[string]models.PrepSheet),
	}
}

func key(parts ...string) string {
	return strings.Join(parts, "|")
}

func (m *memoryStore) EnsureKitchen(_ context.Context, id, name, timezone string) (*models.Kitchen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.kitchens[id]
	if !ok {
		k = models.Kitchen{ID: id, Name: name, Timezone: timezone}
		m.kitchens[id] = k
	}
	return &k, nil
}

func (m *memoryStore) GetKitchen(_ context.Context, id string) (*models.Kitchen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.kitchens[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &k, nil
}

func (m *memoryStore) ListRecipes(context.Context) ([]models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Recipe(nil), m.recipes...), nil
}

func (m *memoryStore) GetRecipe(_ context.Context, id string) (*models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, recipe := range m.recipes {
		if recipe.ID == id {
			r := recipe
			return &r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memoryStore) CreateRecipe(_ context.Context, recipe *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipes = append(m.recipes, *recipe)
	return nil
}

func (m *memoryStore) LoadInventory(_ context.Context, kitchenID string) ([]models.InventoryItem, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.kitchens[kitchenID]
	if !ok {
		return nil, 0, models.ErrNotFound
	}
	items := make([]models.InventoryItem, 0, len(m.inventory[kitchenID]))
	for _, item := range m.inventory[kitchenID] {
		items = append(items, item.Clone())
	}
	return items, k.InventoryVersion, nil
}

func (m *memoryStore) ListMealLogs(_ context.Context, kitchenID string, filter database.MealLogFilter) ([]models.MealLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	logs := make([]models.MealLog, 0)
	for _, entry := range m.mealLogs {
		if entry.KitchenID != kitchenID {
			continue
		}
		if !filter.From.IsZero() && entry.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && entry.Date.After(filter.To) {
			continue
		}
		if filter.RecipeID != "" && entry.RecipeID != filter.RecipeID {
			continue
		}
		logs = append(logs, entry)
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Date.After(logs[j].Date) })
	return logs, nil
}

func (m *memoryStore) ListSuggestions(_ context.Context, kitchenID, date string) ([]models.PrepSuggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	suggestions := make([]models.PrepSuggestion, 0)
	for _, suggestion := range m.suggestions {
		if suggestion.KitchenID == kitchenID && suggestion.Date == date {
			suggestions = append(suggestions, suggestion)
		}
	}
	sort.Slice(suggestions, func(i, j int) bool { return suggestions[i].ID < suggestions[j].ID })
	return suggestions, nil
}

func (m *memoryStore) GetSuggestion(_ context.Context, kitchenID, id string) (*models.PrepSuggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	suggestion, ok := m.suggestions[key(kitchenID, id)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &suggestion, nil
}

func (m *memoryStore) SaveSuggestions(_ context.Context, suggestions []models.PrepSuggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, suggestion := range suggestions {
		m.suggestions[key(suggestion.KitchenID, suggestion.ID)] = suggestion
	}
	return nil
}

func (m *memoryStore) GetPrepSheet(_ context.Context, kitchenID, date string) (*models.PrepSheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sheet, ok := m.sheets[key(kitchenID, date)]
	if !ok {
		return nil, models.ErrNotFound
	}
	sheet.Tasks = append(models.TaskList(nil), sheet.Tasks...)
	return &sheet, nil
}

func (m *memoryStore) Commit(_ context.Context, c database.Commit) (int64, error) {
	m.mu.Lock()
	hook := m.beforeCommit
	m.beforeCommit = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.kitchens[c.KitchenID]
	if !ok || k.InventoryVersion != c.ExpectedVersion {
		return 0, models.ErrVersionConflict
	}
	k.InventoryVersion++
	m.kitchens[c.KitchenID] = k
	m.commits++

	for _, item := range c.Inventory {
		item.KitchenID = c.KitchenID
		replaced := false
		for i, existing := range m.inventory[c.KitchenID] {
			if existing.ID == item.ID {
				m.inventory[c.KitchenID][i] = item
				replaced = true
			}
		}
		if !replaced {
			m.inventory[c.KitchenID] = append(m.inventory[c.KitchenID], item)
		}
	}
	for _, suggestion := range c.Suggestions {
		m.suggestions[key(suggestion.KitchenID, suggestion.ID)] = suggestion
	}
	if c.Sheet != nil {
		sheet := *c.Sheet
		sheet.KitchenID = c.KitchenID
		sheet.Tasks = append(models.TaskList(nil), sheet.Tasks...)
		m.sheets[key(c.KitchenID, sheet.Date)] = sheet
	}
	if c.MealLog != nil {
		entry := *c.MealLog
		entry.KitchenID = c.KitchenID
		m.mealLogs = append(m.mealLogs, entry)
	}
	return k.InventoryVersion, nil
}

// bump simulates a writer in another process
func (m *memoryStore) bump(kitchenID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.kitchens[kitchenID]
	k.InventoryVersion++
	m.kitchens[kitchenID] = k
}

func (m *memoryStore) stock(kitchenID, name string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.inventory[kitchenID] {
		if item.Name == name {
			return item.Quantity, true
		}
	}
	return 0, false
}
