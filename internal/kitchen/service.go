// Package kitchen runs the prep workflow of a kitchen against the store:
// forecasting suggestions, approving them into a prep sheet, completing prep
// tasks and recording meals. Every write that touches inventory is serialized
// per kitchen and committed with a compare-and-swap on the inventory version.
package kitchen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mise/internal/database"
	"mise/internal/logger"
	"mise/internal/models"
	"mise/internal/prep"
)

// Store is the persistence the service needs
type Store interface {
	EnsureKitchen(ctx context.Context, id, name, timezone string) (*models.Kitchen, error)
	GetKitchen(ctx context.Context, id string) (*models.Kitchen, error)
	ListRecipes(ctx context.Context) ([]models.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	LoadInventory(ctx context.Context, kitchenID string) ([]models.InventoryItem, int64, error)
	ListMealLogs(ctx context.Context, kitchenID string, filter database.MealLogFilter) ([]models.MealLog, error)
	ListSuggestions(ctx context.Context, kitchenID, date string) ([]models.PrepSuggestion, error)
	GetSuggestion(ctx context.Context, kitchenID, id string) (*models.PrepSuggestion, error)
	SaveSuggestions(ctx context.Context, suggestions []models.PrepSuggestion) error
	GetPrepSheet(ctx context.Context, kitchenID, date string) (*models.PrepSheet, error)
	Commit(ctx context.Context, c database.Commit) (int64, error)
}

// Recorder receives kitchen activity for metrics
type Recorder interface {
	SuggestionsGenerated(kitchenID string, count, shortages int)
	SuggestionsApproved(kitchenID string, count int)
	InventoryDeducted(kitchenID, ingredient string, amount float64)
	TaskCompleted(kitchenID string, remainingMinutes int)
	InventoryConflict(kitchenID string)
	MealLogged(kitchenID string)
}

// Publisher fans out kitchen events to live subscribers
type Publisher interface {
	Publish(event Event)
}

// Options configures a Service. Zero values fall back to UTC, the default
// forecast, the system clock and no-op hooks.
type Options struct {
	Location  *time.Location
	Forecast  prep.Forecast
	Recorder  Recorder
	Publisher Publisher
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service coordinates the prep workflow of every kitchen
type Service struct {
	store     Store
	loc       *time.Location
	forecast  prep.Forecast
	recorder  Recorder
	publisher Publisher
	log       *logger.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a kitchen service on top of store
func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:     store,
		loc:       opts.Location,
		forecast:  opts.Forecast,
		recorder:  opts.Recorder,
		publisher: opts.Publisher,
		log:       opts.Logger,
		now:       opts.Now,
		locks:     make(map[string]*sync.Mutex),
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.forecast.Window <= 0 {
		s.forecast = prep.DefaultForecast
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// lock serializes writers of one kitchen and returns the unlock func
func (s *Service) lock(kitchenID string) func() {
	s.mu.Lock()
	l, ok := s.locks[kitchenID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[kitchenID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// EnsureKitchen creates a kitchen if it does not exist yet
func (s *Service) EnsureKitchen(ctx context.Context, id, name, timezone string) (*models.Kitchen, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: kitchen id is required", models.ErrInvalidInput)
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", models.ErrInvalidInput, timezone)
		}
	}
	return s.store.EnsureKitchen(ctx, id, name, timezone)
}

// location is the kitchen's own timezone, or the service default
func (s *Service) location(kitchen *models.Kitchen) *time.Location {
	if kitchen.Timezone != "" {
		if loc, err := time.LoadLocation(kitchen.Timezone); err == nil {
			return loc
		}
		s.log.Warn("Kitchen %s has invalid timezone %q, using %s", kitchen.ID, kitchen.Timezone, s.loc)
	}
	return s.loc
}

// day resolves a date key in the kitchen's timezone. An empty key means now;
// any other key means midnight of that day.
func (s *Service) day(kitchen *models.Kitchen, date string) (time.Time, error) {
	loc := s.location(kitchen)
	if date == "" {
		return s.now().In(loc), nil
	}
	t, err := prep.ParseDateKey(date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", models.ErrInvalidInput, date)
	}
	return t, nil
}

// commit writes c and records conflicts
func (s *Service) commit(ctx context.Context, c database.Commit) error {
	_, err := s.store.Commit(ctx, c)
	if errors.Is(err, models.ErrVersionConflict) {
		s.recorder.InventoryConflict(c.KitchenID)
		s.log.Warn("Inventory of kitchen %s changed since version %d", c.KitchenID, c.ExpectedVersion)
	}
	return err
}

// changedItems returns the items of after that differ from before. after is
// a snapshot derived from before, so shared indexes hold the same item.
func changedItems(before, after []models.InventoryItem) []models.InventoryItem {
	changed := make([]models.InventoryItem, 0)
	for i, item := range after {
		if i >= len(before) || before[i].Quantity != item.Quantity || !before[i].LastChecked.Equal(item.LastChecked) {
			changed = append(changed, item)
		}
	}
	return changed
}

// recordDeductions reports the stock removed between two snapshots
func (s *Service) recordDeductions(kitchenID string, before, after []models.InventoryItem) {
	for i := range before {
		if i < len(after) && after[i].Quantity < before[i].Quantity {
			s.recorder.InventoryDeducted(kitchenID, before[i].Name, before[i].Quantity-after[i].Quantity)
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) SuggestionsGenerated(string, int, int) {}
func (nopRecorder) SuggestionsApproved(string, int) {}
func (nopRecorder) InventoryDeducted(string, string, float64) {}
func (nopRecorder) TaskCompleted(string, int) {}
func (nopRecorder) InventoryConflict(string) {}
func (nopRecorder) MealLogged(string) {}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
