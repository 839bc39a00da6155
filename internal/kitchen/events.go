package kitchen

import "time"

// Event types published to live subscribers
const (
	EventSuggestionsGenerated = "suggestions.generated"
	EventSuggestionsApproved  = "suggestions.approved"
	EventSuggestionAdjusted   = "suggestion.adjusted"
	EventPrepSheetUpdated     = "prep-sheet.updated"
	EventInventoryUpdated     = "inventory.updated"
	EventMealLogged           = "meal.logged"
)

// Event is a change in a kitchen that live clients are told about
type Event struct {
	Type      string      `json:"type"`
	KitchenID string      `json:"kitchenId"`
	Date      string      `json:"date,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (s *Service) publish(kitchenID, eventType, date string, payload interface{}) {
	s.publisher.Publish(Event{
		Type:      eventType,
		KitchenID: kitchenID,
		Date:      date,
		Payload:   payload,
		Timestamp: s.now(),
	})
}
