package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes kitchen activity as Prometheus collectors on a dedicated
// registry and mirrors the latest values into a Monitor.
type Metrics struct {
	registry *prometheus.Registry
	monitor  *Monitor

	suggestionsGenerated *prometheus.CounterVec
	shortages            *prometheus.GaugeVec
	approvals            *prometheus.CounterVec
	inventoryDeducted    *prometheus.CounterVec
	tasksCompleted       *prometheus.CounterVec
	remainingMinutes     *prometheus.GaugeVec
	conflicts            *prometheus.CounterVec
	mealLogs             *prometheus.CounterVec
}

// NewMetrics creates and registers every kitchen collector
func NewMetrics(monitor *Monitor) *Metrics {
	if monitor == nil {
		monitor = NewMonitor()
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		monitor:  monitor,
		suggestionsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mise_suggestions_generated_total",
				Help: "Prep suggestions generated",
			},
			[]string{"kitchen"},
		),
		shortages: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mise_suggestion_shortages",
				Help: "Suggestions in the latest generation that cannot be prepped from stock",
			},
			[]string{"kitchen"},
		),
		approvals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mise_approvals_total",
				Help: "Prep suggestions approved",
			},
			[]string{"kitchen"},
		),
		inventoryDeducted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mise_inventory_deducted_total",
				Help: "Stock deducted by approvals and meal logs, in the item's unit",
			},
			[]string{"kitchen", "ingredient"},
		),
		tasksCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mise_prep_tasks_completed_total",
				Help: "Prep tasks marked completed",
			},
			[]string{"kitchen"},
		),
		remainingMinutes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mise_prep_remaining_minutes",
				Help: "Estimated minutes left on the latest updated prep sheet",
			},
			[]string{"kitchen"},
		),
		conflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mise_inventory_conflicts_total",
				Help: "Inventory commits rejected because of a concurrent writer",
			},
			[]string{"kitchen"},
		),
		mealLogs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mise_meal_logs_total",
				Help: "Meal logs recorded",
			},
			[]string{"kitchen"},
		),
	}

	m.registry.MustRegister(
		m.suggestionsGenerated,
		m.shortages,
		m.approvals,
		m.inventoryDeducted,
		m.tasksCompleted,
		m.remainingMinutes,
		m.conflicts,
		m.mealLogs,
	)

	return m
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Monitor returns the snapshot monitor
func (m *Metrics) Monitor() *Monitor {
	return m.monitor
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SuggestionsGenerated records one generation run
func (m *Metrics) SuggestionsGenerated(kitchenID string, count, shortages int) {
	m.suggestionsGenerated.WithLabelValues(kitchenID).Add(float64(count))
	m.shortages.WithLabelValues(kitchenID).Set(float64(shortages))
	m.monitor.RecordKitchenEvent(kitchenID, "suggestion_shortages", shortages)
	m.monitor.AddMetric(kitchenID+"_suggestions_generated", float64(count))
}

// SuggestionsApproved records approved suggestions
func (m *Metrics) SuggestionsApproved(kitchenID string, count int) {
	m.approvals.WithLabelValues(kitchenID).Add(float64(count))
	m.monitor.AddMetric(kitchenID+"_approvals", float64(count))
}

// InventoryDeducted records stock removed from an ingredient
func (m *Metrics) InventoryDeducted(kitchenID, ingredient string, amount float64) {
	if amount <= 0 {
		return
	}
	m.inventoryDeducted.WithLabelValues(kitchenID, ingredient).Add(amount)
}

// TaskCompleted records a completed prep task and the sheet's remaining time
func (m *Metrics) TaskCompleted(kitchenID string, remainingMinutes int) {
	m.tasksCompleted.WithLabelValues(kitchenID).Inc()
	m.remainingMinutes.WithLabelValues(kitchenID).Set(float64(remainingMinutes))
	m.monitor.AddMetric(kitchenID+"_tasks_completed", 1)
	m.monitor.RecordKitchenEvent(kitchenID, "prep_remaining_minutes", remainingMinutes)
}

// InventoryConflict records a rejected concurrent commit
func (m *Metrics) InventoryConflict(kitchenID string) {
	m.conflicts.WithLabelValues(kitchenID).Inc()
	m.monitor.AddMetric(kitchenID+"_inventory_conflicts", 1)
}

// MealLogged records a meal log
func (m *Metrics) MealLogged(kitchenID string) {
	m.mealLogs.WithLabelValues(kitchenID).Inc()
	m.monitor.AddMetric(kitchenID+"_meal_logs", 1)
}
