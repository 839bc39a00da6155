// Package api exposes the kitchen service over HTTP with gin.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mise/internal/database"
	"mise/internal/kitchen"
	"mise/internal/logger"
	"mise/internal/models"
	"mise/internal/monitoring"
)

// Server is the HTTP API of the prep service
type Server struct {
	Router  *gin.Engine
	service *kitchen.Service
	hub     *Hub
	monitor *monitoring.Monitor
	secret  string
	log     *logger.Logger
}

// Options configures a Server
type Options struct {
	AuthSecret string
	Monitor    *monitoring.Monitor
	Logger     *logger.Logger
}

// NewServer creates the router and registers every route
func NewServer(service *kitchen.Service, hub *Hub, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	s := &Server{
		Router:  router,
		service: service,
		hub:     hub,
		monitor: monitor,
		secret:  opts.AuthSecret,
		log:     log,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "mise prep API is running"})
	})

	auth := AuthMiddleware(s.secret)

	v1 := s.Router.Group("/api/v1")
	v1.GET("/monitor", s.GetMonitor)
	v1.PUT("/kitchens/:kitchen", auth, s.PutKitchen)

	k := v1.Group("/kitchens/:kitchen")
	{
		// Inventory
		k.GET("/inventory", s.GetInventory)
		k.GET("/inventory/low", s.GetLowStock)
		k.POST("/inventory", auth, s.PutInventoryItem)
		k.PUT("/inventory/:id", auth, s.PutInventoryItem)

		// Recipes
		k.GET("/recipes", s.GetRecipes)
		k.POST("/recipes", auth, s.CreateRecipe)

		// Meal logs
		k.GET("/meal-logs", s.GetMealLogs)
		k.POST("/meal-logs", auth, s.CreateMealLog)

		// Prep suggestions
		k.POST("/suggestions/generate", auth, s.GenerateSuggestions)
		k.GET("/suggestions", s.GetSuggestions)
		k.GET("/suggestions/:id/review", s.ReviewSuggestion)
		k.PUT("/suggestions/:id/quantity", auth, s.AdjustQuantity)
		k.POST("/suggestions/approve", auth, s.ApproveSuggestions)

		// Prep sheet
		k.GET("/prep-sheet", s.GetPrepSheet)
		k.PUT("/prep-sheet/tasks/:taskId", auth, s.UpdateTask)

		// Forecast backtest
		k.GET("/forecast/accuracy", s.GetForecastAccuracy)

		k.GET("/live", s.handleLive)
	}
}

// requestLogger logs every request at debug level
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if subject := c.GetString(subjectKey); subject != "" {
			log.Debug("%s %s %d %s by %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), subject)
			return
		}
		log.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// respondError maps service errors to status codes
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrVersionConflict),
		errors.Is(err, models.ErrNotPending),
		errors.Is(err, models.ErrNothingToApprove):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.log.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// GetMonitor returns the in-process metric snapshot
func (s *Server) GetMonitor(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.GetMetrics())
}

// PutKitchen creates a kitchen if it does not exist
func (s *Server) PutKitchen(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	k, err := s.service.EnsureKitchen(c.Request.Context(), c.Param("kitchen"), req.Name, req.Timezone)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, k)
}

// Inventory handlers

func (s *Server) GetInventory(c *gin.Context) {
	items, err := s.service.Inventory(c.Request.Context(), c.Param("kitchen"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) GetLowStock(c *gin.Context) {
	items, err := s.service.LowStock(c.Request.Context(), c.Param("kitchen"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) PutInventoryItem(c *gin.Context) {
	var item models.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if id := c.Param("id"); id != "" {
		item.ID = id
	}

	stored, err := s.service.UpsertInventoryItem(c.Request.Context(), c.Param("kitchen"), item)
	if err != nil {
		s.respondError(c, err)
		return
	}

	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		status = http.StatusCreated
	}
	c.JSON(status, stored)
}

// Recipe handlers

func (s *Server) GetRecipes(c *gin.Context) {
	recipes, err := s.service.Recipes(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (s *Server) CreateRecipe(c *gin.Context) {
	var recipe models.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.service.CreateRecipe(c.Request.Context(), recipe)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Meal log handlers

type mealLogRequest struct {
	RecipeID               string     `json:"recipeId" binding:"required"`
	Date                   *time.Time `json:"date"`
	Quantity               float64    `json:"quantity" binding:"gt=0"`
	ManualOverrideServings *float64   `json:"manualOverrideServings"`
	Notes                  *string    `json:"notes"`
}

func (s *Server) GetMealLogs(c *gin.Context) {
	filter := database.MealLogFilter{
		RecipeID: c.Query("recipeId"),
		Query:    c.Query("q"),
	}

	var err error
	if filter.From, err = parseTime(c.Query("from"), false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from: " + err.Error()})
		return
	}
	if filter.To, err = parseTime(c.Query("to"), true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to: " + err.Error()})
		return
	}

	logs, err := s.service.MealLogs(c.Request.Context(), c.Param("kitchen"), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) CreateMealLog(c *gin.Context) {
	var req mealLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meal := kitchen.MealRequest{
		RecipeID:               req.RecipeID,
		Quantity:               req.Quantity,
		ManualOverrideServings: req.ManualOverrideServings,
		Notes:                  req.Notes,
	}
	if req.Date != nil {
		meal.Date = *req.Date
	}

	entry, err := s.service.RecordMeal(c.Request.Context(), c.Param("kitchen"), meal)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// parseTime accepts RFC 3339 or a plain date. A plain upper bound covers the
// whole day.
func parseTime(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// Suggestion handlers

func (s *Server) GenerateSuggestions(c *gin.Context) {
	suggestions, err := s.service.GenerateSuggestions(c.Request.Context(), c.Param("kitchen"), c.Query("date"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

func (s *Server) GetSuggestions(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !models.IsSuggestionStatusValid(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + status})
		return
	}

	suggestions, err := s.service.Suggestions(c.Request.Context(), c.Param("kitchen"), c.Query("date"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if status != "" {
		filtered := make([]models.PrepSuggestion, 0, len(suggestions))
		for _, suggestion := range suggestions {
			if string(suggestion.Status) == status {
				filtered = append(filtered, suggestion)
			}
		}
		suggestions = filtered
	}
	c.JSON(http.StatusOK, suggestions)
}

func (s *Server) ReviewSuggestion(c *gin.Context) {
	review, err := s.service.Review(c.Request.Context(), c.Param("kitchen"), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (s *Server) AdjustQuantity(c *gin.Context) {
	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := s.service.AdjustQuantity(c.Request.Context(), c.Param("kitchen"), c.Param("id"), *req.Quantity)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (s *Server) ApproveSuggestions(c *gin.Context) {
	var req struct {
		Date string   `json:"date"`
		IDs  []string `json:"ids"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Date == "" {
		req.Date = c.Query("date")
	}

	approval, err := s.service.Approve(c.Request.Context(), c.Param("kitchen"), req.Date, req.IDs)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, approval)
}

// GetForecastAccuracy backtests the forecast over ?days= days
func (s *Server) GetForecastAccuracy(c *gin.Context) {
	days := 0
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days: " + v})
			return
		}
		days = n
	}

	result, err := s.service.ForecastAccuracy(c.Request.Context(), c.Param("kitchen"), days)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Prep sheet handlers

func (s *Server) GetPrepSheet(c *gin.Context) {
	sheet, err := s.service.PrepSheet(c.Request.Context(), c.Param("kitchen"), c.Query("date"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

func (s *Server) UpdateTask(c *gin.Context) {
	var req struct {
		Date              string   `json:"date"`
		IsCompleted       *bool    `json:"isCompleted" binding:"required"`
		CompletedQuantity *float64 `json:"completedQuantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Date == "" {
		req.Date = c.Query("date")
	}

	sheet, err := s.service.CompleteTask(c.Request.Context(), c.Param("kitchen"), req.Date, c.Param("taskId"), *req.IsCompleted, req.CompletedQuantity)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}
