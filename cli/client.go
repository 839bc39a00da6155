package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"mise/internal/kitchen"
	"mise/internal/models"
)

// ApiClient handles requests to the mise prep API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	Kitchen    string
	Token      string
}

// NewApiClient creates a client for one kitchen. An empty baseURL falls back
// to MISE_API_URL and then to localhost.
func NewApiClient(baseURL, kitchenID, token string) *ApiClient {
	if baseURL == "" {
		baseURL = os.Getenv("MISE_API_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if token == "" {
		token = os.Getenv("MISE_TOKEN")
	}

	return &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
		Kitchen: kitchenID,
		Token:   token,
	}
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() error {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API health check failed with status code: %d", resp.StatusCode)
	}
	return nil
}

func (c *ApiClient) kitchenPath(path string, query url.Values) string {
	u := fmt.Sprintf("%s/api/v1/kitchens/%s%s", c.BaseURL, url.PathEscape(c.Kitchen), path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends a request and decodes the JSON response into out
func (c *ApiClient) do(method, u string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("API request failed with status code: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func dateQuery(date string) url.Values {
	if date == "" {
		return nil
	}
	return url.Values{"date": {date}}
}

// GetPrepSheet returns the prep sheet of date
func (c *ApiClient) GetPrepSheet(date string) (*kitchen.SheetView, error) {
	var sheet kitchen.SheetView
	if err := c.do(http.MethodGet, c.kitchenPath("/prep-sheet", dateQuery(date)), nil, &sheet); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// GetSuggestions returns the stored suggestions of date
func (c *ApiClient) GetSuggestions(date string) ([]models.PrepSuggestion, error) {
	var suggestions []models.PrepSuggestion
	err := c.do(http.MethodGet, c.kitchenPath("/suggestions", dateQuery(date)), nil, &suggestions)
	return suggestions, err
}

// GenerateSuggestions forecasts suggestions for date
func (c *ApiClient) GenerateSuggestions(date string) ([]models.PrepSuggestion, error) {
	var suggestions []models.PrepSuggestion
	err := c.do(http.MethodPost, c.kitchenPath("/suggestions/generate", dateQuery(date)), nil, &suggestions)
	return suggestions, err
}

// AdjustQuantity sets the quantity of one suggestion
func (c *ApiClient) AdjustQuantity(id string, quantity int) (*kitchen.Review, error) {
	var review kitchen.Review
	body := map[string]int{"quantity": quantity}
	if err := c.do(http.MethodPut, c.kitchenPath("/suggestions/"+url.PathEscape(id)+"/quantity", nil), body, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// Approve approves the named suggestions of date, or all pending ones
func (c *ApiClient) Approve(date string, ids []string) (*kitchen.Approval, error) {
	var approval kitchen.Approval
	body := map[string]interface{}{"date": date, "ids": ids}
	if err := c.do(http.MethodPost, c.kitchenPath("/suggestions/approve", nil), body, &approval); err != nil {
		return nil, err
	}
	return &approval, nil
}

// CompleteTask marks a prep task done with its full quantity
func (c *ApiClient) CompleteTask(date, taskID string) (*kitchen.SheetView, error) {
	var sheet kitchen.SheetView
	body := map[string]interface{}{"date": date, "isCompleted": true}
	if err := c.do(http.MethodPut, c.kitchenPath("/prep-sheet/tasks/"+url.PathEscape(taskID), nil), body, &sheet); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// GetLowStock returns items at or below their alert level
func (c *ApiClient) GetLowStock() ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := c.do(http.MethodGet, c.kitchenPath("/inventory/low", nil), nil, &items)
	return items, err
}
