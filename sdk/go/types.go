package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"rankkit/core"
)

// Board mirrors a list response: entries with their list-relative ranks plus any repairs the
// server performed while reading.
type Board struct {
	Board   string        `json:"board"`
	Season  string        `json:"season,omitempty"`
	Entries []core.Ranked `json:"entries"`
	Repairs []core.Repair `json:"repairs,omitempty"`
}

// Rank mirrors the rank response. Rank is core.NotRanked when the id holds no visible rank.
type Rank struct {
	ID      string        `json:"id"`
	Rank    int64         `json:"rank"`
	Repairs []core.Repair `json:"repairs,omitempty"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string         `json:"status"`
	Checks map[string]any `json:"checks"`
	Boards []string       `json:"boards"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed: status %d", e.Status)
	}
	return fmt.Sprintf("request failed: status %d: %s: %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

var (
	// ErrEmptyID is returned when an entry id is empty.
	ErrEmptyID = errors.New("entry id is required")
	// ErrEmptyBoard is returned when a board name is empty.
	ErrEmptyBoard = errors.New("board name is required")
)
