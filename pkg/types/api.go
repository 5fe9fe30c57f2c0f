package types

import "strings"

// ErrorAPI is the error body returned by the marketplace API. Errors holds
// field-level validation messages keyed by field name.
type ErrorAPI struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Error implements error.
func (e *ErrorAPI) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) > 0 {
		var parts []string
		for field, msgs := range e.Errors {
			parts = append(parts, field+": "+strings.Join(msgs, ", "))
		}
		return strings.Join(parts, "; ")
	}
	return "request failed"
}

// HasFieldErrors reports whether the error carries per-field validation detail.
func (e *ErrorAPI) HasFieldErrors() bool {
	return e != nil && len(e.Errors) > 0
}

// MessageResponse is a body carrying only a human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// DataResponse wraps a single entity.
type DataResponse[T any] struct {
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// PaginationMeta describes one page of a list response.
type PaginationMeta struct {
	Total    int `json:"total"`
	Limit    int `json:"limit"`
	Page     int `json:"page"`
	LastPage int `json:"lastPage"`
}

// Pagination is a page of entities.
type Pagination[T any] struct {
	Meta PaginationMeta `json:"meta"`
	Data []T            `json:"data"`
}

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)
