package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

// Result is the outcome of a request. On every path that received a
// response exactly one of Data and Err is set. Status is the raw HTTP status,
// or 0 when no response arrived.
type Result[T any] struct {
	Data   *T
	Err    error
	Status int
	// Message is the top-level "message" of a JSON object body, if any.
	Message string
}

// OK reports whether the request succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// APIError returns the structured API error, or nil when the failure was not
// an HTTP error response.
func (r Result[T]) APIError() *types.ErrorAPI {
	var apiErr *types.ErrorAPI
	if errors.As(r.Err, &apiErr) {
		return apiErr
	}
	return nil
}

// FieldErrors returns per-field validation messages, or nil.
func (r Result[T]) FieldErrors() map[string][]string {
	if apiErr := r.APIError(); apiErr != nil {
		return apiErr.Errors
	}
	return nil
}

// Unauthorized reports whether the final status was 401.
func (r Result[T]) Unauthorized() bool {
	return r.Status == http.StatusUnauthorized
}

// Request issues a request and decodes a successful body into T. It never
// returns an error value outside the Result.
func Request[T any](ctx context.Context, c *Client, endpoint string, opts Options) Result[T] {
	resp := c.do(ctx, endpoint, opts)
	result := Result[T]{Status: resp.status, Message: resp.message}
	if resp.err != nil {
		result.Err = resp.err
		return result
	}

	data := new(T)
	if resp.body != nil {
		if err := json.Unmarshal(resp.body, data); err != nil {
			result.Err = &DecodeError{Status: resp.status, Err: err}
			return result
		}
	}
	result.Data = data
	return result
}

// apiError builds the error value for a non-2xx response from its decoded
// body. Missing messages fall back to the status text.
func apiError(status int, tree any) *types.ErrorAPI {
	apiErr := &types.ErrorAPI{}
	if obj, ok := tree.(map[string]any); ok {
		if msg, ok := obj["message"].(string); ok {
			apiErr.Message = msg
		}
		if fields, ok := obj["errors"].(map[string]any); ok && len(fields) > 0 {
			apiErr.Errors = make(map[string][]string, len(fields))
			for field, v := range fields {
				apiErr.Errors[field] = messages(v)
			}
		}
	}
	if apiErr.Message == "" && len(apiErr.Errors) == 0 {
		apiErr.Message = http.StatusText(status)
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("request failed with status %d", status)
		}
	}
	return apiErr
}

func messages(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(x)}
	}
}
