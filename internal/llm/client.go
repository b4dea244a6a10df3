// Package llm talks to chat-completion providers. Callers describe what they
// need with a Request; providers translate it to their own wire formats.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ChatMessage represents a generic chat turn in the prompt history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema is the subset of JSON Schema used to declare function parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	MinItems    *int               `json:"minItems,omitempty"`
	MaxItems    *int               `json:"maxItems,omitempty"`
}

// Function declares the single tool the model is forced to call.
type Function struct {
	Name        string
	Description string
	Parameters  *Schema
}

// Request is one completion call.
type Request struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
	// Function, when set, forces exactly one call to that function.
	Function *Function
	// JSON forces the whole reply to be a single JSON object.
	JSON bool
}

// Response carries either free text or the forced function call.
type Response struct {
	Content      string
	FunctionName string
	// Arguments is the JSON-encoded argument object of the function call.
	Arguments string
}

// Client defines the behaviour required by the recommend and care packages.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

var (
	// ErrUnavailable marks a connection-level failure reaching the provider.
	ErrUnavailable = errors.New("llm provider unavailable")
	// ErrRateLimited marks a 429 or quota exhaustion from the provider.
	ErrRateLimited = errors.New("llm provider rate limited")
)

// APIError is any other non-success answer from the provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// HTTPStatus maps a client error to the status surfaced to API callers.
func HTTPStatus(err error) int {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether err is a transient transport failure.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrRateLimited)
}

// Count returns a pointer suitable for Schema.MinItems and Schema.MaxItems.
func Count(n int) *int { return &n }
