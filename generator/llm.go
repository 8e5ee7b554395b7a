package generator

import (
	"context"
	"fmt"
)

// ResponseMode selects what the backend is asked to produce.
type ResponseMode string

const (
	ModeText  ResponseMode = "text"
	ModeImage ResponseMode = "image"
)

// GenerateRequest is one call to the generative backend.
type GenerateRequest struct {
	System string
	Prompt string
	Images [][]byte // optional binary attachments (reference images)
	Mode   ResponseMode

	// UseSearch asks the backend to ground the response with an external
	// lookup (URL fetch / web search) when the provider supports it.
	UseSearch bool
}

// GenerateResponse is the backend's output; Text and ImageData may each
// be empty depending on the requested mode.
type GenerateResponse struct {
	Text      string
	ImageData []byte
	ImageMIME string
}

// Backend abstracts the generative model so providers can be swapped or
// mocked. Implementations classify upstream failures via BackendError.
type Backend interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// BackendSettings is the provider configuration shared by implementations.
type BackendSettings struct {
	Provider   string
	Model      string
	ImageModel string
	APIKey     string
	BaseURL    string
}

// BackendError is an upstream failure with an optional HTTP-ish status.
// The retry executor classifies it as transient or fatal.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
	}
	return "backend: " + e.Message
}
